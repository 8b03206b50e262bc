package dialogue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"

	"github.com/yttsai/venuebot/internal/config"
	"github.com/yttsai/venuebot/internal/database"
	"github.com/yttsai/venuebot/internal/rating"
	"github.com/yttsai/venuebot/internal/session"
	"github.com/yttsai/venuebot/internal/weather"
)

// Canonical category names. Users type the display aliases; the datastore is
// partitioned by the canonical name.
const (
	CategoryFood       = "food"
	CategorySnack      = "snack"
	CategoryAttraction = "attraction"
)

var categoryAliases = map[string]string{
	CategoryFood:       CategoryFood,
	CategorySnack:      CategorySnack,
	CategoryAttraction: CategoryAttraction,
	"美食":               CategoryFood,
	"小吃":               CategorySnack,
	"景點":               CategoryAttraction,
}

// VenueSelector returns an ordered shortlist for a partition and mode.
type VenueSelector interface {
	Select(ctx context.Context, category, region string, mode session.Mode, k int) []database.Venue
}

// RatingAggregator folds one rating into a venue's running average.
type RatingAggregator interface {
	Apply(ctx context.Context, category, region, title string, ratingValue int) (*database.Venue, error)
}

// Deps provides the collaborators the dialogue controller drives.
type Deps struct {
	Logger     *slog.Logger
	Config     *config.DialogueConfig
	Sessions   *session.Store
	Selector   VenueSelector
	Aggregator RatingAggregator
	Weather    weather.Service
	Notifier   Notifier

	// ObserverUserID receives a push summary of every rating submission.
	// Empty disables the observer channel.
	ObserverUserID string
}

// Controller is the per-user dialogue state machine. Each inbound event runs
// inside a session transaction, so events for the same user are serialized
// while different users proceed in parallel.
type Controller struct {
	deps Deps
	log  *slog.Logger
}

// NewController creates a dialogue controller.
func NewController(deps Deps) *Controller {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		deps: deps,
		log:  log.With("component", "dialogue"),
	}
}

// HandleText processes a free-text message from a user.
func (c *Controller) HandleText(ctx context.Context, ev TextMessage) {
	c.deps.Sessions.Transact(ev.UserID, func(s *session.Session) {
		c.handleText(ctx, ev, s)
	})
}

// HandlePostback processes a structured callback from a user. Payloads that
// do not parse are dropped silently: no recovery action is well-defined.
func (c *Controller) HandlePostback(ctx context.Context, ev Postback) {
	cb, err := ParseCallback(ev.Data)
	if err != nil {
		c.log.DebugContext(ctx, "Dropping malformed callback",
			"user_id", ev.UserID, "data", ev.Data, "error", err)
		return
	}

	c.deps.Sessions.Transact(ev.UserID, func(s *session.Session) {
		switch cb := cb.(type) {
		case RegionSelected:
			c.handleRegion(ctx, ev, s, cb)
		case RatingSubmitted:
			c.handleRating(ctx, ev, s, cb)
		}
	})
}

func (c *Controller) handleText(ctx context.Context, ev TextMessage, s *session.Session) {
	msgs := c.deps.Config.Messages

	// A pending title prompt captures the next text verbatim, keywords
	// included. Anyone naming their shop after a keyword gets their wish.
	if s.InputState == session.InputAwaitingTitle {
		s.Draft = &session.Draft{Title: ev.Text}
		s.InputState = session.InputAwaitingRating
		c.reply(ctx, ev.ReplyToken, RatingMenu{Prompt: msgs.AskRating, Title: ev.Text})
		return
	}

	switch ev.Text {
	case c.deps.Config.KeywordSurprise:
		s.Mode = session.ModeSurprise
		c.reply(ctx, ev.ReplyToken, RegionMenu{Prompt: msgs.PickRegion, Regions: c.deps.Config.Regions})
		return
	case c.deps.Config.KeywordTopRated:
		s.Mode = session.ModeTopRated
		c.reply(ctx, ev.ReplyToken, RegionMenu{Prompt: msgs.PickRegion, Regions: c.deps.Config.Regions})
		return
	case c.deps.Config.KeywordAddVenue:
		s.InputState = session.InputAwaitingTitle
		s.Draft = nil
		c.reply(ctx, ev.ReplyToken, TextPrompt{Text: msgs.AskTitle})
		return
	}

	if category, ok := categoryAliases[ev.Text]; ok && s.InputState == session.InputIdle {
		if s.Region == "" {
			c.reply(ctx, ev.ReplyToken, TextPrompt{Text: msgs.PickRegionFirst})
			return
		}
		s.Category = category

		if category == CategoryAttraction {
			c.handleAttraction(ctx, ev, s)
			return
		}

		venues := c.deps.Selector.Select(ctx, category, s.Region, s.Mode, c.deps.Config.ListSize)
		if len(venues) == 0 {
			c.reply(ctx, ev.ReplyToken, TextPrompt{Text: msgs.NoResults})
			return
		}
		c.reply(ctx, ev.ReplyToken, VenueList{Venues: venues})
		return
	}

	c.reply(ctx, ev.ReplyToken, TextPrompt{Text: msgs.Fallback})
}

// handleAttraction emits two sends: an immediate weather report on the reply
// channel, then the venue list as a push. Both go out even when the weather
// collaborator comes back empty.
func (c *Controller) handleAttraction(ctx context.Context, ev TextMessage, s *session.Session) {
	msgs := c.deps.Config.Messages

	var report *weather.Report
	if c.deps.Weather != nil {
		report = c.deps.Weather.Lookup(ctx, s.Region)
	}
	if report != nil {
		c.reply(ctx, ev.ReplyToken, WeatherReport{Region: s.Region, Report: *report})
	} else {
		c.reply(ctx, ev.ReplyToken, TextPrompt{Text: msgs.NoWeather})
	}

	venues := c.deps.Selector.Select(ctx, CategoryAttraction, s.Region, s.Mode, c.deps.Config.ListSize)
	if len(venues) == 0 {
		c.push(ctx, ev.UserID, TextPrompt{Text: msgs.NoResults})
		return
	}
	c.push(ctx, ev.UserID, VenueList{Venues: venues})
}

func (c *Controller) handleRegion(ctx context.Context, ev Postback, s *session.Session, cb RegionSelected) {
	if !slices.Contains(c.deps.Config.Regions, cb.Region) {
		c.log.DebugContext(ctx, "Dropping callback for unknown region",
			"user_id", ev.UserID, "region", cb.Region)
		return
	}

	s.Region = cb.Region
	c.reply(ctx, ev.ReplyToken, CategoryMenu{Prompt: c.deps.Config.Messages.PickCategory})
}

// handleRating trusts the callback shape, not the recorded input state:
// clients only emit this callback after being shown the rating menu. A forged
// or replayed callback can therefore submit a rating without going through
// title entry; the partition is still taken from the caller's own session.
func (c *Controller) handleRating(ctx context.Context, ev Postback, s *session.Session, cb RatingSubmitted) {
	msgs := c.deps.Config.Messages

	// The submission consumes any draft, whether or not it matches.
	s.AbandonDraft()

	if s.Category == "" || s.Region == "" {
		c.reply(ctx, ev.ReplyToken, TextPrompt{Text: msgs.VenueNotFound})
		c.notifyObserver(ctx, ev.UserID, cb, false)
		return
	}

	_, err := c.deps.Aggregator.Apply(ctx, s.Category, s.Region, cb.Title, cb.Rating)
	switch {
	case err == nil:
		c.reply(ctx, ev.ReplyToken, TextPrompt{Text: msgs.ThanksRating})
		c.notifyObserver(ctx, ev.UserID, cb, true)
	case errors.Is(err, rating.ErrVenueNotFound):
		c.reply(ctx, ev.ReplyToken, TextPrompt{Text: msgs.VenueNotFound})
		c.notifyObserver(ctx, ev.UserID, cb, false)
	default:
		c.log.ErrorContext(ctx, "Failed to record rating",
			"user_id", ev.UserID, "title", cb.Title, "error", err)
		c.reply(ctx, ev.ReplyToken, TextPrompt{Text: msgs.GeneralError})
	}
}

func (c *Controller) notifyObserver(ctx context.Context, userID string, cb RatingSubmitted, matched bool) {
	if c.deps.ObserverUserID == "" {
		return
	}
	c.push(ctx, c.deps.ObserverUserID, SubmissionNotice{
		UserID:  userID,
		Title:   cb.Title,
		Rating:  cb.Rating,
		Matched: matched,
	})
}

func (c *Controller) reply(ctx context.Context, replyToken string, msgs ...Message) {
	if err := c.deps.Notifier.Reply(ctx, replyToken, msgs...); err != nil {
		c.log.ErrorContext(ctx, "Failed to send reply", "error", err)
	}
}

func (c *Controller) push(ctx context.Context, userID string, msgs ...Message) {
	if err := c.deps.Notifier.Push(ctx, userID, msgs...); err != nil {
		c.log.ErrorContext(ctx, "Failed to send push", "user_id", userID, "error", err)
	}
}
