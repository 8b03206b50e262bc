package dialogue

import (
	"context"

	"github.com/yttsai/venuebot/internal/database"
	"github.com/yttsai/venuebot/internal/weather"
)

// Message is a semantic outbound message. Rendering into the chat platform's
// wire format is the notifier's concern.
type Message interface {
	isMessage()
}

// TextPrompt is a plain guidance text.
type TextPrompt struct {
	Text string
}

// RegionMenu asks the user to pick one of the selectable regions.
type RegionMenu struct {
	Prompt  string
	Regions []string
}

// CategoryMenu asks the user to pick food, snack, or attraction.
type CategoryMenu struct {
	Prompt string
}

// RatingMenu asks the user to rate the venue titled Title with 1-5 stars.
type RatingMenu struct {
	Prompt string
	Title  string
}

// VenueList carries an ordered recommendation shortlist.
type VenueList struct {
	Venues []database.Venue
}

// WeatherReport carries current conditions for the session's region.
type WeatherReport struct {
	Region string
	Report weather.Report
}

// SubmissionNotice summarizes a rating submission for the observer user.
type SubmissionNotice struct {
	UserID  string
	Title   string
	Rating  int
	Matched bool
}

func (TextPrompt) isMessage()       {}
func (RegionMenu) isMessage()       {}
func (CategoryMenu) isMessage()     {}
func (RatingMenu) isMessage()       {}
func (VenueList) isMessage()        {}
func (WeatherReport) isMessage()    {}
func (SubmissionNotice) isMessage() {}

// Notifier delivers outbound messages: a reply tied to the originating event,
// or a push addressed by user id.
type Notifier interface {
	Reply(ctx context.Context, replyToken string, msgs ...Message) error
	Push(ctx context.Context, userID string, msgs ...Message) error
}
