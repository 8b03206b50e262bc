package dialogue

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/yttsai/venuebot/internal/config"
	"github.com/yttsai/venuebot/internal/database"
	"github.com/yttsai/venuebot/internal/rating"
	"github.com/yttsai/venuebot/internal/session"
	"github.com/yttsai/venuebot/internal/weather"
)

type send struct {
	push bool
	to   string // reply token, or user id for pushes
	msgs []Message
}

type fakeNotifier struct {
	mu    sync.Mutex
	sends []send
}

func (f *fakeNotifier) Reply(_ context.Context, replyToken string, msgs ...Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, send{to: replyToken, msgs: msgs})
	return nil
}

func (f *fakeNotifier) Push(_ context.Context, userID string, msgs ...Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, send{push: true, to: userID, msgs: msgs})
	return nil
}

func (f *fakeNotifier) all() []send {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]send(nil), f.sends...)
}

type selectorCall struct {
	category string
	region   string
	mode     session.Mode
	k        int
}

type fakeSelector struct {
	mu     sync.Mutex
	calls  []selectorCall
	venues []database.Venue
}

func (f *fakeSelector) Select(_ context.Context, category, region string, mode session.Mode, k int) []database.Venue {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, selectorCall{category: category, region: region, mode: mode, k: k})
	return f.venues
}

type aggregatorCall struct {
	category string
	region   string
	title    string
	rating   int
}

type fakeAggregator struct {
	mu    sync.Mutex
	calls []aggregatorCall
	err   error
}

func (f *fakeAggregator) Apply(_ context.Context, category, region, title string, ratingValue int) (*database.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, aggregatorCall{category: category, region: region, title: title, rating: ratingValue})
	if f.err != nil {
		return nil, f.err
	}
	return &database.Venue{Category: category, Region: region, Title: title}, nil
}

type fakeWeather struct {
	report *weather.Report
}

func (f *fakeWeather) Lookup(context.Context, string) *weather.Report {
	return f.report
}

type fixture struct {
	controller *Controller
	sessions   *session.Store
	notifier   *fakeNotifier
	selector   *fakeSelector
	aggregator *fakeAggregator
	weather    *fakeWeather
}

func newFixture() *fixture {
	cfg := &config.DialogueConfig{
		Regions:         config.DefaultDialogueRegions,
		ListSize:        3,
		KeywordSurprise: config.DefaultKeywordSurprise,
		KeywordTopRated: config.DefaultKeywordTopRated,
		KeywordAddVenue: config.DefaultKeywordAddVenue,
		Messages:        config.DefaultDialogueMessages,
	}

	f := &fixture{
		sessions:   session.NewStore(nil),
		notifier:   &fakeNotifier{},
		selector:   &fakeSelector{},
		aggregator: &fakeAggregator{},
		weather:    &fakeWeather{},
	}
	f.controller = NewController(Deps{
		Config:         cfg,
		Sessions:       f.sessions,
		Selector:       f.selector,
		Aggregator:     f.aggregator,
		Weather:        f.weather,
		Notifier:       f.notifier,
		ObserverUserID: "observer",
	})
	return f
}

func text(userID, body string) TextMessage {
	return TextMessage{UserID: userID, ReplyToken: "token-" + userID, Text: body}
}

func postback(userID, data string) Postback {
	return Postback{UserID: userID, ReplyToken: "token-" + userID, Data: data}
}

func sampleVenues(n int) []database.Venue {
	venues := make([]database.Venue, 0, n)
	for i := 1; i <= n; i++ {
		venues = append(venues, database.Venue{
			Category: "food", Region: "南區", Title: fmt.Sprintf("venue-%d", i),
		})
	}
	return venues
}

func TestUnknownTextPromptsFallback(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.controller.HandleText(context.Background(), text("u1", "hello there"))

	sends := f.notifier.all()
	if len(sends) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sends))
	}
	prompt, ok := sends[0].msgs[0].(TextPrompt)
	if !ok || prompt.Text != config.DefaultDialogueMessages.Fallback {
		t.Errorf("expected fallback prompt, got %+v", sends[0].msgs[0])
	}
}

func TestSurpriseKeywordPromptsRegionMenu(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.controller.HandleText(context.Background(), text("u1", config.DefaultKeywordSurprise))

	sends := f.notifier.all()
	if len(sends) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sends))
	}
	menu, ok := sends[0].msgs[0].(RegionMenu)
	if !ok {
		t.Fatalf("expected RegionMenu, got %T", sends[0].msgs[0])
	}
	if len(menu.Regions) != len(config.DefaultDialogueRegions) {
		t.Errorf("expected %d regions, got %d", len(config.DefaultDialogueRegions), len(menu.Regions))
	}

	if got := f.sessions.Get("u1").Mode; got != session.ModeSurprise {
		t.Errorf("expected ModeSurprise stored in session, got %v", got)
	}
}

func TestModeIsPerSession(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.controller.HandleText(context.Background(), text("u1", config.DefaultKeywordSurprise))
	f.controller.HandleText(context.Background(), text("u2", config.DefaultKeywordTopRated))

	if got := f.sessions.Get("u1").Mode; got != session.ModeSurprise {
		t.Errorf("u1: expected ModeSurprise, got %v", got)
	}
	if got := f.sessions.Get("u2").Mode; got != session.ModeTopRated {
		t.Errorf("u2: expected ModeTopRated, got %v", got)
	}
}

func TestCategoryWithoutRegionPrompts(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.controller.HandleText(context.Background(), text("u1", "美食"))

	sends := f.notifier.all()
	if len(sends) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sends))
	}
	prompt, ok := sends[0].msgs[0].(TextPrompt)
	if !ok || prompt.Text != config.DefaultDialogueMessages.PickRegionFirst {
		t.Errorf("expected pick-region-first prompt, got %+v", sends[0].msgs[0])
	}
	if len(f.selector.calls) != 0 {
		t.Errorf("expected no selector call, got %d", len(f.selector.calls))
	}
	if len(f.aggregator.calls) != 0 {
		t.Errorf("expected no aggregator call, got %d", len(f.aggregator.calls))
	}
}

func TestRegionCallbackThenCategoryReturnsVenues(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.selector.venues = sampleVenues(3)

	f.controller.HandleText(context.Background(), text("u1", config.DefaultKeywordSurprise))
	f.controller.HandlePostback(context.Background(), postback("u1", "region=南區"))
	f.controller.HandleText(context.Background(), text("u1", "美食"))

	sends := f.notifier.all()
	if len(sends) != 3 {
		t.Fatalf("expected 3 sends, got %d", len(sends))
	}
	if _, ok := sends[1].msgs[0].(CategoryMenu); !ok {
		t.Errorf("expected CategoryMenu after region callback, got %T", sends[1].msgs[0])
	}
	list, ok := sends[2].msgs[0].(VenueList)
	if !ok {
		t.Fatalf("expected VenueList, got %T", sends[2].msgs[0])
	}
	if len(list.Venues) != 3 {
		t.Errorf("expected 3 venues, got %d", len(list.Venues))
	}

	if len(f.selector.calls) != 1 {
		t.Fatalf("expected 1 selector call, got %d", len(f.selector.calls))
	}
	call := f.selector.calls[0]
	if call.category != CategoryFood || call.region != "南區" || call.mode != session.ModeSurprise || call.k != 3 {
		t.Errorf("unexpected selector call %+v", call)
	}
}

func TestCategoryEmptyPartitionRepliesNoResults(t *testing.T) {
	t.Parallel()

	f := newFixture()

	f.controller.HandlePostback(context.Background(), postback("u1", "region=東區"))
	f.controller.HandleText(context.Background(), text("u1", "小吃"))

	sends := f.notifier.all()
	if len(sends) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(sends))
	}
	prompt, ok := sends[1].msgs[0].(TextPrompt)
	if !ok || prompt.Text != config.DefaultDialogueMessages.NoResults {
		t.Errorf("expected no-results prompt, got %+v", sends[1].msgs[0])
	}
}

// TestAttractionEmitsTwoSends covers the branch with two outbound sends: an
// immediate weather reply, then the venue list pushed to the user.
func TestAttractionEmitsTwoSends(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.selector.venues = sampleVenues(2)
	f.weather.report = &weather.Report{FeelsLike: "31°C", RainProbability: "20%"}

	f.controller.HandlePostback(context.Background(), postback("u1", "region=安平區"))
	f.controller.HandleText(context.Background(), text("u1", "景點"))

	sends := f.notifier.all()
	if len(sends) != 3 {
		t.Fatalf("expected 3 sends, got %d", len(sends))
	}

	weatherSend := sends[1]
	if weatherSend.push {
		t.Errorf("expected weather report on the reply channel")
	}
	report, ok := weatherSend.msgs[0].(WeatherReport)
	if !ok {
		t.Fatalf("expected WeatherReport, got %T", weatherSend.msgs[0])
	}
	if report.Region != "安平區" || report.Report.FeelsLike != "31°C" {
		t.Errorf("unexpected weather report %+v", report)
	}

	listSend := sends[2]
	if !listSend.push || listSend.to != "u1" {
		t.Errorf("expected venue list pushed to u1, got %+v", listSend)
	}
	if _, ok := listSend.msgs[0].(VenueList); !ok {
		t.Errorf("expected VenueList, got %T", listSend.msgs[0])
	}
}

// TestAttractionWeatherAbsent verifies both sends still go out when the
// weather collaborator comes back empty.
func TestAttractionWeatherAbsent(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.selector.venues = sampleVenues(1)
	f.weather.report = nil

	f.controller.HandlePostback(context.Background(), postback("u1", "region=中西區"))
	f.controller.HandleText(context.Background(), text("u1", "景點"))

	sends := f.notifier.all()
	if len(sends) != 3 {
		t.Fatalf("expected 3 sends, got %d", len(sends))
	}
	prompt, ok := sends[1].msgs[0].(TextPrompt)
	if !ok || prompt.Text != config.DefaultDialogueMessages.NoWeather {
		t.Errorf("expected no-weather prompt, got %+v", sends[1].msgs[0])
	}
	if _, ok := sends[2].msgs[0].(VenueList); !ok {
		t.Errorf("expected VenueList push, got %T", sends[2].msgs[0])
	}
}

func TestAddVenueFlow(t *testing.T) {
	t.Parallel()

	f := newFixture()

	f.controller.HandlePostback(context.Background(), postback("u1", "region=南區"))
	f.controller.HandleText(context.Background(), text("u1", "美食"))
	f.controller.HandleText(context.Background(), text("u1", config.DefaultKeywordAddVenue))

	if got := f.sessions.Get("u1").InputState; got != session.InputAwaitingTitle {
		t.Fatalf("expected InputAwaitingTitle, got %v", got)
	}

	f.controller.HandleText(context.Background(), text("u1", "Joe's Noodles"))

	s := f.sessions.Get("u1")
	if s.InputState != session.InputAwaitingRating {
		t.Fatalf("expected InputAwaitingRating, got %v", s.InputState)
	}
	if s.Draft == nil || s.Draft.Title != "Joe's Noodles" {
		t.Fatalf("expected draft title Joe's Noodles, got %+v", s.Draft)
	}

	sends := f.notifier.all()
	menu, ok := sends[len(sends)-1].msgs[0].(RatingMenu)
	if !ok {
		t.Fatalf("expected RatingMenu, got %T", sends[len(sends)-1].msgs[0])
	}
	if menu.Title != "Joe's Noodles" {
		t.Errorf("expected rating menu for Joe's Noodles, got %q", menu.Title)
	}

	f.controller.HandlePostback(context.Background(), postback("u1", "rating=4&title=Joe%27s+Noodles"))

	s = f.sessions.Get("u1")
	if s.InputState != session.InputIdle || s.Draft != nil {
		t.Errorf("expected draft cleared after rating, got %+v", s)
	}

	if len(f.aggregator.calls) != 1 {
		t.Fatalf("expected 1 aggregator call, got %d", len(f.aggregator.calls))
	}
	call := f.aggregator.calls[0]
	if call.category != CategoryFood || call.region != "南區" || call.title != "Joe's Noodles" || call.rating != 4 {
		t.Errorf("unexpected aggregator call %+v", call)
	}

	sends = f.notifier.all()
	last := sends[len(sends)-1]
	if !last.push || last.to != "observer" {
		t.Fatalf("expected observer push last, got %+v", last)
	}
	notice, ok := last.msgs[0].(SubmissionNotice)
	if !ok {
		t.Fatalf("expected SubmissionNotice, got %T", last.msgs[0])
	}
	if notice.UserID != "u1" || notice.Title != "Joe's Noodles" || notice.Rating != 4 || !notice.Matched {
		t.Errorf("unexpected submission notice %+v", notice)
	}
}

func TestTitleEntryCapturesKeywordText(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.controller.HandleText(context.Background(), text("u1", config.DefaultKeywordAddVenue))
	f.controller.HandleText(context.Background(), text("u1", config.DefaultKeywordSurprise))

	s := f.sessions.Get("u1")
	if s.Draft == nil || s.Draft.Title != config.DefaultKeywordSurprise {
		t.Errorf("expected keyword captured as title, got %+v", s.Draft)
	}
	if s.Mode != session.ModeUnset {
		t.Errorf("expected mode untouched during title entry, got %v", s.Mode)
	}
}

func TestRatingForUnknownVenueAcknowledged(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.aggregator.err = rating.ErrVenueNotFound

	f.controller.HandlePostback(context.Background(), postback("u1", "region=南區"))
	f.controller.HandleText(context.Background(), text("u1", "美食"))
	f.controller.HandlePostback(context.Background(), postback("u1", "rating=4&title=Joe%27s+Noodles"))

	sends := f.notifier.all()
	// region reply, venue/no-results reply, not-found reply, observer push
	if len(sends) != 4 {
		t.Fatalf("expected 4 sends, got %d", len(sends))
	}
	prompt, ok := sends[2].msgs[0].(TextPrompt)
	if !ok || prompt.Text != config.DefaultDialogueMessages.VenueNotFound {
		t.Errorf("expected venue-not-found acknowledgement, got %+v", sends[2].msgs[0])
	}
	notice, ok := sends[3].msgs[0].(SubmissionNotice)
	if !ok {
		t.Fatalf("expected SubmissionNotice, got %T", sends[3].msgs[0])
	}
	if notice.Matched {
		t.Errorf("expected unmatched submission notice, got %+v", notice)
	}
}

// TestRatingTrustsPayloadShape documents the trust boundary: a rating callback
// dispatches on its shape regardless of the recorded input state.
func TestRatingTrustsPayloadShape(t *testing.T) {
	t.Parallel()

	f := newFixture()

	f.controller.HandlePostback(context.Background(), postback("u1", "region=南區"))
	f.controller.HandleText(context.Background(), text("u1", "美食"))

	// No add-venue flow was started, yet the callback is honored.
	f.controller.HandlePostback(context.Background(), postback("u1", "rating=5&title=replayed"))

	if len(f.aggregator.calls) != 1 {
		t.Fatalf("expected aggregator call despite idle input state, got %d", len(f.aggregator.calls))
	}
}

func TestRatingWithoutPartitionReportsNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.controller.HandlePostback(context.Background(), postback("u1", "rating=3&title=somewhere"))

	if len(f.aggregator.calls) != 0 {
		t.Fatalf("expected no aggregator call without a partition, got %d", len(f.aggregator.calls))
	}
	sends := f.notifier.all()
	if len(sends) != 2 {
		t.Fatalf("expected not-found reply plus observer push, got %d sends", len(sends))
	}
	prompt, ok := sends[0].msgs[0].(TextPrompt)
	if !ok || prompt.Text != config.DefaultDialogueMessages.VenueNotFound {
		t.Errorf("expected venue-not-found reply, got %+v", sends[0].msgs[0])
	}
}

func TestMalformedCallbackDroppedSilently(t *testing.T) {
	t.Parallel()

	f := newFixture()

	for _, data := range []string{"", "bogus", "rating=99&title=x", "color=blue"} {
		f.controller.HandlePostback(context.Background(), postback("u1", data))
	}

	if sends := f.notifier.all(); len(sends) != 0 {
		t.Errorf("expected no sends for malformed callbacks, got %d", len(sends))
	}
}

func TestUnknownRegionCallbackDropped(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.controller.HandlePostback(context.Background(), postback("u1", "region=月球"))

	if sends := f.notifier.all(); len(sends) != 0 {
		t.Errorf("expected no sends for unknown region, got %d", len(sends))
	}
	if got := f.sessions.Get("u1").Region; got != "" {
		t.Errorf("expected region unset, got %q", got)
	}
}

// TestDuplicateDeliveryRendersIdenticalOutput: duplicate deliveries are
// tolerated by producing the same response, not by deduplication.
func TestDuplicateDeliveryRendersIdenticalOutput(t *testing.T) {
	t.Parallel()

	f := newFixture()

	f.controller.HandlePostback(context.Background(), postback("u1", "region=南區"))
	f.controller.HandlePostback(context.Background(), postback("u1", "region=南區"))

	sends := f.notifier.all()
	if len(sends) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(sends))
	}
	for i, s := range sends {
		if _, ok := s.msgs[0].(CategoryMenu); !ok {
			t.Errorf("send %d: expected CategoryMenu, got %T", i, s.msgs[0])
		}
	}
}
