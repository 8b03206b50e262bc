package line

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"golang.org/x/sync/semaphore"

	"github.com/yttsai/venuebot/internal/dialogue"
	"github.com/yttsai/venuebot/internal/logger"
)

const maxWebhookBody = 1 << 20 // 1 MiB

// Webhook receives LINE webhook deliveries, verifies their signature, and
// dispatches each event to the dialogue controller. Signature verification
// and envelope parsing are handled by the LINE SDK. Event handling is bounded
// by a semaphore; each accepted event runs to completion on a detached
// context so that acknowledging the delivery does not cancel it.
type Webhook struct {
	channelSecret string
	controller    *dialogue.Controller
	sem           *semaphore.Weighted
	logger        *slog.Logger
}

// NewWebhook creates a webhook intake bound to a dialogue controller.
// maxHandlers caps the number of concurrently processed events.
func NewWebhook(channelSecret string, controller *dialogue.Controller, maxHandlers int64, log *slog.Logger) *Webhook {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Webhook{
		channelSecret: channelSecret,
		controller:    controller,
		sem:           semaphore.NewWeighted(maxHandlers),
		logger:        log.With("component", "webhook"),
	}
}

// Router builds the HTTP routes for the webhook server.
func (w *Webhook) Router(log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(logger.Middleware(log))

	r.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	r.Post("/callback", w.handleCallback)

	return r
}

func (w *Webhook) handleCallback(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	req.Body = http.MaxBytesReader(rw, req.Body, maxWebhookBody)
	cb, err := webhook.ParseRequest(w.channelSecret, req)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			w.logger.WarnContext(ctx, "Rejected webhook delivery with bad signature")
		} else {
			w.logger.WarnContext(ctx, "Failed to parse webhook delivery", "error", err)
		}
		rw.WriteHeader(http.StatusBadRequest)
		return
	}

	for _, event := range cb.Events {
		w.dispatch(ctx, event)
	}

	rw.WriteHeader(http.StatusOK)
}

// dispatch hands one event to the dialogue controller on its own goroutine.
// The delivery is acknowledged without waiting; a full semaphore drops the
// event rather than stalling the webhook response past LINE's retry window.
func (w *Webhook) dispatch(ctx context.Context, event webhook.EventInterface) {
	var (
		userID string
		run    func(context.Context)
	)

	switch e := event.(type) {
	case webhook.MessageEvent:
		text, ok := e.Message.(webhook.TextMessageContent)
		if !ok {
			w.logger.DebugContext(ctx, "Ignoring unsupported message content")
			return
		}
		userID = sourceUserID(e.Source)
		ev := dialogue.TextMessage{UserID: userID, ReplyToken: e.ReplyToken, Text: text.Text}
		run = func(taskCtx context.Context) { w.controller.HandleText(taskCtx, ev) }

	case webhook.PostbackEvent:
		if e.Postback == nil {
			return
		}
		userID = sourceUserID(e.Source)
		ev := dialogue.Postback{UserID: userID, ReplyToken: e.ReplyToken, Data: e.Postback.Data}
		run = func(taskCtx context.Context) { w.controller.HandlePostback(taskCtx, ev) }

	default:
		w.logger.DebugContext(ctx, "Ignoring unsupported event")
		return
	}

	if userID == "" {
		return
	}

	if !w.sem.TryAcquire(1) {
		w.logger.WarnContext(ctx, "Handler limit reached, dropping event", "user_id", userID)
		return
	}

	// Detached from the request context: once accepted, an event runs to
	// completion even after the delivery has been acknowledged.
	taskCtx := context.WithoutCancel(ctx)

	go func() {
		defer w.sem.Release(1)
		run(taskCtx)
	}()
}

// sourceUserID extracts the acting user id from any event source kind.
func sourceUserID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	}
	return ""
}
