package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/BTreeMap/WellbeingBot/internal/models"
	"github.com/BTreeMap/WellbeingBot/internal/store"
)

const (
	// DefaultShardCount is the number of per-user ordered workers.
	DefaultShardCount = 8
	// DefaultErrorMessage is sent to the user when handling an event fails.
	DefaultErrorMessage = "⚠️ Something went wrong while processing your message. Please try again."
)

// EventHandler processes one inbound event.
type EventHandler interface {
	HandleEvent(ctx context.Context, evt models.Event) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, evt models.Event) error

func (f EventHandlerFunc) HandleEvent(ctx context.Context, evt models.Event) error {
	return f(ctx, evt)
}

// callbackReleaser is implemented by services that track pending callback ids
// until they are answered.
type callbackReleaser interface {
	ReleaseCallback(callbackID string)
}

// ResponseHandler reads a Service's events and hands them to an EventHandler.
// Events are hashed by user id onto shards, so one user's events are handled in
// order while different users proceed in parallel.
type ResponseHandler struct {
	msgService   Service
	handler      EventHandler
	dedup        store.DedupRepo
	shardCount   int
	errorMessage string

	shards []chan models.Event
	wg     sync.WaitGroup
}

// HandlerOption configures a ResponseHandler.
type HandlerOption func(*ResponseHandler)

// WithDedup drops events whose transport message id was already recorded.
func WithDedup(repo store.DedupRepo) HandlerOption {
	return func(rh *ResponseHandler) { rh.dedup = repo }
}

// WithShardCount sets the number of workers. Values below 1 are ignored.
func WithShardCount(n int) HandlerOption {
	return func(rh *ResponseHandler) {
		if n > 0 {
			rh.shardCount = n
		}
	}
}

// WithErrorMessage overrides the apology sent when handling fails.
func WithErrorMessage(msg string) HandlerOption {
	return func(rh *ResponseHandler) { rh.errorMessage = msg }
}

// NewResponseHandler creates a ResponseHandler for msgService.
func NewResponseHandler(msgService Service, handler EventHandler, opts ...HandlerOption) *ResponseHandler {
	rh := &ResponseHandler{
		msgService:   msgService,
		handler:      handler,
		shardCount:   DefaultShardCount,
		errorMessage: DefaultErrorMessage,
	}
	for _, opt := range opts {
		opt(rh)
	}
	return rh
}

func (rh *ResponseHandler) shardFor(userID int64) int {
	return int(uint64(userID) % uint64(rh.shardCount))
}

// Start launches the dispatcher and the shard workers. They stop when the
// event channel closes or ctx is cancelled; Wait blocks until they have.
func (rh *ResponseHandler) Start(ctx context.Context) {
	slog.Info("ResponseHandler starting event processing", "shards", rh.shardCount)

	rh.shards = make([]chan models.Event, rh.shardCount)
	for i := range rh.shards {
		rh.shards[i] = make(chan models.Event, DefaultChannelBufferSize)
		rh.wg.Add(1)
		go rh.worker(ctx, rh.shards[i])
	}

	rh.wg.Add(1)
	go func() {
		defer rh.wg.Done()
		defer func() {
			for _, ch := range rh.shards {
				close(ch)
			}
			slog.Info("ResponseHandler stopped event processing")
		}()

		events := rh.msgService.Events()
		for {
			select {
			case evt, ok := <-events:
				if !ok {
					slog.Debug("ResponseHandler events channel closed")
					return
				}
				select {
				case rh.shards[rh.shardFor(evt.UserID())] <- evt:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				slog.Debug("ResponseHandler stopping due to context cancellation")
				return
			}
		}
	}()
}

// Wait blocks until the dispatcher and all workers have exited.
func (rh *ResponseHandler) Wait() {
	rh.wg.Wait()
}

func (rh *ResponseHandler) worker(ctx context.Context, in <-chan models.Event) {
	defer rh.wg.Done()
	for evt := range in {
		if ctx.Err() != nil {
			continue
		}
		if err := rh.ProcessEvent(ctx, evt); err != nil {
			slog.Error("ResponseHandler failed to process event", "error", err, "userID", evt.UserID())
		}
	}
}

// ProcessEvent handles one event synchronously: deduplicate, dispatch, and on
// failure send the user an apology. A failed message is forgotten by the dedup
// repo so a redelivery is retried. The event's callback id is released once
// the event is done, whether or not the handler answered it.
func (rh *ResponseHandler) ProcessEvent(ctx context.Context, evt models.Event) error {
	if evt.Callback != nil {
		if r, ok := rh.msgService.(callbackReleaser); ok {
			defer r.ReleaseCallback(evt.Callback.CallbackID)
		}
	}

	userID := evt.UserID()
	if userID <= 0 {
		return fmt.Errorf("%w: event without sender", models.ErrInvalidUserID)
	}

	tracked := false
	if rh.dedup != nil && evt.MessageID != "" {
		fresh, err := rh.dedup.RecordInbound(ctx, evt.MessageID, userID)
		if err != nil {
			slog.Warn("ResponseHandler dedup record failed, processing anyway", "error", err, "messageID", evt.MessageID)
		} else if !fresh {
			slog.Info("ResponseHandler dropping duplicate event", "userID", userID, "messageID", evt.MessageID)
			return nil
		} else {
			tracked = true
		}
	}

	slog.Debug("ResponseHandler processing event", "userID", userID, "kind", evt.Kind)
	if err := rh.handler.HandleEvent(ctx, evt); err != nil {
		if tracked {
			if fErr := rh.dedup.ForgetInbound(ctx, evt.MessageID); fErr != nil {
				slog.Warn("ResponseHandler dedup forget failed", "error", fErr, "messageID", evt.MessageID)
			}
		}
		if _, sendErr := rh.msgService.SendMessage(ctx, userID, rh.errorMessage, nil); sendErr != nil {
			slog.Error("ResponseHandler failed to send error message", "error", sendErr, "userID", userID)
		}
		return fmt.Errorf("handle event: %w", err)
	}
	if tracked {
		if err := rh.dedup.MarkProcessed(ctx, evt.MessageID); err != nil {
			slog.Warn("ResponseHandler dedup mark failed", "error", err, "messageID", evt.MessageID)
		}
	}
	return nil
}
