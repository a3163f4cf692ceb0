package flow

import (
	"context"
	"fmt"
	"sync"

	"github.com/BTreeMap/WellbeingBot/internal/models"
)

type outbound struct {
	Op       string // send, edit, answer
	UserID   int64
	Text     string
	Keyboard *models.Keyboard
	Callback string
}

// recordingResponder captures everything the bot sends.
type recordingResponder struct {
	mu      sync.Mutex
	out     []outbound
	sendErr error
	sent    chan outbound
}

func newRecordingResponder() *recordingResponder {
	return &recordingResponder{sent: make(chan outbound, 64)}
}

func (r *recordingResponder) record(o outbound) {
	r.mu.Lock()
	r.out = append(r.out, o)
	r.mu.Unlock()
	select {
	case r.sent <- o:
	default:
	}
}

func (r *recordingResponder) SendMessage(ctx context.Context, userID int64, text string, kb *models.Keyboard) (models.MessageRef, error) {
	r.mu.Lock()
	err := r.sendErr
	r.mu.Unlock()
	if err != nil {
		return models.MessageRef{}, err
	}
	r.record(outbound{Op: "send", UserID: userID, Text: text, Keyboard: kb})
	return models.MessageRef{UserID: userID, MessageID: fmt.Sprintf("m%d", len(r.messages()))}, nil
}

func (r *recordingResponder) EditMessage(ctx context.Context, ref models.MessageRef, text string) error {
	r.record(outbound{Op: "edit", UserID: ref.UserID, Text: text})
	return nil
}

func (r *recordingResponder) AnswerCallback(ctx context.Context, callbackID, text string) error {
	r.record(outbound{Op: "answer", Text: text, Callback: callbackID})
	return nil
}

func (r *recordingResponder) messages() []outbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]outbound(nil), r.out...)
}

func (r *recordingResponder) reset() {
	r.mu.Lock()
	r.out = nil
	r.mu.Unlock()
	for {
		select {
		case <-r.sent:
		default:
			return
		}
	}
}

func textEvent(userID int64, text string) models.Event {
	return models.Event{Kind: models.EventText, Text: &models.TextMessage{UserID: userID, Text: text}}
}

func callbackEvent(userID int64, data string) models.Event {
	return models.Event{Kind: models.EventCallback, Callback: &models.CallbackEvent{
		UserID:     userID,
		CallbackID: "cb-" + data,
		Data:       data,
		MessageRef: models.MessageRef{UserID: userID, MessageID: "m1"},
	}}
}
