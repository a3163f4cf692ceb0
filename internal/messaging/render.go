package messaging

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BTreeMap/WellbeingBot/internal/models"
	"github.com/BTreeMap/WellbeingBot/internal/util"
)

const (
	// CallbackPrefix marks an inbound text as a button press on text-only channels.
	CallbackPrefix = "!"
	menuHeader     = "Menu:"
	inlineArrow    = "  ->  reply "
)

// RenderText appends a text rendering of kb to text. Reply keyboards become a
// "Menu:" block with one label per line; inline buttons become
// "label  ->  reply !data" lines.
func RenderText(text string, kb *models.Keyboard) string {
	if kb == nil || len(kb.Rows) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n")
	if kb.Kind == models.KeyboardReply {
		b.WriteString("\n")
		b.WriteString(menuHeader)
	}
	for _, row := range kb.Rows {
		for _, btn := range row {
			b.WriteString("\n")
			if kb.Kind == models.KeyboardInline {
				b.WriteString(btn.Label + inlineArrow + CallbackPrefix + btn.Data)
			} else {
				b.WriteString(btn.Label)
			}
		}
	}
	return b.String()
}

// UserIDFromPhone derives the numeric user id from a phone number in any of the
// forms transports use ("+1 555...", "whatsapp:+1555...", "1555...").
func UserIDFromPhone(phone string) (int64, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return 0, fmt.Errorf("%w: no digits in %q", models.ErrInvalidUserID, phone)
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidUserID, phone)
	}
	return id, nil
}

// PhoneFromUserID is the inverse of UserIDFromPhone, without a leading "+".
func PhoneFromUserID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// ParseInbound turns a raw text-channel message into an event. Text starting
// with "!" followed by data is a callback with a fresh callback id.
func ParseInbound(messageID, from, text string, at time.Time) (models.Event, error) {
	userID, err := UserIDFromPhone(from)
	if err != nil {
		return models.Event{}, err
	}
	if strings.TrimSpace(text) == "" {
		return models.Event{}, models.ErrEmptyMessageText
	}
	if at.IsZero() {
		at = time.Now()
	}

	trimmed := strings.TrimSpace(text)
	if data, ok := strings.CutPrefix(trimmed, CallbackPrefix); ok && data != "" {
		return models.Event{
			Kind:      models.EventCallback,
			MessageID: messageID,
			Callback: &models.CallbackEvent{
				UserID:     userID,
				CallbackID: util.GenerateCallbackID(),
				Data:       strings.TrimSpace(data),
				MessageRef: models.MessageRef{UserID: userID},
			},
			Time: at.Unix(),
		}, nil
	}
	return models.Event{
		Kind:      models.EventText,
		MessageID: messageID,
		Text:      &models.TextMessage{UserID: userID, Text: text},
		Time:      at.Unix(),
	}, nil
}
