package models

// EventKind distinguishes the two inbound event shapes.
type EventKind string

const (
	EventText     EventKind = "text"
	EventCallback EventKind = "callback"
)

// MessageRef identifies a previously sent message so it can be edited.
// On text-only channels the ID is empty and edits are sent as new messages.
type MessageRef struct {
	UserID    int64  `json:"user_id"`
	MessageID string `json:"message_id,omitempty"`
}

// TextMessage is a free-form message typed by the user.
type TextMessage struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

// CallbackEvent is an inline button press.
type CallbackEvent struct {
	UserID     int64      `json:"user_id"`
	CallbackID string     `json:"callback_id"`
	Data       string     `json:"data"`
	MessageRef MessageRef `json:"message_ref"`
}

// Event is the envelope transports emit. Exactly one of Text and Callback is set,
// matching Kind. MessageID is the transport's own id used for deduplication.
type Event struct {
	Kind      EventKind      `json:"kind"`
	MessageID string         `json:"message_id,omitempty"`
	Text      *TextMessage   `json:"text,omitempty"`
	Callback  *CallbackEvent `json:"callback,omitempty"`
	Time      int64          `json:"time"`
}

// UserID returns the id of the user who produced the event.
func (e Event) UserID() int64 {
	switch {
	case e.Text != nil:
		return e.Text.UserID
	case e.Callback != nil:
		return e.Callback.UserID
	default:
		return 0
	}
}

// KeyboardKind tells how a keyboard is attached to a message.
type KeyboardKind string

const (
	// KeyboardReply is a persistent menu whose buttons send their label as text.
	KeyboardReply KeyboardKind = "reply"
	// KeyboardInline is attached to one message; buttons produce callback events.
	KeyboardInline KeyboardKind = "inline"
)

// Button is a single keyboard button. Data is only meaningful for inline keyboards.
type Button struct {
	Label string `json:"label"`
	Data  string `json:"data,omitempty"`
}

// Keyboard is a grid of buttons, row by row.
type Keyboard struct {
	Kind KeyboardKind `json:"kind"`
	Rows [][]Button   `json:"rows"`
}

// ReplyKeyboard builds a reply keyboard from rows of labels.
func ReplyKeyboard(rows ...[]string) *Keyboard {
	kb := &Keyboard{Kind: KeyboardReply}
	for _, row := range rows {
		buttons := make([]Button, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, Button{Label: label})
		}
		kb.Rows = append(kb.Rows, buttons)
	}
	return kb
}

// InlineKeyboard builds an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]Button) *Keyboard {
	return &Keyboard{Kind: KeyboardInline, Rows: rows}
}
