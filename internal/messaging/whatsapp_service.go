package messaging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/BTreeMap/WellbeingBot/internal/whatsapp"
)

// WhatsAppService implements Service using the Whatsmeow-based whatsapp client.
type WhatsAppService struct {
	*textChannel
	client    whatsapp.WhatsAppSender
	startOnce sync.Once
}

// NewWhatsAppService creates a new WhatsAppService wrapping the given WhatsAppSender.
func NewWhatsAppService(client whatsapp.WhatsAppSender) *WhatsAppService {
	return &WhatsAppService{
		textChannel: newTextChannel("WhatsAppService", client.SendMessage),
		client:      client,
	}
}

// Start subscribes to inbound WhatsApp messages.
func (s *WhatsAppService) Start(ctx context.Context) error {
	s.startOnce.Do(func() {
		s.client.OnMessage(func(msg whatsapp.InboundMessage) {
			s.emit(msg.ID, msg.From, msg.Text, msg.Time)
		})
		slog.Debug("WhatsAppService event handler registered")
	})
	return nil
}

// Stop closes the event channel and disconnects the client.
func (s *WhatsAppService) Stop() error {
	slog.Info("WhatsAppService Stop invoked")
	s.stop()
	s.client.Close()
	return nil
}
