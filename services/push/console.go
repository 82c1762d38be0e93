package pushsvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/njitshpe/shpe-app-sub007/core"
	"github.com/njitshpe/shpe-app-sub007/core/notification"
)

// ConsolePusher logs push messages instead of sending them. Used in DEV and tests.
type ConsolePusher struct {
	logger        core.Logger
	disableOutput bool

	mu   sync.Mutex
	sent []notification.PushMessage
}

var _ notification.Pusher = (*ConsolePusher)(nil)

func NewConsolePusher(logger core.Logger) *ConsolePusher {
	return &ConsolePusher{logger: logger}
}

func NewConsolePusherMock(logger core.Logger) *ConsolePusher {
	return &ConsolePusher{logger: logger, disableOutput: true}
}

func (p *ConsolePusher) Push(_ context.Context, msgs []notification.PushMessage) ([]notification.PushTicket, error) {
	tickets := make([]notification.PushTicket, 0, len(msgs))
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, msg := range msgs {
		if !p.disableOutput {
			p.logger.Info(fmt.Sprintf("push to %s: %s - %s %v", msg.To, msg.Title, msg.Body, msg.Data))
		}
		p.sent = append(p.sent, msg)
		tickets = append(tickets, notification.PushTicket{Status: notification.StatusOK, ID: uuid.New().String()})
	}
	return tickets, nil
}

// Sent returns a copy of every message pushed so far.
func (p *ConsolePusher) Sent() []notification.PushMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notification.PushMessage(nil), p.sent...)
}
