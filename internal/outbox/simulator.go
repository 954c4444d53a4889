package outbox

import (
	"context"
	"time"

	"github.com/matheus3301/teamspace/internal/status"
	"github.com/matheus3301/teamspace/internal/timers"
	"go.uber.org/zap"
)

// DefaultDelay is how long a message stays in "sending" before the simulated
// delivery completes.
const DefaultDelay = time.Second

const deliverTimeout = 5 * time.Second

// Envelope identifies a message handed to the outbox.
type Envelope struct {
	ConversationID string
	MessageID      string
	SenderID       string
	Content        string
}

// Transport performs the actual delivery of a message.
type Transport interface {
	Deliver(ctx context.Context, env Envelope) error
}

// Loopback is a Transport with no backend; every delivery succeeds.
type Loopback struct{}

// Deliver implements Transport.
func (Loopback) Deliver(context.Context, Envelope) error { return nil }

// Simulator fakes a send pipeline: each dispatched message is delivered after a
// fixed delay on its own timer. Timers are keyed by conversation and message so
// deleting a conversation can cancel them.
type Simulator struct {
	timers    *timers.Registry
	transport Transport
	delay     time.Duration
	logger    *zap.Logger
}

// NewSimulator creates a simulator. A nil transport means Loopback and a
// non-positive delay means DefaultDelay.
func NewSimulator(reg *timers.Registry, transport Transport, delay time.Duration, logger *zap.Logger) *Simulator {
	if transport == nil {
		transport = Loopback{}
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulator{
		timers:    reg,
		transport: transport,
		delay:     delay,
		logger:    logger,
	}
}

// Key is the timer key for a message.
func Key(conversationID, messageID string) string {
	return conversationID + "/" + messageID
}

// Dispatch schedules delivery of env. When the timer fires, done receives
// Delivered on success or Errored when the transport fails.
func (s *Simulator) Dispatch(env Envelope, done func(status.Delivery)) {
	s.timers.Schedule(Key(env.ConversationID, env.MessageID), s.delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		defer cancel()

		if err := s.transport.Deliver(ctx, env); err != nil {
			s.logger.Error("message delivery failed",
				zap.Error(err),
				zap.String("conversation_id", env.ConversationID),
				zap.String("message_id", env.MessageID))
			done(status.Errored)
			return
		}
		s.logger.Debug("message delivered",
			zap.String("conversation_id", env.ConversationID),
			zap.String("message_id", env.MessageID))
		done(status.Delivered)
	})
}

// Cancel drops every pending delivery for a conversation.
func (s *Simulator) Cancel(conversationID string) int {
	n := s.timers.CancelPrefix(conversationID + "/")
	if n > 0 {
		s.logger.Info("cancelled pending deliveries",
			zap.String("conversation_id", conversationID),
			zap.Int("count", n))
	}
	return n
}

// Delay reports the configured delivery delay.
func (s *Simulator) Delay() time.Duration {
	return s.delay
}
