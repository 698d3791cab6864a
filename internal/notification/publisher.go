package notification

import (
	"context"
	"log/slog"
	"time"

	id "campusvoice/pkg/domain"
	dErrors "campusvoice/pkg/domain-errors"
	"campusvoice/pkg/requestcontext"
)

// Sink mirrors persisted notifications to an external system (Kafka in
// production, a recording fake in tests). Mirroring is best effort; sink
// failures never fail the user operation.
type Sink interface {
	Publish(ctx context.Context, n Notification)
}

// Publisher persists notifications and optionally mirrors them. With an async
// buffer configured, Emit enqueues and a background worker persists, so
// notification writes stay off the request path.
type Publisher struct {
	store  Store
	sink   Sink
	logger *slog.Logger

	inbox chan Notification
	done  chan struct{}
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithSink mirrors every notification to the given sink.
func WithSink(sink Sink) Option {
	return func(p *Publisher) { p.sink = sink }
}

// WithAsyncBuffer switches Emit to enqueue into a buffered channel drained by
// a background worker. A full buffer falls back to a synchronous write.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) { p.inbox = make(chan Notification, size) }
}

func NewPublisher(store Store, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: logger, done: make(chan struct{})}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		go p.run()
	}
	return p
}

// Emit stores a notification for its recipient. Missing IDs and timestamps
// are filled in; the request-scoped clock is used when present.
func (p *Publisher) Emit(ctx context.Context, n Notification) error {
	if n.UserID.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "notification recipient is required")
	}
	if n.ID == (id.NotificationID{}) {
		n.ID = id.NewNotificationID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = requestcontext.Now(ctx)
	}

	if p.inbox != nil {
		select {
		case p.inbox <- n:
			return nil
		default:
			// Buffer full; write synchronously rather than drop.
		}
	}
	return p.persist(context.WithoutCancel(ctx), n)
}

func (p *Publisher) persist(ctx context.Context, n Notification) error {
	if err := p.store.Append(ctx, n); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store notification")
	}
	if p.sink != nil {
		p.sink.Publish(ctx, n)
	}
	return nil
}

func (p *Publisher) run() {
	defer close(p.done)
	for n := range p.inbox {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := p.persist(ctx, n); err != nil {
			p.logger.Error("failed to persist notification",
				"error", err,
				"user_id", n.UserID.String(),
				"type", string(n.Type),
			)
		}
		cancel()
	}
}

// Close drains the async worker. Safe to call in sync mode.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	close(p.inbox)
	<-p.done
}
