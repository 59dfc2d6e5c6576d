package topic

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tailored-agentic-units/broadcast/observability"
)

var _ Subject = (*Topic)(nil)

// Option configures a Topic at construction.
type Option func(*Topic)

// WithLogger sets the logger used for registry and notification debug logs.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Topic) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithObserver sets the telemetry sink for topic events.
func WithObserver(o observability.Observer) Option {
	return func(t *Topic) {
		if o != nil {
			t.observer = o
		}
	}
}

// Topic is the Subject of an email-style subscription list: it holds the
// latest posted message and the observers to notify when it changes.
type Topic struct {
	id   string
	name string

	observers []Observer
	message   string
	posted    bool
	mu        sync.RWMutex

	logger   *slog.Logger
	observer observability.Observer
}

// NewTopic creates an empty Topic with no message. The topic is assigned a
// unique UUIDv7 identifier.
func NewTopic(name string, opts ...Option) *Topic {
	t := &Topic{
		id:       uuid.Must(uuid.NewV7()).String(),
		name:     name,
		logger:   slog.Default(),
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Topic) ID() string {
	return t.id
}

func (t *Topic) Name() string {
	return t.name
}

func (t *Topic) String() string {
	return fmt.Sprintf("Topic{Name: %s, ID: %s}", t.name, t.id)
}

// Observers returns a copy of the registry in registration order.
func (t *Topic) Observers() []Observer {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.observers)
}

// Len returns the number of registered observers.
func (t *Topic) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.observers)
}

// Registered reports whether o is in the registry.
func (t *Topic) Registered(o Observer) bool {
	if isNil(o) || !isComparable(o) {
		return false
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Contains(t.observers, o)
}

// RegisterObserver appends o to the registry. Registering an observer that
// is already present is a no-op. Observers are compared by identity, so the
// dynamic type of o must be comparable.
func (t *Topic) RegisterObserver(o Observer) error {
	if isNil(o) {
		return ErrNilObserver
	}
	if !isComparable(o) {
		return errors.Wrapf(ErrUncomparableObserver, "%T", o)
	}

	t.mu.Lock()
	if slices.Contains(t.observers, o) {
		t.mu.Unlock()
		return nil
	}
	t.observers = append(t.observers, o)
	count := len(t.observers)
	t.mu.Unlock()

	ctx := context.Background()
	t.logger.DebugContext(
		ctx,
		"observer registered",
		slog.String("topic", t.name),
		slog.String("observer", describe(o)),
		slog.Int("observers", count),
	)
	t.emit(ctx, EventRegister, observability.LevelVerbose, "RegisterObserver", map[string]any{
		"observer":  describe(o),
		"observers": count,
	})

	return nil
}

// UnregisterObserver removes o from the registry. Absent, nil and
// uncomparable observers are ignored.
func (t *Topic) UnregisterObserver(o Observer) {
	if isNil(o) || !isComparable(o) {
		return
	}

	t.mu.Lock()
	i := slices.Index(t.observers, o)
	if i < 0 {
		t.mu.Unlock()
		return
	}
	t.observers = slices.Delete(t.observers, i, i+1)
	count := len(t.observers)
	t.mu.Unlock()

	ctx := context.Background()
	t.logger.DebugContext(
		ctx,
		"observer unregistered",
		slog.String("topic", t.name),
		slog.String("observer", describe(o)),
		slog.Int("observers", count),
	)
	t.emit(ctx, EventUnregister, observability.LevelVerbose, "UnregisterObserver", map[string]any{
		"observer":  describe(o),
		"observers": count,
	})
}

// PostMessage stores msg as the current message and notifies observers.
func (t *Topic) PostMessage(msg string) error {
	t.mu.Lock()
	t.message = msg
	t.posted = true
	t.mu.Unlock()

	t.emit(context.Background(), EventPost, observability.LevelInfo, "PostMessage", map[string]any{
		"length": len(msg),
	})

	return t.NotifyObservers()
}

// NotifyObservers calls Update on a snapshot of the registry in
// registration order. The first failing observer aborts the pass; its
// error is returned wrapped with its position.
func (t *Topic) NotifyObservers() error {
	t.mu.RLock()
	observers := slices.Clone(t.observers)
	t.mu.RUnlock()

	ctx := context.Background()
	t.emit(ctx, EventNotifyStart, observability.LevelVerbose, "NotifyObservers", map[string]any{
		"observers": len(observers),
	})

	for i, o := range observers {
		if err := o.Update(); err != nil {
			t.logger.WarnContext(
				ctx,
				"observer update failed",
				slog.String("topic", t.name),
				slog.String("observer", describe(o)),
				slog.Int("notified", i),
				slog.Int("skipped", len(observers)-i-1),
				slog.String("error", err.Error()),
			)
			t.emit(ctx, EventNotifyError, observability.LevelError, "NotifyObservers", map[string]any{
				"observer": describe(o),
				"notified": i,
				"skipped":  len(observers) - i - 1,
				"error":    err.Error(),
			})
			return errors.Wrapf(err, "notify observer %d of %d (%s)", i+1, len(observers), describe(o))
		}
	}

	t.emit(ctx, EventNotifyComplete, observability.LevelVerbose, "NotifyObservers", map[string]any{
		"notified": len(observers),
	})

	return nil
}

// GetUpdate returns the current message. The bool is false until the first
// PostMessage.
func (t *Topic) GetUpdate(Observer) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.message, t.posted
}

func (t *Topic) emit(ctx context.Context, typ observability.EventType, level observability.Level, op string, data map[string]any) {
	observability.Emit(ctx, t.observer, observability.Event{
		Type:   typ,
		Level:  level,
		Source: t.name + "." + op,
		Data:   data,
	})
}

func describe(o Observer) string {
	if s, ok := o.(interface{ Name() string }); ok {
		return s.Name()
	}
	return fmt.Sprintf("%T", o)
}
