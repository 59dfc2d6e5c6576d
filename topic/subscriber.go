package topic

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

var _ Observer = (*Subscriber)(nil)

// Report is the outcome of one Subscriber.Update.
type Report struct {
	Subscriber string
	Message    string
	Received   bool
}

func (r Report) String() string {
	if !r.Received {
		return r.Subscriber + ": no new message"
	}
	return fmt.Sprintf("%s: received message %s", r.Subscriber, r.Message)
}

// SubscriberOption configures a Subscriber at construction.
type SubscriberOption func(*Subscriber)

// WithOutput sets where Update writes its one-line report. Defaults to
// io.Discard.
func WithOutput(w io.Writer) SubscriberOption {
	return func(s *Subscriber) {
		if w != nil {
			s.out = w
		}
	}
}

// WithSubscriberLogger sets the logger for subscription debug logs.
func WithSubscriberLogger(logger *slog.Logger) SubscriberOption {
	return func(s *Subscriber) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Subscriber is a named Observer that pulls the current message from the
// subject it is subscribed to and reports what it found.
type Subscriber struct {
	id   string
	name string

	subject Subject
	last    Report
	updates int
	mu      sync.Mutex

	out    io.Writer
	logger *slog.Logger
}

// NewSubscriber creates an unsubscribed Subscriber.
func NewSubscriber(name string, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		id:     uuid.Must(uuid.NewV7()).String(),
		name:   name,
		out:    io.Discard,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Subscriber) ID() string {
	return s.id
}

func (s *Subscriber) Name() string {
	return s.name
}

// Subscribe points s at subject, replacing any previous subject. A nil
// subject unsubscribes. Registry membership is left unchanged.
func (s *Subscriber) Subscribe(subject Subject) {
	if isNil(subject) {
		subject = nil
	}

	s.mu.Lock()
	s.subject = subject
	s.mu.Unlock()

	s.logger.DebugContext(
		context.Background(),
		"subscriber subject changed",
		slog.String("subscriber", s.name),
		slog.Bool("subscribed", subject != nil),
	)
}

// Unsubscribe clears the subject reference. The subscriber stays in any
// registry it was added to and keeps receiving Update calls, which then
// report no new message.
func (s *Subscriber) Unsubscribe() {
	s.Subscribe(nil)
}

// Subject returns the current subject, or nil when unsubscribed.
func (s *Subscriber) Subject() Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subject
}

// Subscribed reports whether a subject reference is set.
func (s *Subscriber) Subscribed() bool {
	return s.Subject() != nil
}

// Update pulls the current message from the subscribed subject, records the
// outcome and writes it to the output. A write failure is returned.
func (s *Subscriber) Update() error {
	subject := s.Subject()

	report := Report{Subscriber: s.name}
	if subject != nil {
		report.Message, report.Received = subject.GetUpdate(s)
	}

	s.mu.Lock()
	s.last = report
	s.updates++
	s.mu.Unlock()

	if _, err := fmt.Fprintln(s.out, report); err != nil {
		return fmt.Errorf("subscriber %s: failed to write report: %w", s.name, err)
	}
	return nil
}

// LastReport returns the outcome of the most recent Update. The bool is
// false if Update has never been called.
func (s *Subscriber) LastReport() (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.updates > 0
}

// Updates returns how many times Update has been called.
func (s *Subscriber) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}
