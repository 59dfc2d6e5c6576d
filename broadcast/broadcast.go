// Package broadcast is the driver for a topic and its subscribers. It builds
// the topic and every configured subscriber, wires registration and
// subscription as the config describes, and runs a posting session.
//
//	rt, err := broadcast.New(&cfg, broadcast.WithOutput(os.Stdout))
//	result, err := rt.Run(ctx)
package broadcast

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tailored-agentic-units/broadcast/observability"
	"github.com/tailored-agentic-units/broadcast/topic"
)

// Delivery records what one subscriber saw during Run.
type Delivery struct {
	Subscriber string
	Registered bool
	Subscribed bool
	Notified   bool
	Report     topic.Report // zero unless Notified
}

func (d Delivery) String() string {
	if !d.Notified {
		return d.Subscriber + ": not notified"
	}
	return d.Report.String()
}

// Result holds the outcome of a Run.
type Result struct {
	Message    string
	Deliveries []Delivery
}

// Notified returns how many subscribers were notified.
func (r *Result) Notified() int {
	n := 0
	for _, d := range r.Deliveries {
		if d.Notified {
			n++
		}
	}
	return n
}

// Option configures a Runtime before its topic and subscribers are built.
type Option func(*Runtime)

// WithLogger sets the logger passed to the topic and subscribers.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver overrides the telemetry sink named in the topic config.
func WithObserver(o observability.Observer) Option {
	return func(r *Runtime) { r.observer = o }
}

// WithOutput sets where subscribers write their reports.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) { r.out = w }
}

// Runtime owns one topic and the subscribers built from configuration.
type Runtime struct {
	topic       *topic.Topic
	subscribers []*topic.Subscriber
	message     string

	logger   *slog.Logger
	observer observability.Observer
	out      io.Writer
}

// New creates a Runtime from configuration.
func New(cfg *Config, opts ...Option) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	r := &Runtime{
		message: cfg.Message,
		logger:  slog.Default(),
		out:     io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}

	topicOpts := []topic.Option{topic.WithLogger(r.logger)}
	if r.observer != nil {
		topicOpts = append(topicOpts, topic.WithObserver(r.observer))
	}

	t, err := topic.New(&cfg.Topic, topicOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}
	r.topic = t

	for _, sc := range cfg.Subscribers {
		s := topic.NewSubscriber(
			sc.Name,
			topic.WithOutput(r.out),
			topic.WithSubscriberLogger(r.logger),
		)
		if !sc.SkipRegister {
			if err := t.RegisterObserver(s); err != nil {
				return nil, fmt.Errorf("failed to register subscriber %q: %w", sc.Name, err)
			}
		}
		if !sc.SkipSubscribe {
			s.Subscribe(t)
		}
		r.subscribers = append(r.subscribers, s)
	}

	return r, nil
}

// Topic returns the runtime's topic.
func (r *Runtime) Topic() *topic.Topic {
	return r.topic
}

// Subscribers returns the configured subscribers in config order.
func (r *Runtime) Subscribers() []*topic.Subscriber {
	return r.subscribers
}

// Run posts the configured message and collects each subscriber's outcome.
// An observer failure is returned along with the partial result.
func (r *Runtime) Run(ctx context.Context) (*Result, error) {
	return r.Post(ctx, r.message)
}

// Post posts msg to the topic and collects each subscriber's outcome.
func (r *Runtime) Post(ctx context.Context, msg string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	before := make([]int, len(r.subscribers))
	for i, s := range r.subscribers {
		before[i] = s.Updates()
	}

	r.logger.DebugContext(
		ctx,
		"posting message",
		slog.String("topic", r.topic.Name()),
		slog.Int("subscribers", len(r.subscribers)),
		slog.Int("registered", r.topic.Len()),
	)

	postErr := r.topic.PostMessage(msg)

	result := &Result{Message: msg}
	for i, s := range r.subscribers {
		d := Delivery{
			Subscriber: s.Name(),
			Registered: r.topic.Registered(s),
			Subscribed: s.Subscribed(),
		}
		if s.Updates() > before[i] {
			d.Notified = true
			d.Report, _ = s.LastReport()
		}
		result.Deliveries = append(result.Deliveries, d)
	}

	if postErr != nil {
		return result, fmt.Errorf("post failed: %w", postErr)
	}
	return result, nil
}
