package topic_test

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/broadcast/observability"
	"github.com/tailored-agentic-units/broadcast/topic"
)

// counter counts Update calls and optionally fails.
type counter struct {
	name  string
	calls int
	err   error
	order *[]string
}

func (c *counter) Update() error {
	c.calls++
	if c.order != nil {
		*c.order = append(*c.order, c.name)
	}
	return c.err
}

func (c *counter) Subscribe(topic.Subject) {}

func (c *counter) Name() string { return c.name }

type sliceObserver []int

func (sliceObserver) Update() error           { return nil }
func (sliceObserver) Subscribe(topic.Subject) {}

// boxObserver has a comparable type but holds its payload in an interface
// field, so comparability depends on the value.
type boxObserver struct {
	payload any
}

func (boxObserver) Update() error           { return nil }
func (boxObserver) Subscribe(topic.Subject) {}

func TestNewTopic(t *testing.T) {
	tp := topic.NewTopic("newsletter")

	assert.Equal(t, "newsletter", tp.Name())
	assert.NotEmpty(t, tp.ID())
	assert.Zero(t, tp.Len())

	msg, ok := tp.GetUpdate(nil)
	assert.False(t, ok, "no message should be posted yet")
	assert.Empty(t, msg)
}

func TestTopic_ID_Unique(t *testing.T) {
	assert.NotEqual(t, topic.NewTopic("a").ID(), topic.NewTopic("a").ID())
}

func TestTopic_RegisterObserver_Idempotent(t *testing.T) {
	tp := topic.NewTopic("newsletter")
	obs := &counter{name: "first"}

	for range 3 {
		require.NoError(t, tp.RegisterObserver(obs))
	}

	assert.Equal(t, 1, tp.Len())
	require.NoError(t, tp.NotifyObservers())
	assert.Equal(t, 1, obs.calls, "duplicate registration must not duplicate notification")
}

func TestTopic_RegisterObserver_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		obs     topic.Observer
		wantErr error
	}{
		{name: "nil interface", obs: nil, wantErr: topic.ErrNilObserver},
		{name: "typed nil subscriber", obs: (*topic.Subscriber)(nil), wantErr: topic.ErrNilObserver},
		{name: "typed nil hook", obs: (*topic.Hook)(nil), wantErr: topic.ErrNilObserver},
		{name: "uncomparable type", obs: sliceObserver{1}, wantErr: topic.ErrUncomparableObserver},
		{name: "uncomparable value in interface field", obs: boxObserver{payload: []int{1}}, wantErr: topic.ErrUncomparableObserver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := topic.NewTopic("newsletter")
			for range 2 {
				err := tp.RegisterObserver(tt.obs)
				require.ErrorIs(t, err, tt.wantErr)
			}
			assert.Zero(t, tp.Len())
			assert.False(t, tp.Registered(tt.obs))
			tp.UnregisterObserver(tt.obs)
		})
	}
}

func TestTopic_RegisterObserver_ComparableValueInInterfaceField(t *testing.T) {
	tp := topic.NewTopic("newsletter")
	obs := boxObserver{payload: 1}

	require.NoError(t, tp.RegisterObserver(obs))
	require.NoError(t, tp.RegisterObserver(boxObserver{payload: 1}))
	assert.Equal(t, 1, tp.Len(), "equal values are the same observer")
	assert.True(t, tp.Registered(obs))

	tp.UnregisterObserver(obs)
	assert.Zero(t, tp.Len())
}

func TestTopic_UnregisterObserver(t *testing.T) {
	tp := topic.NewTopic("newsletter")
	first := &counter{name: "first"}
	second := &counter{name: "second"}

	require.NoError(t, tp.RegisterObserver(first))
	require.NoError(t, tp.RegisterObserver(second))

	tp.UnregisterObserver(first)
	require.NoError(t, tp.NotifyObservers())

	assert.Zero(t, first.calls, "removed observer must not be notified")
	assert.Equal(t, 1, second.calls)
	assert.False(t, tp.Registered(first))
	assert.True(t, tp.Registered(second))
}

func TestTopic_UnregisterObserver_Absent(t *testing.T) {
	tp := topic.NewTopic("newsletter")
	registered := &counter{name: "registered"}
	require.NoError(t, tp.RegisterObserver(registered))

	tp.UnregisterObserver(&counter{name: "stranger"})
	tp.UnregisterObserver(nil)
	tp.UnregisterObserver(sliceObserver{1})

	assert.Equal(t, 1, tp.Len())
}

func TestTopic_NotifyObservers_InsertionOrder(t *testing.T) {
	tp := topic.NewTopic("newsletter")
	var order []string

	names := []string{"c", "a", "d", "b"}
	for _, name := range names {
		require.NoError(t, tp.RegisterObserver(&counter{name: name, order: &order}))
	}

	require.NoError(t, tp.NotifyObservers())
	assert.Equal(t, names, order)
}

func TestTopic_NotifyObservers_ReRegisterMovesToEnd(t *testing.T) {
	tp := topic.NewTopic("newsletter")
	var order []string
	a := &counter{name: "a", order: &order}
	b := &counter{name: "b", order: &order}

	require.NoError(t, tp.RegisterObserver(a))
	require.NoError(t, tp.RegisterObserver(b))
	tp.UnregisterObserver(a)
	require.NoError(t, tp.RegisterObserver(a))

	require.NoError(t, tp.NotifyObservers())
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestTopic_NotifyObservers_FailureAborts(t *testing.T) {
	tp := topic.NewTopic("newsletter")
	boom := errors.New("mailbox full")

	first := &counter{name: "first"}
	failing := &counter{name: "failing", err: boom}
	last := &counter{name: "last"}

	for _, o := range []*counter{first, failing, last} {
		require.NoError(t, tp.RegisterObserver(o))
	}

	err := tp.PostMessage("X")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "notify observer 2 of 3 (failing)")

	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, failing.calls)
	assert.Zero(t, last.calls, "observers after a failure must not be notified")

	msg, ok := tp.GetUpdate(nil)
	assert.True(t, ok, "message is stored even when delivery fails")
	assert.Equal(t, "X", msg)
}

func TestTopic_NotifyObservers_Empty(t *testing.T) {
	assert.NoError(t, topic.NewTopic("newsletter").NotifyObservers())
}

func TestTopic_PostMessage_LatestWins(t *testing.T) {
	tp := topic.NewTopic("newsletter")

	require.NoError(t, tp.PostMessage("one"))
	require.NoError(t, tp.PostMessage("two"))

	msg, ok := tp.GetUpdate(nil)
	assert.True(t, ok)
	assert.Equal(t, "two", msg)
}

func TestTopic_GetUpdate_IgnoresObserver(t *testing.T) {
	tp := topic.NewTopic("newsletter")
	require.NoError(t, tp.PostMessage("same for all"))

	for _, o := range []topic.Observer{nil, &counter{name: "a"}, topic.NewSubscriber("b")} {
		msg, ok := tp.GetUpdate(o)
		assert.True(t, ok)
		assert.Equal(t, "same for all", msg)
	}
}

func TestTopic_Observers_Snapshot(t *testing.T) {
	tp := topic.NewTopic("newsletter")
	a := &counter{name: "a"}
	require.NoError(t, tp.RegisterObserver(a))

	snapshot := tp.Observers()
	snapshot[0] = &counter{name: "tampered"}

	assert.True(t, tp.Registered(a))
	assert.Equal(t, []topic.Observer{a}, tp.Observers())
}

func TestTopic_UnregisterDuringNotify(t *testing.T) {
	tp := topic.NewTopic("newsletter")
	later := &counter{name: "later"}

	var self *topic.Hook
	self = topic.NewHook(func() error {
		tp.UnregisterObserver(self)
		tp.UnregisterObserver(later)
		return nil
	})

	require.NoError(t, tp.RegisterObserver(self))
	require.NoError(t, tp.RegisterObserver(later))

	require.NoError(t, tp.NotifyObservers())
	assert.Equal(t, 1, later.calls, "the running pass uses the registry snapshot")
	assert.Zero(t, tp.Len())

	require.NoError(t, tp.NotifyObservers())
	assert.Equal(t, 1, later.calls)
}

func TestTopic_Events(t *testing.T) {
	rec := observability.NewRecorder()
	tp := topic.NewTopic("newsletter", topic.WithObserver(rec))

	a := &counter{name: "a"}
	require.NoError(t, tp.RegisterObserver(a))
	require.NoError(t, tp.RegisterObserver(a))
	require.NoError(t, tp.PostMessage("hi"))
	tp.UnregisterObserver(a)

	assert.Equal(t, []observability.EventType{
		topic.EventRegister,
		topic.EventPost,
		topic.EventNotifyStart,
		topic.EventNotifyComplete,
		topic.EventUnregister,
	}, rec.Types())

	events := rec.Events()
	assert.Equal(t, "newsletter.RegisterObserver", events[0].Source)
	assert.Equal(t, "a", events[0].Data["observer"])
	assert.Equal(t, 2, events[1].Data["length"])
}

func TestTopic_Events_NotifyError(t *testing.T) {
	rec := observability.NewRecorder()
	tp := topic.NewTopic("newsletter", topic.WithObserver(rec))

	require.NoError(t, tp.RegisterObserver(&counter{name: "bad", err: errors.New("nope")}))
	require.NoError(t, tp.RegisterObserver(&counter{name: "skipped"}))

	require.Error(t, tp.NotifyObservers())
	require.Equal(t, 1, rec.Count(topic.EventNotifyError))
	assert.Zero(t, rec.Count(topic.EventNotifyComplete))

	last := rec.Events()[len(rec.Events())-1]
	assert.Equal(t, observability.LevelError, last.Level)
	assert.Equal(t, 0, last.Data["notified"])
	assert.Equal(t, 1, last.Data["skipped"])
}

func TestHook(t *testing.T) {
	calls := 0
	h := topic.NewHook(func() error {
		calls++
		return nil
	})

	tp := topic.NewTopic("newsletter")
	require.NoError(t, tp.RegisterObserver(h))
	require.NoError(t, tp.PostMessage("x"))
	assert.Equal(t, 1, calls)

	assert.NoError(t, topic.NewHook(nil).Update())
}

func TestTopic_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	tp := topic.NewTopic("newsletter", topic.WithLogger(newDebugLogger(&buf)))

	require.NoError(t, tp.RegisterObserver(&counter{name: "a"}))
	assert.Contains(t, buf.String(), "observer registered")
	assert.Contains(t, buf.String(), "topic=newsletter")
}

func TestTopic_ConcurrentUse(t *testing.T) {
	const (
		workers = 8
		rounds  = 50
	)

	tp := topic.NewTopic("newsletter")
	anchor := topic.NewSubscriber("anchor")
	require.NoError(t, tp.RegisterObserver(anchor))
	anchor.Subscribe(tp)

	errs := make(chan error, workers*rounds)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range rounds {
				s := topic.NewSubscriber(fmt.Sprintf("worker-%d-%d", w, r))
				if err := tp.RegisterObserver(s); err != nil {
					errs <- err
					return
				}
				s.Subscribe(tp)
				if err := tp.PostMessage(fmt.Sprintf("message %d/%d", w, r)); err != nil {
					errs <- err
					return
				}
				tp.GetUpdate(s)
				_ = tp.Observers()
				_, _ = s.LastReport()
				tp.UnregisterObserver(s)
				s.Unsubscribe()
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent operation failed: %v", err)
	}

	assert.Equal(t, 1, tp.Len(), "only the anchor should remain registered")
	assert.Equal(t, workers*rounds, anchor.Updates())

	report, ok := anchor.LastReport()
	require.True(t, ok)
	assert.True(t, report.Received)
	msg, _ := tp.GetUpdate(nil)
	assert.Equal(t, msg, report.Message, "the last pull sees the final message")
}
