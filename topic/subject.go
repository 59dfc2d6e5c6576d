package topic

import "reflect"

// Subject owns a registry of observers and the latest posted message.
type Subject interface {
	// PostMessage replaces the current message and notifies every
	// registered observer. It returns the first observer failure.
	PostMessage(msg string) error
	// RegisterObserver adds o to the registry unless it is already present.
	RegisterObserver(o Observer) error
	// UnregisterObserver removes o from the registry if present.
	UnregisterObserver(o Observer)
	// NotifyObservers calls Update on each registered observer in
	// registration order and stops at the first error.
	NotifyObservers() error
	// GetUpdate returns the current message and whether one was posted.
	// The argument does not filter the result.
	GetUpdate(o Observer) (string, bool)
}

// Observer reacts to notifications by pulling state from its subject.
type Observer interface {
	// Update is called by a Subject during a notification pass.
	Update() error
	// Subscribe points the observer at subject. It does not register the
	// observer with subject.
	Subscribe(subject Subject)
}

// Hook adapts a function to Observer. It ignores Subscribe; the function
// is expected to close over whatever state it needs.
type Hook struct {
	fn func() error
}

// NewHook creates a Hook that runs fn on every Update. A nil fn is a no-op.
func NewHook(fn func() error) *Hook {
	return &Hook{fn: fn}
}

func (h *Hook) Update() error {
	if h.fn == nil {
		return nil
	}
	return h.fn()
}

func (h *Hook) Subscribe(Subject) {}

// isNil reports whether v is nil or an interface holding a nil pointer.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// isComparable reports whether o can be compared with ==. The check runs on
// the value, so interface fields holding uncomparable values are caught.
func isComparable(o Observer) bool {
	return reflect.ValueOf(o).Comparable()
}
