package topic

import "github.com/tailored-agentic-units/broadcast/observability"

// Topic event types.
const (
	EventRegister       observability.EventType = "topic.register"
	EventUnregister     observability.EventType = "topic.unregister"
	EventPost           observability.EventType = "topic.post"
	EventNotifyStart    observability.EventType = "topic.notify.start"
	EventNotifyComplete observability.EventType = "topic.notify.complete"
	EventNotifyError    observability.EventType = "topic.notify.error"
)
