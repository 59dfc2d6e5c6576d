// Package topic implements a pull-based observer mechanism: a Subject keeps
// an ordered registry of Observers and the most recently posted message, and
// broadcasts a change by calling Update on every registered Observer. The
// notification carries no payload. Each Observer pulls the message from the
// Subject it is subscribed to.
//
// Registration and subscription are separate relations and a driver must
// establish both for a message to reach an observer:
//
//	t := topic.NewTopic("newsletter")
//	first := topic.NewSubscriber("first", topic.WithOutput(os.Stdout))
//
//	t.RegisterObserver(first) // first is notified on every post
//	first.Subscribe(t)        // first pulls from t when notified
//
//	t.PostMessage("Hello Observers....")
//	// first: received message Hello Observers....
//
// An observer that is registered but not subscribed is notified and reports
// "no new message". An observer that is subscribed but not registered is
// never notified.
//
// # Failure propagation
//
// NotifyObservers visits observers in registration order and stops at the
// first Update that returns an error. The error is returned wrapped to the
// caller of NotifyObservers or PostMessage. Observers later in the registry
// are not notified in that pass.
//
// # Concurrency
//
// Topic and Subscriber are safe for concurrent use. A notification pass
// iterates a snapshot of the registry, so an Update may register or
// unregister observers without deadlocking. Changes take effect on the next
// pass.
package topic
