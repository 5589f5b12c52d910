package client

// A listener registered for an in-flight request is one of ResultListener,
// SubscribeListener or UnsubscribeListener. The router dispatches on the
// concrete type when the matching reply arrives, and every listener is
// invoked at most once.

// ResultListener receives the outcome of a remote procedure call.
type ResultListener interface {
	// OnSuccess receives the raw JSON result payload, or "" when the
	// server sent none.
	OnSuccess(resultJSON string)

	// OnError receives the server-reported error triple.
	OnError(err, reason, details string)
}

// SubscribeListener is told when a subscription has delivered its initial
// data, or why it was refused. A subscription cancelled without an explicit
// error is reported as OnError with three empty strings.
type SubscribeListener interface {
	OnReady()
	OnError(err, reason, details string)
}

// UnsubscribeListener is told when an unsubscription has been acknowledged.
type UnsubscribeListener interface {
	OnSuccess()
}

// ResultFunc adapts plain functions to a ResultListener. Nil functions are
// skipped.
type ResultFunc struct {
	Success func(resultJSON string)
	Error   func(err, reason, details string)
}

func (f ResultFunc) OnSuccess(resultJSON string) {
	if f.Success != nil {
		f.Success(resultJSON)
	}
}

func (f ResultFunc) OnError(err, reason, details string) {
	if f.Error != nil {
		f.Error(err, reason, details)
	}
}

// SubscribeFunc adapts plain functions to a SubscribeListener. Nil functions
// are skipped.
type SubscribeFunc struct {
	Ready func()
	Error func(err, reason, details string)
}

func (f SubscribeFunc) OnReady() {
	if f.Ready != nil {
		f.Ready()
	}
}

func (f SubscribeFunc) OnError(err, reason, details string) {
	if f.Error != nil {
		f.Error(err, reason, details)
	}
}

// UnsubscribeFunc adapts a plain function to an UnsubscribeListener.
type UnsubscribeFunc struct {
	Success func()
}

func (f UnsubscribeFunc) OnSuccess() {
	if f.Success != nil {
		f.Success()
	}
}

var _ ResultListener = ResultFunc{}
var _ SubscribeListener = SubscribeFunc{}
var _ UnsubscribeListener = UnsubscribeFunc{}
