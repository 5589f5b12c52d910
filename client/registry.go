package client

import (
	"sync"
)

// listenerRegistry tracks the listener waiting on each in-flight request id.
// It is the single source of truth for what is in flight: an id maps to at
// most one listener, and resolving an id removes it, so a listener can fire
// at most once.
//
// There is no timeout: an id the server never replies to stays registered
// until the registry is cleared wholesale when the session ends.
type listenerRegistry struct {
	mu        sync.Mutex
	listeners map[string]interface{}
}

func newListenerRegistry() *listenerRegistry {
	return &listenerRegistry{
		listeners: make(map[string]interface{}),
	}
}

// register stores the listener waiting on id. Registering a nil listener is
// a no-op; the request is fire-and-forget. Registering over an existing id
// replaces the previous listener, which is how an unsubscription attaches to
// a subscription's id.
func (r *listenerRegistry) register(id string, listener interface{}) {
	if listener == nil {
		return
	}

	r.mu.Lock()
	r.listeners[id] = listener
	r.mu.Unlock()
}

// resolve removes and returns the listener waiting on id. The second return
// is false when nobody is waiting, which is normal for fire-and-forget
// requests and for replies that raced a registry clear.
func (r *listenerRegistry) resolve(id string) (interface{}, bool) {
	r.mu.Lock()
	listener, ok := r.listeners[id]
	if ok {
		delete(r.listeners, id)
	}
	r.mu.Unlock()

	return listener, ok
}

// clear discards every pending listener without invoking it. Used when the
// session is over and no reply can arrive anymore.
func (r *listenerRegistry) clear() {
	r.mu.Lock()
	r.listeners = make(map[string]interface{})
	r.mu.Unlock()
}

func (r *listenerRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.listeners)
}
