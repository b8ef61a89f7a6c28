// Package registry is the process-wide map from phone numbers to live
// connections. It is the single source of truth for who is online.
package registry

import "sync"

// Conn is the minimal send surface a registered connection must satisfy.
type Conn interface {
	Send(v interface{}) error
}

// Registry maps phone numbers to live connections and their reported time
// zones. Mutations serialize on the writer lock; fan-out reads proceed
// concurrently.
type Registry struct {
	mu        sync.RWMutex
	clients   map[int64]Conn
	timeZones map[int64]string
}

func New() *Registry {
	return &Registry{
		clients:   make(map[int64]Conn),
		timeZones: make(map[int64]string),
	}
}

// Insert registers a connection under phone. A second login for the same phone
// replaces the previous connection.
func (r *Registry) Insert(phone int64, conn Conn, timeZone string) {
	r.mu.Lock()
	r.clients[phone] = conn
	if timeZone != "" {
		r.timeZones[phone] = timeZone
	}
	r.mu.Unlock()
}

// Remove drops phone from the registry and reports whether it removed the
// mapping. It only removes if the mapping still points at conn, so a stale
// disconnect cannot evict a newer session; callers must skip their offline
// bookkeeping when Remove returns false.
func (r *Registry) Remove(phone int64, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.clients[phone]; ok && (conn == nil || cur == conn) {
		delete(r.clients, phone)
		delete(r.timeZones, phone)
		return true
	}
	return false
}

// Get returns the live connection for phone, if any.
func (r *Registry) Get(phone int64) (Conn, bool) {
	r.mu.RLock()
	conn, ok := r.clients[phone]
	r.mu.RUnlock()
	return conn, ok
}

// TimeZone returns the time zone reported at login.
func (r *Registry) TimeZone(phone int64) (string, bool) {
	r.mu.RLock()
	tz, ok := r.timeZones[phone]
	r.mu.RUnlock()
	return tz, ok
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Each calls fn for every registered connection under the read lock. fn must
// not call back into the registry's write methods.
func (r *Registry) Each(fn func(phone int64, conn Conn)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for phone, conn := range r.clients {
		fn(phone, conn)
	}
}
