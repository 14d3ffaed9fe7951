package observability

import (
	"sync"
	"time"
)

type requestKey struct {
	Route  string
	Method string
	Status int
}

type errorKey struct {
	Route  string
	Method string
	Code   string
}

// Metrics keeps in-memory per-route counters. Counters are keyed on the
// matched route pattern, not the raw path, so cardinality stays bounded.
type Metrics struct {
	mu       sync.Mutex
	requests map[requestKey]int64
	errors   map[errorKey]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[requestKey]int64),
		errors:   make(map[errorKey]int64),
	}
}

// RecordRequest counts a completed request.
func (m *Metrics) RecordRequest(route, method string, status int, _ time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[requestKey{Route: route, Method: method, Status: status}]++
}

// RecordError counts a request that resolved to an error code.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[errorKey{Route: route, Method: method, Code: code}]++
}

// RequestCount reads the counter for one route/method/status combination.
func (m *Metrics) RequestCount(route, method string, status int) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[requestKey{Route: route, Method: method, Status: status}]
}

// ErrorCount reads the counter for one route/method/code combination.
func (m *Metrics) ErrorCount(route, method, code string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[errorKey{Route: route, Method: method, Code: code}]
}
