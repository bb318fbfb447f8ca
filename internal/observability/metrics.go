package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for bot activity.
type Metrics struct {
	mu              sync.Mutex
	commandCount    map[string]int64
	validationCount map[string]int64
	cascadeCount    map[string]int64
	requestCount    map[string]int64
	errorCount      map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		commandCount:    make(map[string]int64),
		validationCount: make(map[string]int64),
		cascadeCount:    make(map[string]int64),
		requestCount:    make(map[string]int64),
		errorCount:      make(map[string]int64),
	}
}

// RecordCommand increments the counter for a command invocation outcome.
func (m *Metrics) RecordCommand(command, outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandCount[command+"|"+outcome]++
}

// RecordValidation increments counters for validation outcomes.
func (m *Metrics) RecordValidation(check string, valid bool) {
	if m == nil {
		return
	}
	key := check + "|fail"
	if valid {
		key = check + "|ok"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validationCount[key]++
}

// RecordCascade increments counters for cascade runs by change type.
func (m *Metrics) RecordCascade(changeType string, casesAffected int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cascadeCount[changeType] += int64(casesAffected)
}

// RecordRequest increments counters for HTTP requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments HTTP error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies current counters for the ops endpoint.
func (m *Metrics) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	if m == nil {
		return out
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.commandCount {
		out["command|"+k] = v
	}
	for k, v := range m.validationCount {
		out["validation|"+k] = v
	}
	for k, v := range m.cascadeCount {
		out["cascade|"+k] = v
	}
	for k, v := range m.requestCount {
		out["request|"+k] = v
	}
	for k, v := range m.errorCount {
		out["error|"+k] = v
	}
	return out
}
