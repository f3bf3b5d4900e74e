package mocks

import (
	"sync"
	"time"
)

// MockMetrics is a mock implementation of metrics recorder for testing
type MockMetrics struct {
	mu sync.Mutex

	Operations         map[string]int // "operation/status" -> count
	ValidationFailures map[string]int
	DeleteStages       []string
	CacheHits          int
	CacheMisses        int
	Invalidations      []string
	ActiveSessions     int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Operations:         make(map[string]int),
		ValidationFailures: make(map[string]int),
	}
}

func (m *MockMetrics) RecordOperation(operation, status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Operations[operation+"/"+status]++
}

func (m *MockMetrics) RecordValidationFailure(field string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidationFailures[field]++
}

func (m *MockMetrics) RecordDeleteStage(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteStages = append(m.DeleteStages, stage)
}

func (m *MockMetrics) RecordCacheLookup(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.CacheHits++
	} else {
		m.CacheMisses++
	}
}

func (m *MockMetrics) RecordCacheInvalidation(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidations = append(m.Invalidations, reason)
}

func (m *MockMetrics) SetActiveSessions(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ActiveSessions = count
}

// OperationCount returns how often operation ended with status.
func (m *MockMetrics) OperationCount(operation, status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Operations[operation+"/"+status]
}
