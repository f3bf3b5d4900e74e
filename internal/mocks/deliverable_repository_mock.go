package mocks

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/Olprog59/go-deliverables/internal/domain"
)

// MockDeliverableRepository is an in-memory ports.DeliverableRepository for testing.
// Rows are returned newest first, like the real backends.
type MockDeliverableRepository struct {
	mu sync.Mutex

	// Mock data storage
	Rows   []domain.Deliverable
	nextID int
	now    time.Time

	// Mock behavior flags
	ListError   error
	InsertError error
	UpdateError error
	DeleteError error
	PingError   error

	// EmptyAck makes every write return no row, as a service that silently ignored it.
	EmptyAck bool

	// Call tracking
	ListCalls   int
	InsertCalls int
	UpdateCalls int
	DeleteCalls int
}

// NewMockDeliverableRepository creates a new mock repository
func NewMockDeliverableRepository() *MockDeliverableRepository {
	return &MockDeliverableRepository{
		now: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	}
}

// Seed inserts rows directly, bypassing call tracking.
func (m *MockDeliverableRepository) Seed(inputs ...domain.DeliverableInput) []domain.Deliverable {
	out := make([]domain.Deliverable, 0, len(inputs))
	for _, in := range inputs {
		m.mu.Lock()
		d := m.store(in)
		m.mu.Unlock()
		out = append(out, d)
	}
	return out
}

func (m *MockDeliverableRepository) store(in domain.DeliverableInput) domain.Deliverable {
	m.nextID++
	m.now = m.now.Add(time.Minute)
	d := fromInput(strconv.Itoa(m.nextID), in, m.now)
	m.Rows = append(m.Rows, d)
	return d
}

func fromInput(id string, in domain.DeliverableInput, created time.Time) domain.Deliverable {
	return domain.Deliverable{
		ID:                id,
		Name:              in.Name,
		Lead:              in.Lead,
		CoordinatingStaff: in.CoordinatingStaff,
		Field:             in.Field,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		Description:       in.Description,
		Keywords:          in.Keywords,
		StorageLink:       in.StorageLink,
		CreatedAt:         created,
	}
}

func (m *MockDeliverableRepository) ListAll(ctx context.Context) ([]domain.Deliverable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.ListError != nil {
		return nil, m.ListError
	}

	items := slices.Clone(m.Rows)
	slices.Reverse(items)
	if items == nil {
		items = []domain.Deliverable{}
	}
	return items, nil
}

func (m *MockDeliverableRepository) Insert(ctx context.Context, in domain.DeliverableInput) (*domain.Deliverable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls++
	if m.InsertError != nil {
		return nil, m.InsertError
	}
	if m.EmptyAck {
		return nil, fmt.Errorf("%w: insert", domain.ErrEmptyAcknowledgment)
	}

	d := m.store(in)
	return &d, nil
}

func (m *MockDeliverableRepository) Update(ctx context.Context, id string, in domain.DeliverableInput) (*domain.Deliverable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}

	i := m.indexOf(id)
	if m.EmptyAck || i < 0 {
		return nil, fmt.Errorf("%w: update %s", domain.ErrEmptyAcknowledgment, id)
	}

	m.Rows[i] = fromInput(id, in, m.Rows[i].CreatedAt)
	d := m.Rows[i]
	return &d, nil
}

func (m *MockDeliverableRepository) Delete(ctx context.Context, id string) (*domain.Deliverable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.DeleteError != nil {
		return nil, m.DeleteError
	}

	i := m.indexOf(id)
	if m.EmptyAck || i < 0 {
		return nil, fmt.Errorf("%w: delete %s", domain.ErrEmptyAcknowledgment, id)
	}

	d := m.Rows[i]
	m.Rows = slices.Delete(m.Rows, i, i+1)
	return &d, nil
}

func (m *MockDeliverableRepository) Ping(ctx context.Context) error {
	return m.PingError
}

func (m *MockDeliverableRepository) indexOf(id string) int {
	return slices.IndexFunc(m.Rows, func(d domain.Deliverable) bool { return d.ID == id })
}
