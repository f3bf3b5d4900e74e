package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRest is a minimal PostgREST stand-in recording what it receives.
type fakeRest struct {
	mu       sync.Mutex
	status   int
	body     string
	method   string
	query    string
	headers  http.Header
	received []byte
	delay    time.Duration
}

func (f *fakeRest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-r.Context().Done():
			return
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.method = r.Method
	f.query = r.URL.RawQuery
	f.headers = r.Header.Clone()
	f.received, _ = io.ReadAll(r.Body)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = io.WriteString(w, f.body)
}

func newTestRepo(t *testing.T, f *fakeRest) *DeliverableRepository {
	t.Helper()
	return newTestRepoWithTimeout(t, f, 0)
}

func newTestRepoWithTimeout(t *testing.T, f *fakeRest, timeout time.Duration) *DeliverableRepository {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	repo, err := NewDeliverableRepository(Config{URL: srv.URL, Key: "anon-key", Table: "deliverables", Timeout: timeout})
	require.NoError(t, err)
	return repo
}

const twoRows = `[
  {"id": 7, "name": "Report B", "lead": "Ana", "coordinating_staff": null, "field": "Ecology",
   "start_date": "2024-03-01", "end_date": "2024-04-01", "description": "", "keywords": "k",
   "storage_link": "", "created_at": "2024-05-02T10:00:00.123456+00:00"},
  {"id": 3, "name": "Report A", "lead": "Binh", "coordinating_staff": "Chi", "field": "Water",
   "start_date": "2024-01-01", "end_date": "2024-01-01", "description": "d", "keywords": "",
   "storage_link": "https://drive/x", "created_at": "2024-05-01T09:00:00+00:00"}
]`

func TestRestURL(t *testing.T) {
	assert.Equal(t, "https://x.supabase.co/rest/v1", RestURL("https://x.supabase.co"))
	assert.Equal(t, "https://x.supabase.co/rest/v1", RestURL("https://x.supabase.co/"))
	assert.Equal(t, "https://x.supabase.co/rest/v1", RestURL("https://x.supabase.co/rest/v1"))
}

func TestNewDeliverableRepository_RequiresCredentials(t *testing.T) {
	_, err := NewDeliverableRepository(Config{URL: "https://x.supabase.co"})
	assert.Error(t, err)

	_, err = NewDeliverableRepository(Config{Key: "k"})
	assert.Error(t, err)
}

func TestListAll_MapsRowsInServiceOrder(t *testing.T) {
	f := &fakeRest{status: http.StatusOK, body: twoRows}
	repo := newTestRepo(t, f)

	items, err := repo.ListAll(context.Background())
	require.NoError(t, err)

	want := []domain.Deliverable{
		{
			ID: "7", Name: "Report B", Lead: "Ana", Field: "Ecology",
			StartDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			Keywords:  "k",
			CreatedAt: time.Date(2024, 5, 2, 10, 0, 0, 123456000, time.UTC),
		},
		{
			ID: "3", Name: "Report A", Lead: "Binh", CoordinatingStaff: "Chi", Field: "Water",
			StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			Description: "d", StorageLink: "https://drive/x",
			CreatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		},
	}
	if diff := cmp.Diff(want, items); diff != "" {
		t.Errorf("ListAll() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, http.MethodGet, f.method)
	assert.Contains(t, f.query, "order=created_at.desc")
	assert.Equal(t, "anon-key", f.headers.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", f.headers.Get("Authorization"))
}

func TestListAll_EmptyTable(t *testing.T) {
	repo := newTestRepo(t, &fakeRest{status: http.StatusOK, body: `[]`})

	items, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListAll_ServiceErrorIsTransportFailure(t *testing.T) {
	repo := newTestRepo(t, &fakeRest{
		status: http.StatusInternalServerError,
		body:   `{"code":"XX000","message":"boom","details":null,"hint":null}`,
	})

	_, err := repo.ListAll(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTransport), "got %v", err)
}

func TestListAll_RejectsMalformedRows(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing id", `[{"name":"a","lead":"b","field":"c"}]`},
		{"null name", `[{"id":1,"name":null,"lead":"b","field":"c"}]`},
		{"bad date", `[{"id":1,"name":"a","lead":"b","field":"c","start_date":"yesterday"}]`},
		{"not an array", `{"id":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepo(t, &fakeRest{status: http.StatusOK, body: tt.body})
			_, err := repo.ListAll(context.Background())
			assert.ErrorIs(t, err, domain.ErrInvalidRow)
		})
	}
}

func TestInsert_SendsISODatesAndReturnsRow(t *testing.T) {
	f := &fakeRest{status: http.StatusCreated, body: `[{"id":"abc","name":"X","lead":"L","field":"F",
		"start_date":"2024-01-01","end_date":"2024-01-31","created_at":"2024-02-01T00:00:00Z"}]`}
	repo := newTestRepo(t, f)

	in := domain.DeliverableInput{
		Name:      "X",
		Lead:      "L",
		Field:     "F",
		StartDate: time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	d, err := repo.Insert(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "abc", d.ID)

	assert.Equal(t, http.MethodPost, f.method)
	assert.Contains(t, f.headers.Get("Prefer"), "return=representation")

	var sent map[string]any
	require.NoError(t, json.Unmarshal(f.received, &sent))
	assert.Equal(t, "2024-01-01", sent["start_date"])
	assert.Equal(t, "2024-01-31", sent["end_date"])
	assert.Equal(t, "X", sent["name"])
}

func TestWrites_EmptyAcknowledgment(t *testing.T) {
	repo := newTestRepo(t, &fakeRest{status: http.StatusOK, body: `[]`})
	ctx := context.Background()

	_, err := repo.Insert(ctx, domain.DeliverableInput{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrEmptyAcknowledgment)

	_, err = repo.Update(ctx, "42", domain.DeliverableInput{Name: "x"})
	assert.ErrorIs(t, err, domain.ErrEmptyAcknowledgment)

	_, err = repo.Delete(ctx, "42")
	assert.ErrorIs(t, err, domain.ErrEmptyAcknowledgment)
}

func TestUpdateAndDelete_FilterByID(t *testing.T) {
	f := &fakeRest{status: http.StatusOK, body: `[{"id":42,"name":"n","lead":"l","field":"f"}]`}
	repo := newTestRepo(t, f)
	ctx := context.Background()

	d, err := repo.Update(ctx, "42", domain.DeliverableInput{Name: "n", Lead: "l", Field: "f"})
	require.NoError(t, err)
	assert.Equal(t, "42", d.ID)
	assert.Equal(t, http.MethodPatch, f.method)
	assert.Contains(t, f.query, "id=eq.42")

	_, err = repo.Delete(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, f.method)
	assert.Contains(t, f.query, "id=eq.42")
}

func TestCanceledContext(t *testing.T) {
	f := &fakeRest{status: http.StatusOK, body: twoRows}
	repo := newTestRepo(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListAll(ctx)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Empty(t, f.method, "no request should be sent")
}

func TestPing(t *testing.T) {
	f := &fakeRest{status: http.StatusOK, body: `[{"id":1}]`}
	repo := newTestRepo(t, f)

	require.NoError(t, repo.Ping(context.Background()))
	assert.Contains(t, f.query, "limit=1")
	assert.Contains(t, f.query, "select=id")
}

func TestSlowServiceTimesOut(t *testing.T) {
	f := &fakeRest{status: http.StatusOK, body: twoRows, delay: 2 * time.Second}
	repo := newTestRepoWithTimeout(t, f, 100*time.Millisecond)

	start := time.Now()
	items, err := repo.ListAll(context.Background())
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Nil(t, items)
	assert.Less(t, elapsed, time.Second)

	_, err = repo.Insert(context.Background(), domain.DeliverableInput{Name: "Report"})
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestBoundedTransport_DefaultTimeout(t *testing.T) {
	rt, ok := boundedTransport(0).(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, DefaultTimeout, rt.ResponseHeaderTimeout)

	rt = boundedTransport(3 * time.Second).(*http.Transport)
	assert.Equal(t, 3*time.Second, rt.ResponseHeaderTimeout)
}
