package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Olprog59/go-deliverables/internal/cache"
	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/Olprog59/go-deliverables/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validInput(name string) domain.DeliverableInput {
	return domain.DeliverableInput{
		Name:      name,
		Lead:      "Dr. X",
		Field:     "AI",
		StartDate: day(2024, 1, 1),
		EndDate:   day(2024, 6, 1),
	}
}

func newTestService(t *testing.T, ttl time.Duration) (*DeliverableService, *mocks.MockDeliverableRepository, *mocks.MockMetrics) {
	t.Helper()
	repo := mocks.NewMockDeliverableRepository()
	m := mocks.NewMockMetrics()

	cfg := cache.DefaultConfig()
	cfg.TTL = ttl
	listCache, err := cache.New(cfg, m)
	require.NoError(t, err)

	return NewDeliverableService(repo, listCache, m), repo, m
}

func TestFilterByName(t *testing.T) {
	items := []domain.Deliverable{{Name: "Topic A"}, {Name: "Other B"}}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"case-insensitive match", "topic", []string{"Topic A"}},
		{"upper-case query", "OTHER", []string{"Other B"}},
		{"empty query keeps everything", "", []string{"Topic A", "Other B"}},
		{"whitespace query keeps everything", "   ", []string{"Topic A", "Other B"}},
		{"no match", "zzz", []string{}},
		{"substring in the middle", "ic", []string{"Topic A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByName(items, tt.query)
			names := make([]string, 0, len(got))
			for _, d := range got {
				names = append(names, d.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestList_CachedWithinTTL(t *testing.T) {
	svc, repo, m := newTestService(t, time.Minute)
	repo.Seed(validInput("a"), validInput("b"))

	first := svc.List(context.Background())
	second := svc.List(context.Background())

	assert.Empty(t, first.Error)
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, 1, repo.ListCalls)
	assert.Equal(t, 1, m.CacheMisses)
	assert.Equal(t, 1, m.CacheHits)
	assert.Equal(t, []string{"b", "a"}, []string{first.Items[0].Name, first.Items[1].Name})
}

func TestList_RefetchAfterTTL(t *testing.T) {
	svc, repo, _ := newTestService(t, 50*time.Millisecond)

	svc.List(context.Background())
	time.Sleep(120 * time.Millisecond)
	svc.List(context.Background())

	assert.Equal(t, 2, repo.ListCalls)
}

func TestList_TransportFailureIsAbsorbed(t *testing.T) {
	svc, repo, m := newTestService(t, time.Minute)
	repo.ListError = domain.ErrTransport

	res := svc.List(context.Background())

	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Contains(t, res.Error, "Could not load deliverables")
	assert.Equal(t, 1, m.OperationCount(OpList, "failure"))

	// the failure is not cached
	repo.ListError = nil
	res = svc.List(context.Background())
	assert.Empty(t, res.Error)
	assert.Equal(t, 2, repo.ListCalls)
}

func TestCreate_RoundTrip(t *testing.T) {
	svc, repo, m := newTestService(t, time.Minute)
	svc.List(context.Background()) // warm the cache

	in := validInput("  Topic A  ")
	in.CoordinatingStaff = "Y"
	in.Keywords = "ml, vision"
	in.StorageLink = "https://drive/x"

	out := svc.Create(context.Background(), in)
	require.True(t, out.OK, out.Message)
	assert.Equal(t, MsgCreated, out.Message)
	require.NotNil(t, out.Record)

	res := svc.List(context.Background())
	require.Len(t, res.Items, 1)
	got := res.Items[0]
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, in.Normalize(), got.Input())

	assert.Equal(t, 2, repo.ListCalls, "write must invalidate the cache")
	assert.Equal(t, []string{cache.ReasonWrite}, m.Invalidations)
	assert.Equal(t, 1, m.OperationCount(OpInsert, "success"))
}

func TestCreate_ValidationFailureNeverWrites(t *testing.T) {
	svc, repo, m := newTestService(t, time.Minute)

	in := domain.DeliverableInput{
		Name:      " ",
		Lead:      "",
		Field:     "\t",
		StartDate: day(2024, 6, 1),
		EndDate:   day(2024, 1, 1),
	}
	out := svc.Create(context.Background(), in)

	assert.False(t, out.OK)
	assert.Equal(t, []string{
		domain.MsgNameRequired,
		domain.MsgLeadRequired,
		domain.MsgFieldRequired,
		domain.MsgDateOrder,
	}, out.Errors)
	assert.Equal(t, 0, repo.InsertCalls)
	assert.Empty(t, m.Invalidations)
	assert.Equal(t, 1, m.ValidationFailures["end_date"])
	assert.Equal(t, 1, m.ValidationFailures["name"])
}

func TestCreate_FailuresCollapseToOutcome(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *mocks.MockDeliverableRepository)
		contains string
	}{
		{
			name:     "transport failure",
			setup:    func(r *mocks.MockDeliverableRepository) { r.InsertError = errors.Join(domain.ErrTransport, errors.New("dial tcp")) },
			contains: "could not be reached",
		},
		{
			name:     "empty acknowledgment",
			setup:    func(r *mocks.MockDeliverableRepository) { r.EmptyAck = true },
			contains: "did not confirm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, m := newTestService(t, time.Minute)
			tt.setup(repo)

			out := svc.Create(context.Background(), validInput("x"))

			assert.False(t, out.OK)
			assert.Contains(t, out.Message, "Could not add the deliverable")
			assert.Contains(t, out.Message, tt.contains)
			assert.Nil(t, out.Record)
			assert.Empty(t, m.Invalidations, "failed writes keep the cache")
			assert.Equal(t, 1, repo.InsertCalls, "no retry")
		})
	}
}

func TestUpdate(t *testing.T) {
	svc, repo, m := newTestService(t, time.Minute)
	seeded := repo.Seed(validInput("before"))

	in := seeded[0].Input()
	in.Name = "after"
	out := svc.Update(context.Background(), seeded[0].ID, in)

	require.True(t, out.OK, out.Message)
	assert.Equal(t, MsgUpdated, out.Message)
	assert.Equal(t, seeded[0].ID, out.Record.ID)
	assert.Equal(t, seeded[0].CreatedAt, out.Record.CreatedAt)
	assert.Equal(t, []string{cache.ReasonWrite}, m.Invalidations)

	d, ok := svc.Find(context.Background(), seeded[0].ID)
	require.True(t, ok)
	assert.Equal(t, "after", d.Name)
}

func TestUpdate_StaleIDIsEmptyAcknowledgment(t *testing.T) {
	svc, _, m := newTestService(t, time.Minute)

	out := svc.Update(context.Background(), "404", validInput("x"))

	assert.False(t, out.OK)
	assert.Contains(t, out.Message, "did not confirm")
	assert.Equal(t, 1, m.OperationCount(OpUpdate, "failure"))
}

func TestUpdate_ValidationFailure(t *testing.T) {
	svc, repo, _ := newTestService(t, time.Minute)
	seeded := repo.Seed(validInput("x"))

	in := seeded[0].Input()
	in.Lead = "  "
	out := svc.Update(context.Background(), seeded[0].ID, in)

	assert.False(t, out.OK)
	assert.Equal(t, []string{domain.MsgLeadRequired}, out.Errors)
	assert.Equal(t, 0, repo.UpdateCalls)
}

func TestDelete(t *testing.T) {
	svc, repo, m := newTestService(t, time.Minute)
	seeded := repo.Seed(validInput("a"), validInput("b"))

	out := svc.Delete(context.Background(), seeded[0].ID)
	require.True(t, out.OK)
	assert.Equal(t, MsgDeleted, out.Message)

	_, ok := svc.Find(context.Background(), seeded[0].ID)
	assert.False(t, ok)
	_, ok = svc.Find(context.Background(), seeded[1].ID)
	assert.True(t, ok)
	assert.Equal(t, []string{cache.ReasonWrite}, m.Invalidations)

	again := svc.Delete(context.Background(), seeded[0].ID)
	assert.False(t, again.OK)
}

func TestRefresh_InvalidatesCache(t *testing.T) {
	svc, repo, m := newTestService(t, time.Minute)

	svc.List(context.Background())
	repo.Seed(validInput("added elsewhere"))
	assert.Empty(t, svc.List(context.Background()).Items, "stale until refresh")

	svc.Refresh()
	res := svc.List(context.Background())

	assert.Len(t, res.Items, 1)
	assert.Equal(t, []string{cache.ReasonManual}, m.Invalidations)
}

func TestSearch(t *testing.T) {
	svc, repo, _ := newTestService(t, time.Minute)
	repo.Seed(validInput("Topic A"), validInput("Other B"))

	res := svc.Search(context.Background(), "topic")
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Topic A", res.Items[0].Name)

	assert.Len(t, svc.Search(context.Background(), "").Items, 2)
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "X: the request timed out.", failureMessage("X", context.DeadlineExceeded))
	assert.Equal(t, "X: the server returned malformed data.", failureMessage("X", domain.ErrInvalidRow))
}
