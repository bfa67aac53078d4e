package exports

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenledger/greenledger/internal/ledger"
	"github.com/greenledger/greenledger/internal/parties"
	"github.com/greenledger/greenledger/internal/platform/httpx"
	"github.com/greenledger/greenledger/jobs"
)

// ============================================================================
// TEST DOUBLES
// ============================================================================

type directory map[int64]parties.Party

func (d directory) Get(_ context.Context, id int64) (parties.Party, error) {
	p, ok := d[id]
	if !ok {
		return parties.Party{}, parties.ErrNotFound
	}
	return p, nil
}

type recordingQueue struct {
	mu       sync.Mutex
	payloads []jobs.StatementExportPayload
	err      error
}

func (q *recordingQueue) EnqueueStatementExport(_ context.Context, p jobs.StatementExportPayload) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	q.payloads = append(q.payloads, p)
	return &asynq.TaskInfo{ID: p.ExportID, Queue: jobs.QueueDefault, Type: jobs.TaskStatementExport}, nil
}

type stubBuilder struct {
	err  error
	reqs []ledger.Request
}

func (b *stubBuilder) Statement(_ context.Context, req ledger.Request) (ledger.Statement, error) {
	b.reqs = append(b.reqs, req)
	if b.err != nil {
		return ledger.Statement{}, b.err
	}
	return ledger.Statement{PartyID: req.PartyID, PartyName: "Acme Traders", Range: req.Range, ClosingBalance: decimal.NewFromInt(1400)}, nil
}

type stubRenderer struct {
	err error
}

func (r stubRenderer) Render(_ context.Context, w io.Writer, st ledger.Statement, out ledger.Output) error {
	if r.err != nil {
		return r.err
	}
	_, err := io.WriteString(w, string(out)+" for "+st.PartyName)
	return err
}

// ============================================================================
// FIXTURES
// ============================================================================

type fixture struct {
	redis   *miniredis.Miniredis
	store   *Store
	queue   *recordingQueue
	service *Service
	dir     string
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		redis: mr,
		store: NewStore(client, time.Hour),
		queue: &recordingQueue{},
		dir:   t.TempDir(),
		now:   time.Date(2024, time.February, 2, 10, 0, 0, 0, time.UTC),
	}
	dir := directory{7: {ID: 7, Name: "Acme Traders", Type: parties.TypeCustomer}}
	f.service = NewService(dir, f.store, f.queue, f.dir, discard())
	f.service.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) worker(builder StatementBuilder, renderer ledger.Renderer) *Worker {
	w := NewWorker(builder, renderer, f.store, f.dir, discard(), nil)
	w.now = func() time.Time { return f.now }
	return w
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func taskFor(t *testing.T, p jobs.StatementExportPayload) *asynq.Task {
	t.Helper()
	task, err := jobs.NewStatementExportTask(p)
	require.NoError(t, err)
	return task
}

// ============================================================================
// STORE
// ============================================================================

func TestStoreRoundTripAndExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := Export{ID: "a1", PartyID: 7, Format: ledger.OutputCSV, State: StateQueued}

	require.NoError(t, f.store.Save(ctx, e))
	assert.Equal(t, time.Hour, f.redis.TTL("exports:a1"))

	got, err := f.store.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, e, got)

	f.redis.FastForward(time.Hour + time.Second)
	_, err = f.store.Get(ctx, "a1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

func TestStoreUnavailable(t *testing.T) {
	f := newFixture(t)
	f.redis.Close()

	err := f.store.Save(context.Background(), Export{ID: "a1"})
	assert.True(t, errors.Is(err, httpx.ErrUnavailable))
	_, err = f.store.Get(context.Background(), "a1")
	assert.True(t, errors.Is(err, httpx.ErrUnavailable))
}

func TestStoreDefaultTTL(t *testing.T) {
	assert.Equal(t, 24*time.Hour, NewStore(nil, 0).ttl)
}

// ============================================================================
// SERVICE
// ============================================================================

func TestRequestQueuesExport(t *testing.T) {
	f := newFixture(t)

	e, err := f.service.Request(context.Background(), 7, 3, CreateExportRequest{From: "2024-01-01", To: "2024-01-31", Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, StateQueued, e.State)
	assert.Equal(t, ledger.OutputCSV, e.Format)
	assert.Equal(t, int64(3), e.RequestedBy)

	require.Len(t, f.queue.payloads, 1)
	assert.Equal(t, jobs.StatementExportPayload{
		ExportID: e.ID, PartyID: 7, From: "2024-01-01", To: "2024-01-31", Format: "csv", RequestedBy: 3,
	}, f.queue.payloads[0])

	stored, err := f.service.Get(context.Background(), e.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, StateQueued, stored.State)
}

func TestRequestDefaultsRangeToMonthToDate(t *testing.T) {
	f := newFixture(t)

	e, err := f.service.Request(context.Background(), 7, 3, CreateExportRequest{Format: "pdf", Opening: "snapshot"})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", e.From)
	assert.Equal(t, "2024-02-02", e.To)
	assert.Equal(t, "snapshot", f.queue.payloads[0].Opening)
}

func TestRequestRejects(t *testing.T) {
	f := newFixture(t)
	cases := map[string]struct {
		party int64
		req   CreateExportRequest
		want  error
	}{
		"missing format":  {7, CreateExportRequest{}, httpx.ErrValidation},
		"json format":     {7, CreateExportRequest{Format: "json"}, httpx.ErrValidation},
		"html format":     {7, CreateExportRequest{Format: "html"}, httpx.ErrValidation},
		"bad date":        {7, CreateExportRequest{Format: "csv", From: "yesterday"}, httpx.ErrValidation},
		"inverted range":  {7, CreateExportRequest{Format: "csv", From: "2024-02-01", To: "2024-01-01"}, httpx.ErrValidation},
		"unknown opening": {7, CreateExportRequest{Format: "csv", Opening: "rolling"}, httpx.ErrValidation},
		"unknown party":   {99, CreateExportRequest{Format: "csv"}, ledger.ErrPartyNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.service.Request(context.Background(), tc.party, 1, tc.req)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
	assert.Empty(t, f.queue.payloads)
}

func TestRequestEnqueueFailureMarksExportFailed(t *testing.T) {
	f := newFixture(t)
	f.queue.err = errors.New("redis: connection refused")

	_, err := f.service.Request(context.Background(), 7, 1, CreateExportRequest{Format: "csv"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrUnavailable))

	keys := f.redis.Keys()
	require.Len(t, keys, 1)
	stored, err := f.store.Get(context.Background(), keys[0][len(keyPrefix):])
	require.NoError(t, err)
	assert.Equal(t, StateFailed, stored.State)
	assert.Equal(t, "could not be queued", stored.Error)
}

func TestGetRejectsMalformedID(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Get(context.Background(), "../../etc/passwd", 1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestOpenRequiresDoneExport(t *testing.T) {
	f := newFixture(t)
	e, err := f.service.Request(context.Background(), 7, 1, CreateExportRequest{Format: "csv"})
	require.NoError(t, err)

	_, _, err = f.service.Open(context.Background(), e.ID, 1)
	assert.True(t, errors.Is(err, ErrNotReady))
	assert.True(t, errors.Is(err, httpx.ErrNotFound))
}

// ============================================================================
// WORKER
// ============================================================================

func TestWorkerRendersExport(t *testing.T) {
	f := newFixture(t)
	e, err := f.service.Request(context.Background(), 7, 1, CreateExportRequest{From: "2024-01-01", To: "2024-01-31", Format: "csv"})
	require.NoError(t, err)
	builder := &stubBuilder{}

	err = f.worker(builder, stubRenderer{}).Handle(context.Background(), taskFor(t, f.queue.payloads[0]))
	require.NoError(t, err)

	require.Len(t, builder.reqs, 1)
	assert.Equal(t, ledger.OpeningCarryForward, builder.reqs[0].Opening)
	assert.Equal(t, "2024-01-01..2024-01-31", builder.reqs[0].Range.String())

	done, err := f.service.Get(context.Background(), e.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, StateDone, done.State)
	assert.Equal(t, "statement-7-2024-01-01-2024-01-31.csv", done.Filename)
	assert.Equal(t, "/api/exports/"+e.ID+"/download", NewExportResponse(done).DownloadURL)

	got, file, err := f.service.Open(context.Background(), e.ID, 1)
	require.NoError(t, err)
	defer file.Close()
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "csv for Acme Traders", string(body))
	assert.Equal(t, done, got)

	leftovers, err := filepath.Glob(filepath.Join(f.dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestExportsAreVisibleToRequesterOnly(t *testing.T) {
	f := newFixture(t)
	e, err := f.service.Request(context.Background(), 7, 1, CreateExportRequest{From: "2024-01-01", To: "2024-01-31", Format: "csv"})
	require.NoError(t, err)
	require.NoError(t, f.worker(&stubBuilder{}, stubRenderer{}).Handle(context.Background(), taskFor(t, f.queue.payloads[0])))

	_, err = f.service.Get(context.Background(), e.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	_, file, err := f.service.Open(context.Background(), e.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, file)

	_, file, err = f.service.Open(context.Background(), e.ID, 1)
	require.NoError(t, err)
	require.NoError(t, file.Close())
}

func TestWorkerPermanentFailureSkipsRetry(t *testing.T) {
	f := newFixture(t)
	e, err := f.service.Request(context.Background(), 7, 1, CreateExportRequest{Format: "csv"})
	require.NoError(t, err)
	invariant := &ledger.InvariantError{SourceID: ledger.SourceID("SALE", 1), Kind: ledger.KindSale, Reason: "negative amount -1"}

	err = f.worker(&stubBuilder{err: invariant}, stubRenderer{}).Handle(context.Background(), taskFor(t, f.queue.payloads[0]))
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	failed, err := f.service.Get(context.Background(), e.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, failed.State)
	assert.Contains(t, failed.Error, "negative amount")
	assert.Empty(t, NewExportResponse(failed).DownloadURL)
}

func TestWorkerTransientFailureRetries(t *testing.T) {
	f := newFixture(t)
	e, err := f.service.Request(context.Background(), 7, 1, CreateExportRequest{Format: "pdf"})
	require.NoError(t, err)

	err = f.worker(&stubBuilder{}, stubRenderer{err: errors.New("gotenberg: 502: upstream unavailable")}).Handle(context.Background(), taskFor(t, f.queue.payloads[0]))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))

	failed, err := f.service.Get(context.Background(), e.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, failed.State)
	assert.Equal(t, "export failed", failed.Error)

	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWorkerExpiredExport(t *testing.T) {
	f := newFixture(t)
	task := taskFor(t, jobs.StatementExportPayload{ExportID: "4b0f2b6e-6f6c-4c39-9a43-5a0c9d3d7f10", PartyID: 7, Format: "csv"})

	err := f.worker(&stubBuilder{}, stubRenderer{}).Handle(context.Background(), task)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestWorkerRejectsMalformedPayload(t *testing.T) {
	f := newFixture(t)
	err := f.worker(&stubBuilder{}, stubRenderer{}).Handle(context.Background(), asynq.NewTask(jobs.TaskStatementExport, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}
