package vectorindex

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/chunklink/internal/config"
)

// Test Plan for the vector index:
// - UpsertBatched issues ceil(N/size) calls, each <= size, ids 0..N-1 exactly once
// - A failing batch names itself and stops later batches
// - Qdrant: create_if_absent creates a missing collection and keeps an existing one
// - Qdrant: recreate deletes then creates
// - Qdrant: dimension conflicts on an existing collection fail
// - Qdrant: upsert waits, search returns payloads converted back to plain values
// - Qdrant: calls carry a deadline only when a timeout is configured
// - Chromem: in-memory provision, upsert and search, recreate drops data
// - New picks the configured backend

type recordingIndex struct {
	batches [][]Point
	failAt  int
}

func (r *recordingIndex) Provision(ctx context.Context, policy string, dimensions int) error {
	return nil
}

func (r *recordingIndex) Upsert(ctx context.Context, points []Point) error {
	if r.failAt > 0 && len(r.batches)+1 == r.failAt {
		return errors.New("connection reset")
	}
	r.batches = append(r.batches, points)
	return nil
}

func (r *recordingIndex) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	return nil, nil
}

func (r *recordingIndex) Close() error { return nil }

func makePoints(n int) []Point {
	points := make([]Point, n)
	for i := range points {
		points[i] = Point{ID: i, Vector: []float32{1, 0}, Payload: map[string]any{"name": "p"}}
	}
	return points
}

func TestUpsertBatched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n         int
		wantCalls int
	}{
		{0, 0},
		{1, 1},
		{500, 1},
		{501, 2},
		{1234, 3},
	}

	for _, tt := range tests {
		idx := &recordingIndex{}
		var progress []int
		err := UpsertBatched(context.Background(), idx, makePoints(tt.n), 500, func(batch, total, points int) {
			progress = append(progress, points)
		})
		require.NoError(t, err)
		assert.Len(t, idx.batches, tt.wantCalls, "n=%d", tt.n)

		seen := make(map[int]int)
		for _, b := range idx.batches {
			assert.LessOrEqual(t, len(b), 500)
			for _, p := range b {
				seen[p.ID]++
			}
		}
		assert.Len(t, seen, tt.n)
		for id := 0; id < tt.n; id++ {
			assert.Equal(t, 1, seen[id], "id %d", id)
		}
		if tt.n > 0 {
			assert.Equal(t, tt.n, progress[len(progress)-1])
		}
	}
}

func TestUpsertBatched_FailureNamesBatch(t *testing.T) {
	t.Parallel()

	idx := &recordingIndex{failAt: 2}
	err := UpsertBatched(context.Background(), idx, makePoints(1200), 500, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch 2/3 failed")
	assert.Len(t, idx.batches, 1, "the first batch stays written")

	err = UpsertBatched(context.Background(), idx, makePoints(1), 0, nil)
	require.Error(t, err)
}

// fakeQdrant is an in-memory qdrantClient.
type fakeQdrant struct {
	mu        sync.Mutex
	exists    bool
	size      uint64
	distance  qdrant.Distance
	points    map[uint64]*qdrant.PointStruct
	calls     []string
	upsertErr error
	deadline  bool
}

func (f *fakeQdrant) record(ctx context.Context, call string) {
	f.calls = append(f.calls, call)
	if _, ok := ctx.Deadline(); ok {
		f.deadline = true
	}
}

func (f *fakeQdrant) CollectionExists(ctx context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(ctx, "exists "+name)
	return f.exists, nil
}

func (f *fakeQdrant) GetCollectionInfo(ctx context.Context, name string) (*qdrant.CollectionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(ctx, "info "+name)
	return &qdrant.CollectionInfo{
		Config: &qdrant.CollectionConfig{
			Params: &qdrant.CollectionParams{
				VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{Size: f.size, Distance: f.distance}),
			},
		},
	}, nil
}

func (f *fakeQdrant) DeleteCollection(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(ctx, "delete "+name)
	f.exists = false
	f.points = nil
	return nil
}

func (f *fakeQdrant) CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(ctx, "create "+req.GetCollectionName())
	params := req.GetVectorsConfig().GetParams()
	f.exists = true
	f.size = params.GetSize()
	f.distance = params.GetDistance()
	f.points = map[uint64]*qdrant.PointStruct{}
	return nil
}

func (f *fakeQdrant) Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(ctx, "upsert "+req.GetCollectionName())
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	if !req.GetWait() {
		return nil, errors.New("upsert without wait")
	}
	for _, p := range req.GetPoints() {
		f.points[p.GetId().GetNum()] = p
	}
	return &qdrant.UpdateResult{Status: qdrant.UpdateStatus_Completed}, nil
}

func (f *fakeQdrant) Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(ctx, "query "+req.GetCollectionName())
	if !req.GetWithPayload().GetEnable() {
		return nil, errors.New("query without payload")
	}
	p, ok := f.points[0]
	if !ok || req.GetLimit() == 0 {
		return nil, nil
	}
	return []*qdrant.ScoredPoint{{Id: p.GetId(), Score: 0.9, Payload: p.GetPayload()}}, nil
}

func (f *fakeQdrant) Close() error { return nil }

func TestQdrant_CreateIfAbsent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := &fakeQdrant{}
	q := newQdrant(fake, "code_chunks", 0)

	require.NoError(t, q.Provision(ctx, config.ProvisionCreateIfAbsent, 4))
	assert.Equal(t, []string{"exists code_chunks", "create code_chunks"}, fake.calls)
	assert.Equal(t, uint64(4), fake.size)
	assert.Equal(t, qdrant.Distance_Cosine, fake.distance)

	require.NoError(t, q.Upsert(ctx, []Point{{
		ID:      0,
		Vector:  []float32{1, 0, 0, 0},
		Payload: map[string]any{"name": "Foo", "start_line": 3, "selectors": []string{"btn1"}},
	}}))

	// existing collection is kept
	fake.calls = nil
	require.NoError(t, q.Provision(ctx, config.ProvisionCreateIfAbsent, 4))
	assert.Equal(t, []string{"exists code_chunks", "info code_chunks"}, fake.calls)
	assert.Len(t, fake.points, 1)

	hits, err := q.Search(ctx, []float32{1, 0, 0, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].ID)
	assert.Equal(t, "Foo", hits[0].Payload["name"])
	assert.Equal(t, float64(3), hits[0].Payload["start_line"])
	assert.Equal(t, []any{"btn1"}, hits[0].Payload["selectors"])
	assert.False(t, fake.deadline, "no timeout unless configured")
}

func TestQdrant_Recreate(t *testing.T) {
	t.Parallel()

	fake := &fakeQdrant{exists: true, size: 4, points: map[uint64]*qdrant.PointStruct{0: {Id: qdrant.NewIDNum(0)}}}
	q := newQdrant(fake, "code_chunks", 0)

	require.NoError(t, q.Provision(context.Background(), config.ProvisionRecreate, 8))
	assert.Equal(t, []string{
		"exists code_chunks",
		"delete code_chunks",
		"create code_chunks",
	}, fake.calls)
	assert.Empty(t, fake.points)
	assert.Equal(t, uint64(8), fake.size)
}

func TestQdrant_DimensionConflict(t *testing.T) {
	t.Parallel()

	fake := &fakeQdrant{exists: true, size: 384}
	err := newQdrant(fake, "code_chunks", 0).Provision(context.Background(), config.ProvisionCreateIfAbsent, 1024)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionConflict)

	err = newQdrant(fake, "code_chunks", 0).Provision(context.Background(), "sometimes", 1024)
	assert.ErrorIs(t, err, config.ErrInvalidProvisioning)
}

func TestQdrant_UpsertFailure(t *testing.T) {
	t.Parallel()

	unavailable := errors.New("rpc error: code = Unavailable desc = overloaded")
	fake := &fakeQdrant{exists: true, size: 2, points: map[uint64]*qdrant.PointStruct{}, upsertErr: unavailable}

	err := newQdrant(fake, "code_chunks", 0).Upsert(context.Background(), makePoints(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, unavailable)
	assert.Contains(t, err.Error(), "2 points")
}

func TestQdrant_Timeout(t *testing.T) {
	t.Parallel()

	fake := &fakeQdrant{}
	q := newQdrant(fake, "code_chunks", 30*time.Second)
	require.NoError(t, q.Provision(context.Background(), config.ProvisionCreateIfAbsent, 2))
	assert.True(t, fake.deadline, "calls are bounded by the configured timeout")
}

func TestChromem_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, err := NewChromem("", "code_chunks")
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Search(ctx, []float32{1, 0}, 1)
	require.Error(t, err, "searching before the collection exists fails")

	require.NoError(t, c.Provision(ctx, config.ProvisionCreateIfAbsent, 2))
	require.NoError(t, c.Upsert(ctx, []Point{
		{ID: 0, Vector: []float32{1, 0}, Payload: map[string]any{"name": "east", "code": "e()"}},
		{ID: 1, Vector: []float32{0, 1}, Payload: map[string]any{"name": "north", "code": "n()"}},
	}))

	hits, err := c.Search(ctx, []float32{0.1, 0.9}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2, "limit is capped at the collection size")
	assert.Equal(t, 1, hits[0].ID)
	assert.Equal(t, "north", hits[0].Payload["name"])
	assert.Greater(t, hits[0].Score, hits[1].Score)

	require.NoError(t, c.Provision(ctx, config.ProvisionRecreate, 2))
	hits, err = c.Search(ctx, []float32{0.1, 0.9}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestChromem_Persistent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	c, err := NewChromem(dir, "code_chunks")
	require.NoError(t, err)
	require.NoError(t, c.Provision(ctx, config.ProvisionCreateIfAbsent, 2))
	require.NoError(t, c.Upsert(ctx, []Point{{ID: 7, Vector: []float32{1, 0}, Payload: map[string]any{"name": "kept"}}}))

	reopened, err := NewChromem(dir, "code_chunks")
	require.NoError(t, err)
	hits, err := reopened.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 7, hits[0].ID)
	assert.Equal(t, "kept", hits[0].Payload["name"])
}

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	idx, err := New(cfg, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &Qdrant{}, idx)

	cfg.VectorIndex.Backend = config.BackendChromem
	idx, err = New(cfg, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &Chromem{}, idx)

	cfg.VectorIndex.Backend = "faiss"
	_, err = New(cfg, t.TempDir())
	assert.ErrorIs(t, err, config.ErrInvalidBackend)
}
