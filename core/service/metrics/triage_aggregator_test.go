package metrics

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"

	"triage_server/core/domain"
	"triage_server/core/port/out"
	"triage_server/pkg/snowflake"
)

// memRepo is an in-memory MetricsRepository with the same optimistic
// semantics as the storage adapter: version-checked replace, duplicate-safe
// create, deep copies on every read.
type memRepo struct {
	mu sync.Mutex
	m  *domain.ConsolidatedMetrics
}

func (r *memRepo) Get(ctx context.Context) (*domain.ConsolidatedMetrics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m == nil {
		return nil, nil
	}
	return r.m.Clone(), nil
}

func (r *memRepo) Create(ctx context.Context, m *domain.ConsolidatedMetrics) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m != nil {
		return out.ErrAlreadyExists
	}
	stored := m.Clone()
	stored.Version = 1
	r.m = stored
	return nil
}

func (r *memRepo) CompareAndSwap(ctx context.Context, m *domain.ConsolidatedMetrics, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m == nil || r.m.Version != expectedVersion {
		return out.ErrVersionConflict
	}
	stored := m.Clone()
	stored.Version = expectedVersion + 1
	r.m = stored
	return nil
}

// memArchive is an in-memory append-only EvaluationLog.
type memArchive struct {
	mu   sync.Mutex
	recs []*domain.EvaluationRecord
}

func (a *memArchive) Append(ctx context.Context, rec *domain.EvaluationRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := *rec
	a.recs = append(a.recs, &cp)
	return nil
}

func (a *memArchive) ListAll(ctx context.Context) ([]*domain.EvaluationRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*domain.EvaluationRecord(nil), a.recs...), nil
}

// hookedArchive fires a callback right after a listing is taken, so tests
// can interleave writes into the window between listing and swap.
type hookedArchive struct {
	*memArchive
	afterList func()
}

func (a *hookedArchive) ListAll(ctx context.Context) ([]*domain.EvaluationRecord, error) {
	recs, err := a.memArchive.ListAll(ctx)
	if a.afterList != nil {
		hook := a.afterList
		a.afterList = nil
		hook()
	}
	return recs, err
}

func newTestService(t *testing.T, opts ...Option) (*Service, *memRepo) {
	t.Helper()
	gen, err := snowflake.NewGenerator(1)
	if err != nil {
		t.Fatal(err)
	}
	repo := &memRepo{}
	return NewService(repo, gen, opts...), repo
}

func TestRecordRejectsInvalid(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name string
		rec  domain.EvaluationRecord
	}{
		{"nps out of range", domain.EvaluationRecord{NPS: 50}},
		{"negative response time", domain.EvaluationRecord{NPS: domain.NPSPassive, ResponseTimeSec: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Record(context.Background(), &tt.rec); err == nil {
				t.Error("Record() error = nil, want validation error")
			}
		})
	}
}

func TestRecordAssignsID(t *testing.T) {
	svc, _ := newTestService(t)

	rec := &domain.EvaluationRecord{NPS: domain.NPSPromoter, ResponseTimeSec: 30}
	if _, err := svc.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if rec.ID == 0 {
		t.Error("ID = 0, want assigned")
	}
	if rec.Timestamp.IsZero() {
		t.Error("Timestamp is zero, want assigned")
	}
}

func TestRecordSequential(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	recs := []domain.EvaluationRecord{
		{ResponseTimeSec: 30, Satisfaction: 5, Efficiency: 4, Assertiveness: 5, NPS: domain.NPSPromoter},
		{ResponseTimeSec: 60, Satisfaction: 3, Efficiency: 3, Assertiveness: 3, NPS: domain.NPSPassive},
		{ResponseTimeSec: 90, Satisfaction: 1, Efficiency: 2, Assertiveness: 1, NPS: domain.NPSDetractor},
		{ResponseTimeSec: 20, Satisfaction: 5, Efficiency: 5, Assertiveness: 5, NPS: domain.NPSPromoter},
	}
	for i := range recs {
		if _, err := svc.Record(ctx, &recs[i]); err != nil {
			t.Fatalf("Record(%d) error = %v", i, err)
		}
	}

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalCount != len(recs) {
		t.Errorf("TotalCount = %d, want %d", got.TotalCount, len(recs))
	}
	if len(got.Evaluations) != got.TotalCount {
		t.Errorf("len(Evaluations) = %d, want TotalCount %d", len(got.Evaluations), got.TotalCount)
	}
	if len(got.NPSHistory) != got.TotalCount {
		t.Errorf("len(NPSHistory) = %d, want TotalCount %d", len(got.NPSHistory), got.TotalCount)
	}

	wantAvg := domain.MetricAverages{
		ResponseTimeSec: 50,   // (30+60+90+20)/4
		Satisfaction:    3.5,  // (5+3+1+5)/4
		Efficiency:      3.5,  // (4+3+2+5)/4
		Assertiveness:   3.5,  // (5+3+1+5)/4
	}
	if math.Abs(got.Averages.ResponseTimeSec-wantAvg.ResponseTimeSec) > 1e-9 ||
		math.Abs(got.Averages.Satisfaction-wantAvg.Satisfaction) > 1e-9 ||
		math.Abs(got.Averages.Efficiency-wantAvg.Efficiency) > 1e-9 ||
		math.Abs(got.Averages.Assertiveness-wantAvg.Assertiveness) > 1e-9 {
		t.Errorf("Averages = %+v, want %+v", got.Averages, wantAvg)
	}

	// 2 promoters, 1 detractor of 4: 50 - 25 = 25
	if got.GlobalNPS != 25 {
		t.Errorf("GlobalNPS = %d, want 25", got.GlobalNPS)
	}
	if got.Version != int64(len(recs)) {
		t.Errorf("Version = %d, want %d", got.Version, len(recs))
	}
}

func TestRecordRandomized(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	n := 200
	npsValues := []int{domain.NPSPromoter, domain.NPSPassive, domain.NPSDetractor}

	var sumResponse, sumSatisfaction, sumEfficiency, sumAssertiveness float64
	var promoters, detractors int

	for i := 0; i < n; i++ {
		rec := &domain.EvaluationRecord{
			ResponseTimeSec: rng.Intn(600),
			Satisfaction:    1 + rng.Float64()*4,
			Efficiency:      1 + rng.Float64()*4,
			Assertiveness:   1 + rng.Float64()*4,
			NPS:             npsValues[rng.Intn(len(npsValues))],
		}
		sumResponse += float64(rec.ResponseTimeSec)
		sumSatisfaction += rec.Satisfaction
		sumEfficiency += rec.Efficiency
		sumAssertiveness += rec.Assertiveness
		switch rec.NPS {
		case domain.NPSPromoter:
			promoters++
		case domain.NPSDetractor:
			detractors++
		}

		if _, err := svc.Record(ctx, rec); err != nil {
			t.Fatalf("Record(%d) error = %v", i, err)
		}
	}

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalCount != n {
		t.Errorf("TotalCount = %d, want %d", got.TotalCount, n)
	}
	if len(got.Evaluations) != n || len(got.NPSHistory) != n {
		t.Errorf("len(Evaluations)/len(NPSHistory) = %d/%d, want %d", len(got.Evaluations), len(got.NPSHistory), n)
	}

	// Incremental averages must equal the exact mean of the inputs.
	fn := float64(n)
	if math.Abs(got.Averages.ResponseTimeSec-sumResponse/fn) > 1e-9 {
		t.Errorf("Averages.ResponseTimeSec = %v, want %v", got.Averages.ResponseTimeSec, sumResponse/fn)
	}
	if math.Abs(got.Averages.Satisfaction-sumSatisfaction/fn) > 1e-9 {
		t.Errorf("Averages.Satisfaction = %v, want %v", got.Averages.Satisfaction, sumSatisfaction/fn)
	}
	if math.Abs(got.Averages.Efficiency-sumEfficiency/fn) > 1e-9 {
		t.Errorf("Averages.Efficiency = %v, want %v", got.Averages.Efficiency, sumEfficiency/fn)
	}
	if math.Abs(got.Averages.Assertiveness-sumAssertiveness/fn) > 1e-9 {
		t.Errorf("Averages.Assertiveness = %v, want %v", got.Averages.Assertiveness, sumAssertiveness/fn)
	}

	wantNPS := (100*promoters)/n - (100*detractors)/n
	if got.GlobalNPS != wantNPS {
		t.Errorf("GlobalNPS = %d, want %d", got.GlobalNPS, wantNPS)
	}
}

func TestRecordConcurrentNoLostUpdate(t *testing.T) {
	svc, repo := newTestService(t, WithMaxRetries(50))
	ctx := context.Background()

	writers := 8
	perWriter := 5
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				rec := &domain.EvaluationRecord{
					ResponseTimeSec: 10,
					Satisfaction:    4,
					NPS:             domain.NPSPromoter,
				}
				if _, err := svc.Record(ctx, rec); err != nil {
					t.Errorf("Record() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, err := repo.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := writers * perWriter; got.TotalCount != want {
		t.Errorf("TotalCount = %d, want %d (lost update)", got.TotalCount, want)
	}
	if got.GlobalNPS != 100 {
		t.Errorf("GlobalNPS = %d, want 100", got.GlobalNPS)
	}
}

func TestCurrentEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.Current(context.Background())
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if got.TotalCount != 0 || got.GlobalNPS != 0 {
		t.Errorf("empty aggregate = %+v, want zero counts", got)
	}
	if got.Evaluations == nil || got.NPSHistory == nil {
		t.Error("history slices are nil, want empty")
	}
}

func TestRebuildMatchesIncremental(t *testing.T) {
	archive := &memArchive{}
	svc, repo := newTestService(t, WithArchive(archive))
	ctx := context.Background()

	recs := []domain.EvaluationRecord{
		{ResponseTimeSec: 45, Satisfaction: 4, Efficiency: 4, Assertiveness: 3, NPS: domain.NPSPromoter},
		{ResponseTimeSec: 15, Satisfaction: 2, Efficiency: 3, Assertiveness: 2, NPS: domain.NPSDetractor},
		{ResponseTimeSec: 30, Satisfaction: 3, Efficiency: 3, Assertiveness: 3, NPS: domain.NPSPassive},
	}
	for i := range recs {
		if _, err := svc.Record(ctx, &recs[i]); err != nil {
			t.Fatalf("Record(%d) error = %v", i, err)
		}
	}

	before, _ := repo.Get(ctx)

	rebuilt, err := svc.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	if rebuilt.TotalCount != before.TotalCount {
		t.Errorf("TotalCount = %d, want %d", rebuilt.TotalCount, before.TotalCount)
	}
	if rebuilt.GlobalNPS != before.GlobalNPS {
		t.Errorf("GlobalNPS = %d, want %d", rebuilt.GlobalNPS, before.GlobalNPS)
	}
	if rebuilt.Averages != before.Averages {
		t.Errorf("Averages = %+v, want %+v", rebuilt.Averages, before.Averages)
	}
	if rebuilt.Version != before.Version+1 {
		t.Errorf("Version = %d, want %d", rebuilt.Version, before.Version+1)
	}

	// Idempotent: rebuilding again yields the same aggregate.
	again, err := svc.Rebuild(ctx)
	if err != nil {
		t.Fatalf("second Rebuild() error = %v", err)
	}
	if again.TotalCount != rebuilt.TotalCount || again.GlobalNPS != rebuilt.GlobalNPS || again.Averages != rebuilt.Averages {
		t.Errorf("second rebuild diverged: %+v vs %+v", again, rebuilt)
	}
}

func TestRebuildKeepsRecordCommittedDuringListing(t *testing.T) {
	archive := &hookedArchive{memArchive: &memArchive{}}
	svc, repo := newTestService(t, WithArchive(archive))
	ctx := context.Background()

	seed := []domain.EvaluationRecord{
		{ResponseTimeSec: 30, Satisfaction: 4, NPS: domain.NPSPromoter},
		{ResponseTimeSec: 60, Satisfaction: 2, NPS: domain.NPSDetractor},
	}
	for i := range seed {
		if _, err := svc.Record(ctx, &seed[i]); err != nil {
			t.Fatalf("Record(%d) error = %v", i, err)
		}
	}

	// Commit one more evaluation right after the rebuild takes its listing:
	// the aggregate then holds 3 evaluations while the listing saw only 2.
	archive.afterList = func() {
		rec := &domain.EvaluationRecord{ResponseTimeSec: 10, Satisfaction: 5, NPS: domain.NPSPromoter}
		if _, err := svc.Record(ctx, rec); err != nil {
			t.Errorf("interleaved Record() error = %v", err)
		}
	}

	rebuilt, err := svc.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	if rebuilt.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3 (interleaved evaluation dropped)", rebuilt.TotalCount)
	}

	got, _ := repo.Get(ctx)
	if got.TotalCount != 3 {
		t.Errorf("stored TotalCount = %d, want 3", got.TotalCount)
	}
	// 2 promoters, 1 detractor of 3: floor(200/3) - floor(100/3) = 66 - 33
	if got.GlobalNPS != 33 {
		t.Errorf("GlobalNPS = %d, want 33", got.GlobalNPS)
	}
}

func TestGlobalNPSFloorDivision(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	// 1 promoter, 1 detractor, 1 passive: 33 - 33 = 0
	for _, nps := range []int{domain.NPSPromoter, domain.NPSDetractor, domain.NPSPassive} {
		rec := &domain.EvaluationRecord{ResponseTimeSec: 10, NPS: nps}
		if _, err := svc.Record(ctx, rec); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, _ := repo.Get(ctx)
	if got.GlobalNPS != 0 {
		t.Errorf("GlobalNPS = %d, want 0 (floor(100/3) - floor(100/3))", got.GlobalNPS)
	}
}
