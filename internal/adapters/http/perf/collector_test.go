package perf

import (
	"sync"
	"testing"
	"time"
)

// TestCollector_SnapshotGroupsByKind verifies requests, queries and upstream calls aggregate separately.
func TestCollector_SnapshotGroupsByKind(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()

	c.Record(Entry{Kind: KindRequest, Path: "GET /dashboard", StatusCode: 200, DurationMs: 10, Timestamp: now})
	c.Record(Entry{Kind: KindRequest, Path: "GET /dashboard", StatusCode: 200, DurationMs: 30, Timestamp: now})
	c.Record(Entry{Kind: KindQuery, Path: "QueryRowContext", DurationMs: 5, Timestamp: now})
	c.Record(Entry{Kind: KindUpstream, Path: "api.GET /participation/user/{id}", StatusCode: 200, DurationMs: 40, Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.TotalRecorded != 4 {
		t.Errorf("TotalRecorded = %d, want 4", snap.TotalRecorded)
	}
	if len(snap.SlowestPaths) != 1 || snap.SlowestPaths[0].AvgMs != 20 {
		t.Fatalf("SlowestPaths = %+v, want one path averaging 20ms", snap.SlowestPaths)
	}
	if len(snap.SlowestQueries) != 1 {
		t.Errorf("SlowestQueries len = %d, want 1", len(snap.SlowestQueries))
	}
	if len(snap.SlowestUpstream) != 1 || snap.SlowestUpstream[0].MaxMs != 40 {
		t.Errorf("SlowestUpstream = %+v", snap.SlowestUpstream)
	}
}

// TestCollector_UpstreamErrors verifies network failures and 5xx count as upstream errors, 4xx do not.
func TestCollector_UpstreamErrors(t *testing.T) {
	c := NewCollector(10)
	now := time.Now()
	for _, status := range []int{0, 404, 422, 500, 503, 201} {
		c.Record(Entry{Kind: KindUpstream, Path: "api.POST /participation", StatusCode: status, DurationMs: 1, Timestamp: now})
	}

	snap := c.Snapshot(now.Add(-time.Minute), 5)
	if snap.UpstreamErrors != 3 {
		t.Errorf("UpstreamErrors = %d, want 3", snap.UpstreamErrors)
	}
}

// TestCollector_RingBuffer_Overwrites verifies oldest entries are overwritten when full.
func TestCollector_RingBuffer_Overwrites(t *testing.T) {
	c := NewCollector(3)
	now := time.Now()

	for i := 0; i < 5; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /login", DurationMs: float64(i), Timestamp: now})
	}

	if c.TotalRecorded() != 5 {
		t.Errorf("TotalRecorded = %d, want 5", c.TotalRecorded())
	}

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if len(snap.SlowestPaths) != 1 {
		t.Fatalf("SlowestPaths len = %d, want 1", len(snap.SlowestPaths))
	}
	if snap.SlowestPaths[0].Count != 3 {
		t.Errorf("Count = %d, want 3 (ring buffer kept last 3)", snap.SlowestPaths[0].Count)
	}
}

// TestCollector_Percentiles verifies P50/P95/P99 calculation.
func TestCollector_Percentiles(t *testing.T) {
	c := NewCollector(200)
	now := time.Now()

	for i := 1; i <= 100; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /p", DurationMs: float64(i), Timestamp: now})
	}

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	if snap.RequestP50Ms < 49 || snap.RequestP50Ms > 51 {
		t.Errorf("P50 = %v, want ~50", snap.RequestP50Ms)
	}
	if snap.RequestP95Ms < 94 || snap.RequestP95Ms > 96 {
		t.Errorf("P95 = %v, want ~95", snap.RequestP95Ms)
	}
	if snap.RequestP99Ms < 98 || snap.RequestP99Ms > 100 {
		t.Errorf("P99 = %v, want ~99", snap.RequestP99Ms)
	}
}

// TestCollector_Snapshot_FiltersBySince verifies old entries are excluded.
func TestCollector_Snapshot_FiltersBySince(t *testing.T) {
	c := NewCollector(100)
	old := time.Now().Add(-2 * time.Hour)
	recent := time.Now()

	c.Record(Entry{Kind: KindRequest, Path: "GET /old", DurationMs: 100, Timestamp: old})
	c.Record(Entry{Kind: KindRequest, Path: "GET /new", DurationMs: 10, Timestamp: recent})

	snap := c.Snapshot(time.Now().Add(-1*time.Hour), 10)
	if len(snap.SlowestPaths) != 1 {
		t.Fatalf("SlowestPaths len = %d, want 1 (old entry filtered)", len(snap.SlowestPaths))
	}
	if snap.SlowestPaths[0].Path != "GET /new" {
		t.Errorf("Path = %q, want GET /new", snap.SlowestPaths[0].Path)
	}
}

// TestCollector_NilSafe verifies a nil collector can be recorded into.
func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.Record(Entry{Kind: KindRequest, Path: "GET /", Timestamp: time.Now()})
	if c.TotalRecorded() != 0 {
		t.Errorf("TotalRecorded = %d, want 0", c.TotalRecorded())
	}
}

// TestCollector_ConcurrentWrites verifies goroutine safety of Record.
func TestCollector_ConcurrentWrites(t *testing.T) {
	c := NewCollector(1000)
	now := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				c.Record(Entry{Kind: KindUpstream, Path: "api.GET /x", DurationMs: float64(n), Timestamp: now})
			}
		}(i)
	}
	wg.Wait()
	if c.TotalRecorded() != 1000 {
		t.Errorf("TotalRecorded = %d, want 1000", c.TotalRecorded())
	}
}

// BenchmarkCollectorRecord measures per-call cost of Record().
func BenchmarkCollectorRecord(b *testing.B) {
	c := NewCollector(DefaultRingSize)
	e := Entry{Kind: KindRequest, Path: "GET /bench", StatusCode: 200, DurationMs: 1.5, Timestamp: time.Now()}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Record(e)
	}
}

func TestRouteTemplate(t *testing.T) {
	tests := map[string]string{
		"/participation/user/42":             "/participation/user/{id}",
		"/dashboard/participations/7/delete": "/dashboard/participations/{id}/delete",
		"/login":                             "/login",
		"/":                                  "/",
		"/v2/x":                              "/v2/x",
	}
	for in, want := range tests {
		if got := RouteTemplate(in); got != want {
			t.Errorf("RouteTemplate(%q) = %q, want %q", in, got, want)
		}
	}
}
