package diag

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ticksched/internal/sched"
	logx "ticksched/pkg/logx"
)

type fakeSource struct {
	snap sched.Snapshot
}

func (f *fakeSource) Snapshot() sched.Snapshot { return f.snap }

func testSnapshot() sched.Snapshot {
	return sched.Snapshot{
		Schedules: []sched.ScheduleInfo{
			{ID: 1, Enabled: true, TimeToWait: 5, Period: 10, Recurrence: -1},
			{ID: 2, Enabled: false, TimeToWait: 3, Period: 3, Recurrence: 2,
				Profile: &sched.ProfileStats{Active: true, Count: 4,
					Last: time.Millisecond, Best: time.Millisecond, Worst: 2 * time.Millisecond}},
		},
		TotalLoops:      10,
		ProductiveLoops: 4,
	}
}

func newTestService(t *testing.T, cfg Config) *Service {
	t.Helper()
	cfg.Enabled = true
	return New(cfg, &fakeSource{snap: testSnapshot()}, nil, logx.Nop())
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code, rec.Body.String()
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{})
	code, body := get(t, s.router(), "/healthz")
	if code != http.StatusOK || body != "ok" {
		t.Fatalf("healthz = %d %q", code, body)
	}
}

func TestSchedulesEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{})
	r := s.router()

	code, body := get(t, r, "/api/schedules")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !strings.Contains(body, "[1, YES, 5, 10, -1, NO, NO, NO]") ||
		!strings.Contains(body, "[2, NO, 3, 3, 2, NO, NO, YES]") {
		t.Fatalf("body = %q", body)
	}

	code, body = get(t, r, "/api/schedules?active=1")
	if code != http.StatusOK || strings.Contains(body, "[2, ") {
		t.Fatalf("active filter leaked disabled row: %d %q", code, body)
	}
}

func TestScheduleByID(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{})
	r := s.router()

	code, body := get(t, r, "/api/schedules/1")
	if code != http.StatusOK || !strings.Contains(body, "[1, YES,") {
		t.Fatalf("by id = %d %q", code, body)
	}

	code, body = get(t, r, "/api/schedules/99")
	if code != http.StatusOK || !strings.Contains(body, "NOT FOUND") {
		t.Fatalf("unknown id = %d %q", code, body)
	}

	code, _ = get(t, r, "/api/schedules/zero")
	if code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", code)
	}
}

func TestProfilingEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{})
	r := s.router()

	code, body := get(t, r, "/api/profiling")
	if code != http.StatusOK || !strings.Contains(body, "[2, YES, 4,") {
		t.Fatalf("all profiles = %d %q", code, body)
	}

	code, body = get(t, r, "/api/profiling/1")
	if code != http.StatusOK || !strings.Contains(body, "NOT FOUND") {
		t.Fatalf("unprofiled id = %d %q", code, body)
	}
}

func TestOverheadEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{})
	code, body := get(t, s.router(), "/api/overhead")
	if code != http.StatusOK || !strings.Contains(body, "total_loops=10 productive_loops=4") {
		t.Fatalf("overhead = %d %q", code, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "diag_test_gauge"})
	reg.MustRegister(g)
	g.Set(7)

	s := New(Config{Enabled: true}, &fakeSource{}, reg, logx.Nop())
	code, body := get(t, s.router(), "/metrics")
	if code != http.StatusOK || !strings.Contains(body, "diag_test_gauge 7") {
		t.Fatalf("metrics = %d %q", code, body)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{RatePerSec: 1})
	r := s.router()

	if code, _ := get(t, r, "/api/schedules"); code != http.StatusOK {
		t.Fatalf("first request = %d", code)
	}
	if code, _ := get(t, r, "/api/schedules"); code != http.StatusTooManyRequests {
		t.Fatalf("second request not limited: %d", code)
	}
	// healthz bypasses the limiter
	if code, _ := get(t, r, "/healthz"); code != http.StatusOK {
		t.Fatalf("healthz limited: %d", code)
	}
}

func TestStartStop(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(ctx)

	addr := s.Addr()
	if addr == "" {
		t.Fatal("no listen address after Start")
	}
	resp, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("healthz over tcp = %d %q", resp.StatusCode, body)
	}

	s.Stop(ctx)
	if s.Addr() != "" {
		t.Fatal("address still set after Stop")
	}
}

func TestApplyDisableStopsServer(t *testing.T) {
	t.Parallel()
	s := newTestService(t, Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Apply(ctx, Config{Enabled: false}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if s.Addr() != "" {
		t.Fatal("server still listening after disable")
	}
}
