package prom

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"sourplanet/internal/adapter/metrics/inmemory"
)

func TestRecorder_CountsByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	r.RecordSuccess("click")
	r.RecordSuccess("click")
	r.RecordRejected("locked_upgrade")
	r.RecordConflict()

	if got := testutil.ToFloat64(r.actions.WithLabelValues("click")); got != 2 {
		t.Fatalf("expected 2 clicks, got %v", got)
	}
	if got := testutil.ToFloat64(r.rejected.WithLabelValues("locked_upgrade")); got != 1 {
		t.Fatalf("expected 1 locked rejection, got %v", got)
	}
	if got := testutil.ToFloat64(r.conflicts); got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}
	if got := testutil.ToFloat64(r.failures); got != 0 {
		t.Fatalf("expected no failures, got %v", got)
	}
}

func TestFanout_ForwardsToEveryRecorder(t *testing.T) {
	mem := inmemory.NewRecorder()
	p := NewRecorder(prometheus.NewRegistry())
	f := Fanout{mem, p}
	f.RecordSuccess("sync")
	f.RecordFailure()

	if mem.Snapshot().ByAction["sync"] != 1 || mem.Snapshot().ActionFailure != 1 {
		t.Fatalf("expected in-memory recorder to see both records, got %#v", mem.Snapshot())
	}
	if got := testutil.ToFloat64(p.actions.WithLabelValues("sync")); got != 1 {
		t.Fatalf("expected prometheus sync count 1, got %v", got)
	}
}
