package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/flowcore-go/flowcore/metrics"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("write: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestObserveStatsIsMonotonic(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := metrics.New("test", reg)

	r.ObserveStats(5, 2, 1, 0)
	r.ObserveStats(9, 4, 1, 1)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatal("expected registered metric families")
	}
	want := map[string]float64{
		"test_fbp_packets_created_total": 9,
		"test_fbp_packets_dropped_total": 1,
		"test_fbp_packets_leaked_total":  1,
	}
	for _, mf := range mfs {
		if w, ok := want[mf.GetName()]; ok {
			if got := mf.GetMetric()[0].GetCounter().GetValue(); got != w {
				t.Fatalf("%s = %v, want %v (the latest total, not a sum of totals)", mf.GetName(), got, w)
			}
		}
	}
}

func TestNilRegistryIsNoOp(t *testing.T) {
	var r *metrics.Registry
	r.ObserveStats(1, 1, 0, 0)
	r.SetConnectionLength("a-b", 3)
	r.SetComponentState("gen", 1)
}
