package metrics

import (
	"strings"
	"testing"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected 3 observations, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected per-bucket counts: %v", snap.counts)
	}
}

func TestRenderIncludesPipelineCounters(t *testing.T) {
	IncPipelineStarted()
	IncLLMRetry()
	IncDocRendered(false)

	out := Render()
	for _, name := range []string{
		"resume_pipeline_started_total",
		"llm_retries_total",
		"feedback_docs_failed_total",
		"resume_pipeline_duration_ms_bucket{le=\"+Inf\"}",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output:\n%s", name, out)
		}
	}
}
