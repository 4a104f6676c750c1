package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	pipelineStartedTotal   atomic.Uint64
	pipelineCompletedTotal atomic.Uint64
	pipelineFailedTotal    atomic.Uint64
	llmRetriesTotal        atomic.Uint64
	llmRateLimitedTotal    atomic.Uint64
	docsRenderedTotal      atomic.Uint64
	docsFailedTotal        atomic.Uint64

	pipelineDuration = newHistogram([]float64{500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncPipelineStarted increments the started counter.
func IncPipelineStarted() {
	pipelineStartedTotal.Add(1)
}

// IncPipelineCompleted increments the completed counter.
func IncPipelineCompleted() {
	pipelineCompletedTotal.Add(1)
}

// IncPipelineFailed increments the failed counter.
func IncPipelineFailed() {
	pipelineFailedTotal.Add(1)
}

// IncLLMRetry counts one retried LLM attempt.
func IncLLMRetry() {
	llmRetriesTotal.Add(1)
}

// IncLLMRateLimited counts invocations that gave up after exhausting retries.
func IncLLMRateLimited() {
	llmRateLimitedTotal.Add(1)
}

// IncDocRendered counts rendered feedback documents; ok=false counts failures.
func IncDocRendered(ok bool) {
	if ok {
		docsRenderedTotal.Add(1)
		return
	}
	docsFailedTotal.Add(1)
}

// ObservePipelineDurationMs records a pipeline duration in milliseconds.
func ObservePipelineDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	pipelineDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "resume_pipeline_started_total", "Total resume pipelines started", pipelineStartedTotal.Load())
	writeCounter(&buf, "resume_pipeline_completed_total", "Total resume pipelines completed", pipelineCompletedTotal.Load())
	writeCounter(&buf, "resume_pipeline_failed_total", "Total resume pipelines failed", pipelineFailedTotal.Load())
	writeCounter(&buf, "llm_retries_total", "Total retried LLM attempts", llmRetriesTotal.Load())
	writeCounter(&buf, "llm_rate_limited_total", "Total LLM invocations that exhausted retries", llmRateLimitedTotal.Load())
	writeCounter(&buf, "feedback_docs_rendered_total", "Total feedback documents rendered", docsRenderedTotal.Load())
	writeCounter(&buf, "feedback_docs_failed_total", "Total feedback document renders that failed", docsFailedTotal.Load())
	writeHistogram(&buf, "resume_pipeline_duration_ms", "Resume pipeline duration in milliseconds", pipelineDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
