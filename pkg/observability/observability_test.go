package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOTelRecorderRecording(t *testing.T) {
	ctx := context.Background()
	recorder := &OTelMetricsRecorder{}

	recorder.RecordOrchestratorRun(ctx, 100*time.Millisecond, 6, nil)
	recorder.RecordOrchestratorRun(ctx, 200*time.Millisecond, 6, errors.New("boom"))

	t.Log("orchestrator run metrics recorded successfully (nil-safe instruments)")
}

func TestOTelRecorderActorAsk(t *testing.T) {
	ctx := context.Background()
	recorder := &OTelMetricsRecorder{}

	recorder.RecordActorAsk(ctx, "actor-1", 50*time.Millisecond, nil)
	recorder.RecordActorAsk(ctx, "actor-2", 100*time.Millisecond, nil)

	t.Log("actor ask metrics recorded successfully")
}

func TestOTelRecorderProxyUpstreamCall(t *testing.T) {
	ctx := context.Background()
	recorder := &OTelMetricsRecorder{}

	recorder.RecordProxyUpstreamCall(ctx, "anthropic", 500*time.Millisecond, 100, 50, nil)
	recorder.RecordProxyUpstreamCall(ctx, "openai", 600*time.Millisecond, 150, 75, nil)

	t.Log("proxy upstream call metrics recorded successfully")
}

func TestNoopOTelRecorder(t *testing.T) {
	ctx := context.Background()
	var recorder OTelRecorder = NoopOTelRecorder{}

	recorder.RecordOrchestratorRun(ctx, 100*time.Millisecond, 6, nil)
	recorder.RecordActorAsk(ctx, "actor-1", 50*time.Millisecond, nil)
	recorder.RecordProxyUpstreamCall(ctx, "test-provider", 300*time.Millisecond, 10, 5, nil)

	t.Log("noop OTel recorder handled correctly")
}

func TestNoopMetrics(t *testing.T) {
	var m Recorder = NoopMetrics{}

	m.RecordOrchestratorRun("single", true)
	m.SetMailboxSize("actor-1", 3)
	m.SetBankerAvailable("gpu", 2)

	if m.Handler() == nil {
		t.Fatal("expected non-nil handler")
	}

	t.Log("noop metrics handled correctly")
}

func TestNoopTracer(t *testing.T) {
	tracer := NoopTracer{}

	ctx := context.Background()
	_, span := tracer.Start(ctx, "test_span")
	defer span.End()

	_, span2 := tracer.StartOrchestratorPhase(ctx, "classify", "single", "sess-1")
	defer span2.End()

	t.Log("noop tracer works correctly")
}

func TestGlobalRecorder(t *testing.T) {
	ctx := context.Background()

	_ = GetGlobalRecorder()

	noopRecorder := NoopOTelRecorder{}
	SetGlobalRecorder(noopRecorder)

	retrieved := GetGlobalRecorder()
	if retrieved == nil {
		t.Fatal("expected non-nil recorder after SetGlobalRecorder")
	}

	retrieved.RecordOrchestratorRun(ctx, 100*time.Millisecond, 6, nil)

	t.Log("global recorder management works correctly")
}

func BenchmarkOTelRecorderRecording(b *testing.B) {
	ctx := context.Background()
	recorder := &OTelMetricsRecorder{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		recorder.RecordOrchestratorRun(ctx, 100*time.Millisecond, 6, nil)
	}
}
