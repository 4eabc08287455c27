package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnScoreStart(ctx, "base", 12)
	p.OnScoreComplete(ctx, "base", 0, time.Second, nil)
	p.OnNormalize(ctx, "percentile")
	p.OnSettleStart(ctx, "base", "percentile", 12)
	p.OnSettleComplete(ctx, "base", "percentile", 40, 0, time.Second, nil)

	// Solver hooks
	s := NoopSolverHooks{}
	s.OnTick(ctx, 1, 10, 0.002)
	s.OnStable(ctx, 1, 40)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "variant")
	c.OnCacheMiss(ctx, "variant")
	c.OnCacheSet(ctx, "variant", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	// Verify defaults are noop
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Solver().(NoopSolverHooks); !ok {
		t.Error("Solver() should return NoopSolverHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	// Set custom hooks
	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customSolver := &testSolverHooks{}
	SetSolverHooks(customSolver)
	if Solver() != customSolver {
		t.Error("SetSolverHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	// Nil registrations are ignored
	SetPipelineHooks(nil)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks(nil) must not clear hooks")
	}

	// Reset restores defaults
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset should restore noop pipeline hooks")
	}
	if _, ok := Solver().(NoopSolverHooks); !ok {
		t.Error("Reset should restore noop solver hooks")
	}
}

func TestHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	h := &testPipelineHooks{}
	SetPipelineHooks(h)

	ctx := context.Background()
	Pipeline().OnScoreStart(ctx, "base", 3)
	Pipeline().OnScoreComplete(ctx, "base", 1, time.Millisecond, nil)
	Pipeline().OnSettleComplete(ctx, "base", "percentile", 25, 0, time.Millisecond, nil)

	if h.scoreStarts != 1 || h.scoreCompletes != 1 || h.settleCompletes != 1 {
		t.Errorf("events lost: %+v", h)
	}
	if h.lastDegraded != 1 || h.lastTicks != 25 {
		t.Errorf("event payload lost: %+v", h)
	}
}

type testPipelineHooks struct {
	scoreStarts     int
	scoreCompletes  int
	settleCompletes int
	lastDegraded    int
	lastTicks       int
}

func (h *testPipelineHooks) OnScoreStart(_ context.Context, _ string, _ int) { h.scoreStarts++ }
func (h *testPipelineHooks) OnScoreComplete(_ context.Context, _ string, degraded int, _ time.Duration, _ error) {
	h.scoreCompletes++
	h.lastDegraded = degraded
}
func (h *testPipelineHooks) OnNormalize(context.Context, string)                {}
func (h *testPipelineHooks) OnSettleStart(context.Context, string, string, int) {}
func (h *testPipelineHooks) OnSettleComplete(_ context.Context, _, _ string, ticks, _ int, _ time.Duration, _ error) {
	h.settleCompletes++
	h.lastTicks = ticks
}

type testSolverHooks struct{}

func (testSolverHooks) OnTick(context.Context, uint64, int, float64) {}
func (testSolverHooks) OnStable(context.Context, uint64, int)        {}

type testCacheHooks struct{}

func (testCacheHooks) OnCacheHit(context.Context, string)      {}
func (testCacheHooks) OnCacheMiss(context.Context, string)     {}
func (testCacheHooks) OnCacheSet(context.Context, string, int) {}
