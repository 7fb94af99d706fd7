package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopTranslateHooks{}
	p.OnTranslateStart(ctx, "brick", 12)
	p.OnTranslateComplete(ctx, "brick", Outcome{Valid: true, TargetNodes: 9}, time.Millisecond, nil)
	p.OnRenderStart(ctx, []string{"mtlx", "svg"})
	p.OnRenderComplete(ctx, []string{"mtlx", "svg"}, time.Millisecond, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "document")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Translate().(NoopTranslateHooks); !ok {
		t.Error("Translate() should return NoopTranslateHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	custom := &recordingHooks{}
	SetTranslateHooks(custom)
	if Translate() != custom {
		t.Error("SetTranslateHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Translate().(NoopTranslateHooks); !ok {
		t.Error("Reset() should restore NoopTranslateHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	custom := &recordingHooks{}
	SetTranslateHooks(custom)
	SetTranslateHooks(nil)
	if Translate() != custom {
		t.Error("SetTranslateHooks(nil) should be ignored")
	}
}

func TestHooksReceiveEvents(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	h := &recordingHooks{}
	SetTranslateHooks(h)

	ctx := context.Background()
	Translate().OnTranslateStart(ctx, "brick", 4)
	Translate().OnTranslateComplete(ctx, "brick", Outcome{Degraded: true, Unsupported: 1}, time.Second, nil)

	if h.started != "brick" || !h.outcome.Degraded || h.outcome.Unsupported != 1 {
		t.Errorf("recorded %+v", h)
	}
}

type recordingHooks struct {
	NoopTranslateHooks
	started string
	outcome Outcome
}

func (r *recordingHooks) OnTranslateStart(_ context.Context, material string, _ int) {
	r.started = material
}

func (r *recordingHooks) OnTranslateComplete(_ context.Context, _ string, o Outcome, _ time.Duration, _ error) {
	r.outcome = o
}

type testCacheHooks struct{ NoopCacheHooks }
