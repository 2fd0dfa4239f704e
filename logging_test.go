package libusb

import (
	"sync"
	"testing"
)

// logRecorder collects delivered log lines for assertions.
type logRecorder struct {
	mu    sync.Mutex
	lines []string
	level LogLevel
}

func (r *logRecorder) callback(level LogLevel, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.level = level
	r.lines = append(r.lines, message)
}

func (r *logRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

func (r *logRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lines) == 0 {
		return ""
	}
	return r.lines[len(r.lines)-1]
}

func TestContextScopedCallbackDelivery(t *testing.T) {
	m := newMockNative()
	ctx, err := newContext(m)
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Close()

	rec := &logRecorder{}
	ctx.SetLogCallback(rec.callback, LogCallbackModeContext)

	dispatchLog(ctx.raw.id, int(LogLevelWarning), []byte("device disconnect"))
	if rec.count() != 1 || rec.last() != "device disconnect" {
		t.Fatalf("expected one delivered line, got %d (%q)", rec.count(), rec.last())
	}
	if rec.level != LogLevelWarning {
		t.Errorf("delivered level = %v, want %v", rec.level, LogLevelWarning)
	}

	// A line tagged with a different identity must not reach a
	// context-scoped callback.
	dispatchLog(ctx.raw.id+100, int(LogLevelError), []byte("other context"))
	if rec.count() != 1 {
		t.Errorf("context-scoped callback received a foreign line, count = %d", rec.count())
	}
}

func TestGlobalCallbackReceivesAllLines(t *testing.T) {
	m := newMockNative()
	ctx, err := newContext(m)
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Close()

	rec := &logRecorder{}
	ctx.SetLogCallback(rec.callback, LogCallbackModeGlobal)
	defer removeLogCallbackEntry(globalLogKey)

	dispatchLog(ctx.raw.id, int(LogLevelInfo), []byte("own context"))
	dispatchLog(ctx.raw.id+42, int(LogLevelInfo), []byte("foreign context"))
	dispatchLog(globalLogKey, int(LogLevelInfo), []byte("no context"))

	if rec.count() != 3 {
		t.Errorf("global callback received %d lines, want 3", rec.count())
	}
}

func TestReplacingCallbackDropsOldOne(t *testing.T) {
	m := newMockNative()
	ctx, err := newContext(m)
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Close()

	old := &logRecorder{}
	ctx.SetLogCallback(old.callback, LogCallbackModeContext)
	replacement := &logRecorder{}
	ctx.SetLogCallback(replacement.callback, LogCallbackModeContext)

	dispatchLog(ctx.raw.id, int(LogLevelDebug), []byte("after replace"))

	if old.count() != 0 {
		t.Errorf("replaced callback still invoked %d times", old.count())
	}
	if replacement.count() != 1 {
		t.Errorf("replacement callback invoked %d times, want 1", replacement.count())
	}
}

func TestStaleIdentityAfterContextClose(t *testing.T) {
	m := newMockNative()
	ctx, err := newContext(m)
	if err != nil {
		t.Fatal(err)
	}

	rec := &logRecorder{}
	ctx.SetLogCallback(rec.callback, LogCallbackModeContext)
	staleID := ctx.raw.id
	ctx.Close()

	// The registry entry is gone; a line tagged with the stale identity
	// must be dropped silently.
	dispatchLog(staleID, int(LogLevelError), []byte("stale"))
	if rec.count() != 0 {
		t.Errorf("stale identity still delivered %d lines", rec.count())
	}

	// A fresh context never aliases the stale identity, so the old
	// callback cannot resurface even if the native pointer is reused.
	ctx2, err := newContext(m)
	if err != nil {
		t.Fatal(err)
	}
	defer ctx2.Close()
	if ctx2.raw.id == staleID {
		t.Fatal("context identity reused")
	}
	dispatchLog(ctx2.raw.id, int(LogLevelError), []byte("new context"))
	if rec.count() != 0 {
		t.Errorf("closed context's callback invoked %d times", rec.count())
	}
}

func TestDispatchLogMalformedInput(t *testing.T) {
	m := newMockNative()
	ctx, err := newContext(m)
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Close()

	rec := &logRecorder{}
	ctx.SetLogCallback(rec.callback, LogCallbackModeContext)

	// Invalid UTF-8 decodes to the empty string, never a crash.
	dispatchLog(ctx.raw.id, int(LogLevelError), []byte{0xff, 0xfe, 0xfd})
	if rec.count() != 1 || rec.last() != "" {
		t.Fatalf("malformed text: count = %d, last = %q, want 1, \"\"", rec.count(), rec.last())
	}

	// Unrecognized severity codes map to LogLevelNone.
	dispatchLog(ctx.raw.id, 99, []byte("odd level"))
	if rec.level != LogLevelNone {
		t.Errorf("unrecognized level decoded to %v, want %v", rec.level, LogLevelNone)
	}
}

func TestDispatchLogSwallowsCallbackPanic(t *testing.T) {
	m := newMockNative()
	ctx, err := newContext(m)
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Close()

	ctx.SetLogCallback(func(LogLevel, string) {
		panic("callback bug")
	}, LogCallbackModeContext)

	// Must not propagate: the real caller is a native-managed thread.
	dispatchLog(ctx.raw.id, int(LogLevelError), []byte("boom"))
}

func TestConcurrentDispatchAndTeardown(t *testing.T) {
	m := newMockNative()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		ctx, err := newContext(m)
		if err != nil {
			t.Fatal(err)
		}
		rec := &logRecorder{}
		ctx.SetLogCallback(rec.callback, LogCallbackModeContext)
		id := ctx.raw.id

		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				dispatchLog(id, int(LogLevelDebug), []byte("concurrent"))
			}
		}()
		go func() {
			defer wg.Done()
			ctx.Close()
		}()
	}
	wg.Wait()
}
