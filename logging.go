package libusb

import (
	"sync"
	"unicode/utf8"
)

// LogLevel is the verbosity of the native library's own logging.
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelNone:
		return "none"
	case LogLevelError:
		return "error"
	case LogLevelWarning:
		return "warning"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// logLevelFromNative decodes a native severity code, mapping anything
// unrecognized to LogLevelNone.
func logLevelFromNative(raw int) LogLevel {
	switch LogLevel(raw) {
	case LogLevelError, LogLevelWarning, LogLevelInfo, LogLevelDebug:
		return LogLevel(raw)
	default:
		return LogLevelNone
	}
}

// LogCallbackMode selects which log lines a callback receives.
type LogCallbackMode int

const (
	// LogCallbackModeGlobal delivers all log lines process-wide,
	// regardless of which context emitted them.
	LogCallbackModeGlobal LogCallbackMode = iota

	// LogCallbackModeContext delivers only the lines emitted by the
	// context the callback was registered on.
	LogCallbackModeContext
)

// LogCallback receives a decoded log line. The native library invokes
// it synchronously from an internal thread of its own; implementations
// must do their own synchronization before touching shared state and
// must not assume which goroutine or thread they run on. A callback
// must not register or remove callbacks from within its own body.
type LogCallback func(level LogLevel, message string)

// globalLogKey is the registry key for callbacks registered with
// LogCallbackModeGlobal. Context identities start at 1, so the key can
// never collide with a live context.
const globalLogKey uint64 = 0

// logCallbacks maps a context identity (or globalLogKey) to the one
// callback registered for it. A single mutex orders all inserts,
// replacements, removals, and trampoline lookups; a log line racing a
// context's teardown may be dropped, which is the documented
// best-effort delivery contract.
var logCallbacks = struct {
	sync.Mutex
	m map[uint64]LogCallback
}{m: make(map[uint64]LogCallback)}

func setLogCallbackEntry(key uint64, cb LogCallback) {
	logCallbacks.Lock()
	defer logCallbacks.Unlock()
	logCallbacks.m[key] = cb
}

func removeLogCallbackEntry(key uint64) {
	logCallbacks.Lock()
	defer logCallbacks.Unlock()
	delete(logCallbacks.m, key)
}

// dispatchLog is the single trampoline target every native backend
// delivers log lines to. It runs on whatever thread the native library
// used to emit the line, so it must never panic: a panic unwinding into
// native code would corrupt the library's internal state. Malformed
// text decodes to the empty string; a missing registry entry drops the
// line silently.
func dispatchLog(id uint64, rawLevel int, text []byte) {
	defer func() {
		// Swallow panics from user callbacks; there is no application
		// frame below this one to recover them.
		_ = recover()
	}()

	logCallbacks.Lock()
	defer logCallbacks.Unlock()

	cb, ok := logCallbacks.m[id]
	if !ok {
		cb, ok = logCallbacks.m[globalLogKey]
	}
	if !ok {
		return
	}

	msg := ""
	if utf8.Valid(text) {
		msg = string(text)
	}
	cb(logLevelFromNative(rawLevel), msg)
}
