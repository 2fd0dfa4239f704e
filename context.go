// Package libusb is a safe access layer over the native USB host
// library: device enumeration, descriptor reads, and session handles,
// with the native context kept alive for as long as anything derived
// from it is still open.
package libusb

import (
	"sync"
	"sync/atomic"
)

// nextContextID issues the opaque identity tokens used to key the log
// callback registry. Identities are never reused, so a stale native
// pointer can never alias a live context's entry.
var nextContextID atomic.Uint64

// rawContext owns exactly one native context resource. It is shared by
// a Context and every DeviceList, Device, and DeviceHandle derived from
// it; the native resource is released exactly once, when the last
// holder drops its reference.
type rawContext struct {
	api  nativeAPI
	ctx  nativeContext
	id   uint64
	refs atomic.Int64
}

func newRawContext(api nativeAPI) (*rawContext, error) {
	ctx, err := api.init()
	if err != nil {
		return nil, &InitError{Code: codeOf(err)}
	}
	r := &rawContext{api: api, ctx: ctx, id: nextContextID.Add(1)}
	r.refs.Store(1)
	return r, nil
}

func (r *rawContext) ref() {
	r.refs.Add(1)
}

// unref releases one reference. On the last release the context's log
// registry entry is removed before the native resource is torn down,
// closing the window where the trampoline could look up a freed
// context's identity.
func (r *rawContext) unref() {
	if r.refs.Add(-1) != 0 {
		return
	}
	removeLogCallbackEntry(r.id)
	r.api.exit(r.ctx)
}

// Context is a session with the native USB library. All device
// enumeration and I/O happens within a context; independent contexts do
// not affect each other.
//
// A Context is safe to share across goroutines. Closing it while
// DeviceLists, Devices, or DeviceHandles derived from it are still open
// is allowed: the native resource stays alive until the last of them is
// closed.
type Context struct {
	raw    *rawContext
	closed atomic.Bool
}

// NewContext initializes a fresh, independent native context.
func NewContext() (*Context, error) {
	return newContext(defaultNativeAPI())
}

func newContext(api nativeAPI) (*Context, error) {
	raw, err := newRawContext(api)
	if err != nil {
		return nil, err
	}
	return &Context{raw: raw}, nil
}

// Close releases the Context's reference to the native context. It is
// idempotent; only the first call has any effect.
func (c *Context) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		c.raw.unref()
	}
	return nil
}

// SetLogLevel sets the verbosity of the native library's logging for
// this context.
func (c *Context) SetLogLevel(level LogLevel) {
	c.raw.api.setLogLevel(c.raw.ctx, level)
}

// SetLogCallback registers cb to receive the native library's log
// lines. With LogCallbackModeContext only lines emitted by this context
// are delivered; with LogCallbackModeGlobal cb receives every line
// process-wide. Registering again for the same scope replaces the
// previous callback.
//
// cb is invoked synchronously on an internal thread of the native
// library. Delivery is best-effort: a line emitted while the context is
// being closed may be dropped.
func (c *Context) SetLogCallback(cb LogCallback, mode LogCallbackMode) {
	key := c.raw.id
	if mode == LogCallbackModeGlobal {
		key = globalLogKey
	}
	setLogCallbackEntry(key, cb)
	c.raw.api.setLogCallback(c.raw.ctx, c.raw.id, mode)
}

// HasCapability reports whether the running native library supports
// capability queries at all.
func (c *Context) HasCapability() bool {
	return c.raw.api.hasCapability(CapHasCapability)
}

// HasHotplug reports whether the running native library supports
// hotplug notification.
func (c *Context) HasHotplug() bool {
	return c.raw.api.hasCapability(CapHasHotplug)
}

// HasHIDAccess reports whether the running native library can access
// HID devices without a kernel driver detach.
func (c *Context) HasHIDAccess() bool {
	return c.raw.api.hasCapability(CapHasHIDAccess)
}

// SupportsDetachKernelDriver reports whether the running native library
// can detach a kernel driver from an interface.
func (c *Context) SupportsDetachKernelDriver() bool {
	return c.raw.api.hasCapability(CapDetachKernelDriver)
}

// Devices enumerates the USB devices currently attached to the system.
// The returned list holds its own reference to the context and must be
// closed by the caller.
func (c *Context) Devices() (*DeviceList, error) {
	list, devs, err := c.raw.api.deviceList(c.raw.ctx)
	if err != nil {
		return nil, &EnumerationError{Code: codeOf(err)}
	}
	c.raw.ref()
	return &DeviceList{raw: c.raw, list: list, devs: devs}, nil
}

// OpenDeviceWithVIDPID opens the first attached device matching the
// given vendor and product ID.
//
// This is a convenience for building prototypes without iterating a
// DeviceList. It returns nil both when no device matches and when
// opening fails, discarding the reason; it is not meant for production
// error handling.
func (c *Context) OpenDeviceWithVIDPID(vendorID, productID uint16) *DeviceHandle {
	h := c.raw.api.openVIDPID(c.raw.ctx, vendorID, productID)
	if h == nil {
		return nil
	}
	c.raw.ref()
	return &DeviceHandle{raw: c.raw, handle: h}
}

// The default context is a process-wide native context shared by
// callers that do not want to manage one themselves. Its lifecycle is
// guarded by a flag so repeated init and release calls are harmless.
var defaultContext struct {
	sync.Mutex
	initialized bool
}

// InitDefaultContext initializes the native library's default context
// if it is not already initialized.
func InitDefaultContext() error {
	defaultContext.Lock()
	defer defaultContext.Unlock()
	if defaultContext.initialized {
		return nil
	}
	if err := defaultNativeAPI().initDefault(); err != nil {
		return &InitError{Code: codeOf(err)}
	}
	defaultContext.initialized = true
	return nil
}

// ReleaseDefaultContext releases the default context if it was
// initialized by InitDefaultContext.
func ReleaseDefaultContext() {
	defaultContext.Lock()
	defer defaultContext.Unlock()
	if defaultContext.initialized {
		defaultNativeAPI().exitDefault()
		defaultContext.initialized = false
	}
}

// SetDefaultLogLevel sets the logging verbosity of the default context.
func SetDefaultLogLevel(level LogLevel) {
	defaultNativeAPI().setDefaultLogLevel(level)
}
