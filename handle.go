package libusb

import (
	"sync/atomic"

	"github.com/kevmo314/go-libusb/pkg/descriptors"
)

// DeviceHandle is an open session on a device, the scope for interface
// claiming and transfer I/O. It keeps the originating Context alive
// until Close; the native session is closed exactly once.
//
// Like Device, a handle may be moved between goroutines but concurrent
// operations on one handle must be serialized by the caller.
type DeviceHandle struct {
	raw    *rawContext
	handle nativeHandle
	closed atomic.Bool
}

// ClaimInterface claims the given interface for this handle. An
// interface must be claimed before transfers to its endpoints.
func (h *DeviceHandle) ClaimInterface(number uint8) error {
	if err := h.raw.api.claimInterface(h.handle, number); err != nil {
		return &NativeError{Code: codeOf(err)}
	}
	return nil
}

// ReleaseInterface releases a previously claimed interface.
func (h *DeviceHandle) ReleaseInterface(number uint8) error {
	if err := h.raw.api.releaseInterface(h.handle, number); err != nil {
		return &NativeError{Code: codeOf(err)}
	}
	return nil
}

// KernelDriverActive reports whether a kernel driver is bound to the
// given interface.
func (h *DeviceHandle) KernelDriverActive(number uint8) (bool, error) {
	active, err := h.raw.api.kernelDriverActive(h.handle, number)
	if err != nil {
		return false, &NativeError{Code: codeOf(err)}
	}
	return active, nil
}

// DetachKernelDriver detaches the kernel driver from the given
// interface so it can be claimed.
func (h *DeviceHandle) DetachKernelDriver(number uint8) error {
	if err := h.raw.api.detachKernelDriver(h.handle, number); err != nil {
		return &NativeError{Code: codeOf(err)}
	}
	return nil
}

// AttachKernelDriver re-attaches the kernel driver to the given
// interface.
func (h *DeviceHandle) AttachKernelDriver(number uint8) error {
	if err := h.raw.api.attachKernelDriver(h.handle, number); err != nil {
		return &NativeError{Code: codeOf(err)}
	}
	return nil
}

// ResetDevice performs a USB port reset on the device.
func (h *DeviceHandle) ResetDevice() error {
	if err := h.raw.api.resetDevice(h.handle); err != nil {
		return &NativeError{Code: codeOf(err)}
	}
	return nil
}

// StringDescriptor reads the string descriptor at the given index using
// the first supported language.
func (h *DeviceHandle) StringDescriptor(index uint8) (string, error) {
	s, err := h.raw.api.stringDescriptor(h.handle, index)
	if err != nil {
		return "", &DescriptorReadError{Code: codeOf(err)}
	}
	return s, nil
}

// BOSDescriptor reads the device's Binary Object Store descriptor,
// which carries capability records such as the platform Container ID.
func (h *DeviceHandle) BOSDescriptor() (*descriptors.BOSDescriptor, error) {
	desc, err := h.raw.api.bosDescriptor(h.handle)
	if err != nil {
		code := codeOf(err)
		if code == ErrNotFound {
			return nil, &NotFoundError{Code: code}
		}
		return nil, &DescriptorReadError{Code: code}
	}
	return desc, nil
}

// Close closes the native session and releases the handle's reference
// to the Context. Close is idempotent.
func (h *DeviceHandle) Close() error {
	if h.closed.CompareAndSwap(false, true) {
		h.raw.api.close(h.handle)
		h.raw.unref()
	}
	return nil
}
