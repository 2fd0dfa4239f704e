package libusb

import (
	"sync/atomic"

	"github.com/kevmo314/go-libusb/pkg/descriptors"
)

// Speed is the negotiated connection speed of a device.
type Speed int

const (
	SpeedUnknown Speed = iota
	SpeedLow
	SpeedFull
	SpeedHigh
	SpeedSuper
	SpeedSuperPlus
)

func (s Speed) String() string {
	switch s {
	case SpeedLow:
		return "low (1.5 Mbps)"
	case SpeedFull:
		return "full (12 Mbps)"
	case SpeedHigh:
		return "high (480 Mbps)"
	case SpeedSuper:
		return "super (5 Gbps)"
	case SpeedSuperPlus:
		return "super+ (10 Gbps)"
	default:
		return "unknown"
	}
}

// speedFromNative decodes a native speed code, mapping unrecognized
// values to SpeedUnknown rather than failing.
func speedFromNative(raw int) Speed {
	switch Speed(raw) {
	case SpeedLow, SpeedFull, SpeedHigh, SpeedSuper, SpeedSuperPlus:
		return Speed(raw)
	default:
		return SpeedUnknown
	}
}

// Device is a reference to one attached USB device. It holds one unit
// of the underlying native device's reference count and keeps the
// originating Context alive until Close.
//
// A Device may be moved between goroutines, but the native library does
// not synchronize concurrent operations on a single device; callers
// that share one must serialize access themselves.
type Device struct {
	raw    *rawContext
	dev    nativeDevice
	closed atomic.Bool
}

// Descriptor reads the device descriptor.
func (d *Device) Descriptor() (*descriptors.DeviceDescriptor, error) {
	desc, err := d.raw.api.deviceDescriptor(d.dev)
	if err != nil {
		return nil, &DescriptorReadError{Code: codeOf(err)}
	}
	return desc, nil
}

// ConfigDescriptor reads the configuration descriptor at the given
// index. It returns a NotFoundError if the index is out of range.
func (d *Device) ConfigDescriptor(index uint8) (*descriptors.ConfigDescriptor, error) {
	desc, err := d.raw.api.configDescriptor(d.dev, index)
	if err != nil {
		return nil, classifyConfigError(err)
	}
	return desc, nil
}

// ActiveConfigDescriptor reads the descriptor of the currently active
// configuration.
func (d *Device) ActiveConfigDescriptor() (*descriptors.ConfigDescriptor, error) {
	desc, err := d.raw.api.activeConfigDescriptor(d.dev)
	if err != nil {
		return nil, classifyConfigError(err)
	}
	return desc, nil
}

func classifyConfigError(err error) error {
	code := codeOf(err)
	if code == ErrNotFound {
		return &NotFoundError{Code: code}
	}
	return &NativeError{Code: code}
}

// BusNumber returns the number of the bus the device is connected to.
func (d *Device) BusNumber() uint8 {
	return d.raw.api.busNumber(d.dev)
}

// Address returns the device's address on its bus.
func (d *Device) Address() uint8 {
	return d.raw.api.deviceAddress(d.dev)
}

// Speed returns the device's negotiated connection speed.
func (d *Device) Speed() Speed {
	return speedFromNative(d.raw.api.deviceSpeed(d.dev))
}

// Open opens a session on the device. The returned handle keeps the
// Context alive until its own Close, independently of this Device.
func (d *Device) Open() (*DeviceHandle, error) {
	h, err := d.raw.api.open(d.dev)
	if err != nil {
		code := codeOf(err)
		if code == ErrAccess {
			return nil, &AccessError{Code: code}
		}
		return nil, &NativeError{Code: code}
	}
	d.raw.ref()
	return &DeviceHandle{raw: d.raw, handle: h}, nil
}

// Close releases this Device's unit of the native reference count and
// its reference to the Context. Close is idempotent.
func (d *Device) Close() error {
	if d.closed.CompareAndSwap(false, true) {
		d.raw.api.unrefDevice(d.dev)
		d.raw.unref()
	}
	return nil
}
