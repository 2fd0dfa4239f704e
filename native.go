package libusb

import (
	"github.com/kevmo314/go-libusb/pkg/descriptors"
)

// Opaque tokens handed out by a native backend. Their dynamic type is
// private to the backend that produced them; the wrapper only stores
// and passes them back.
type (
	nativeContext    interface{}
	nativeDevice     interface{}
	nativeDeviceList interface{}
	nativeHandle     interface{}
)

// Capability flags understood by hasCapability, numbered as the native
// library numbers them.
type Capability uint32

const (
	CapHasCapability      Capability = 0x0000
	CapHasHotplug         Capability = 0x0001
	CapHasHIDAccess       Capability = 0x0100
	CapDetachKernelDriver Capability = 0x0101
)

// nativeAPI is the boundary with the USB host-controller library. Every
// call into native code goes through this interface; it is implemented
// by the cgo binding, by the pure-Go usbfs backend, and by the counting
// fake that the lifetime tests use.
//
// Methods that can fail return an error whose dynamic type is
// ErrorCode; callers classify with codeOf. Methods documented as
// infallible by the native library return plain values.
type nativeAPI interface {
	init() (nativeContext, error)
	exit(ctx nativeContext)
	initDefault() error
	exitDefault()

	// setLogLevel never reports failure; the underlying primitive is
	// defined as non-failing.
	setLogLevel(ctx nativeContext, level LogLevel)
	setDefaultLogLevel(level LogLevel)
	// setLogCallback installs the process-wide trampoline for ctx and
	// records id as the identity delivered back through dispatchLog.
	setLogCallback(ctx nativeContext, id uint64, mode LogCallbackMode)

	hasCapability(cap Capability) bool

	// deviceList returns the backend's list token alongside the device
	// references it contains. The token must be passed to
	// freeDeviceList exactly once; devices obtained from the list are
	// only valid past that point if refDevice was called on them.
	deviceList(ctx nativeContext) (nativeDeviceList, []nativeDevice, error)
	freeDeviceList(list nativeDeviceList)
	refDevice(dev nativeDevice)
	unrefDevice(dev nativeDevice)

	deviceDescriptor(dev nativeDevice) (*descriptors.DeviceDescriptor, error)
	configDescriptor(dev nativeDevice, index uint8) (*descriptors.ConfigDescriptor, error)
	activeConfigDescriptor(dev nativeDevice) (*descriptors.ConfigDescriptor, error)
	busNumber(dev nativeDevice) uint8
	deviceAddress(dev nativeDevice) uint8
	deviceSpeed(dev nativeDevice) int

	open(dev nativeDevice) (nativeHandle, error)
	// openVIDPID returns nil when no matching device could be opened,
	// discarding the reason.
	openVIDPID(ctx nativeContext, vendorID, productID uint16) nativeHandle
	close(h nativeHandle)

	claimInterface(h nativeHandle, number uint8) error
	releaseInterface(h nativeHandle, number uint8) error
	kernelDriverActive(h nativeHandle, number uint8) (bool, error)
	detachKernelDriver(h nativeHandle, number uint8) error
	attachKernelDriver(h nativeHandle, number uint8) error
	resetDevice(h nativeHandle) error
	stringDescriptor(h nativeHandle, index uint8) (string, error)
	bosDescriptor(h nativeHandle) (*descriptors.BOSDescriptor, error)
}
