package libusb

import (
	"sync"

	"github.com/kevmo314/go-libusb/pkg/descriptors"
)

// mockContext and mockDevice are the opaque tokens handed out by
// mockNative.
type mockContext struct{}

type mockDevice struct {
	bus   uint8
	addr  uint8
	speed int
	desc  descriptors.DeviceDescriptor

	// refs counts outstanding native references: one per enumeration
	// batch until freeDeviceList, plus one per refDevice call.
	refs int
}

// mockNative is a scripted, counting implementation of the native
// boundary. Every lifetime test asserts against its counters.
type mockNative struct {
	mu sync.Mutex

	initErr ErrorCode // returned by init when nonzero
	listErr ErrorCode // returned by deviceList when nonzero
	openErr ErrorCode // returned by open when nonzero

	devices []*mockDevice

	initCalls     int
	exitCalls     int
	freeListCalls int
	openCalls     int
	closeCalls    int
	lastLogLevel  LogLevel
}

func newMockNative(devices ...*mockDevice) *mockNative {
	return &mockNative{devices: devices}
}

func (m *mockNative) init() (nativeContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initErr != 0 {
		return nil, m.initErr
	}
	m.initCalls++
	return &mockContext{}, nil
}

func (m *mockNative) exit(ctx nativeContext) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exitCalls++
}

func (m *mockNative) initDefault() error { return nil }
func (m *mockNative) exitDefault()       {}

func (m *mockNative) setLogLevel(ctx nativeContext, level LogLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLogLevel = level
}

func (m *mockNative) setDefaultLogLevel(level LogLevel) {}

func (m *mockNative) setLogCallback(ctx nativeContext, id uint64, mode LogCallbackMode) {}

func (m *mockNative) hasCapability(cap Capability) bool { return true }

func (m *mockNative) deviceList(ctx nativeContext) (nativeDeviceList, []nativeDevice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != 0 {
		return nil, nil, m.listErr
	}
	devs := make([]nativeDevice, 0, len(m.devices))
	for _, d := range m.devices {
		d.refs++
		devs = append(devs, d)
	}
	return &m.devices, devs, nil
}

func (m *mockNative) freeDeviceList(list nativeDeviceList) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freeListCalls++
	for _, d := range m.devices {
		d.refs--
	}
}

func (m *mockNative) refDevice(dev nativeDevice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dev.(*mockDevice).refs++
}

func (m *mockNative) unrefDevice(dev nativeDevice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dev.(*mockDevice).refs--
}

func (m *mockNative) deviceDescriptor(dev nativeDevice) (*descriptors.DeviceDescriptor, error) {
	desc := dev.(*mockDevice).desc
	return &desc, nil
}

func (m *mockNative) configDescriptor(dev nativeDevice, index uint8) (*descriptors.ConfigDescriptor, error) {
	if index > 0 {
		return nil, ErrNotFound
	}
	return &descriptors.ConfigDescriptor{ConfigurationValue: 1, NumInterfaces: 1}, nil
}

func (m *mockNative) activeConfigDescriptor(dev nativeDevice) (*descriptors.ConfigDescriptor, error) {
	return &descriptors.ConfigDescriptor{ConfigurationValue: 1, NumInterfaces: 1}, nil
}

func (m *mockNative) busNumber(dev nativeDevice) uint8     { return dev.(*mockDevice).bus }
func (m *mockNative) deviceAddress(dev nativeDevice) uint8 { return dev.(*mockDevice).addr }
func (m *mockNative) deviceSpeed(dev nativeDevice) int     { return dev.(*mockDevice).speed }

func (m *mockNative) open(dev nativeDevice) (nativeHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != 0 {
		return nil, m.openErr
	}
	m.openCalls++
	return &mockHandle{dev: dev.(*mockDevice)}, nil
}

func (m *mockNative) openVIDPID(ctx nativeContext, vendorID, productID uint16) nativeHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != 0 {
		return nil
	}
	for _, d := range m.devices {
		if d.desc.VendorID == vendorID && d.desc.ProductID == productID {
			m.openCalls++
			return &mockHandle{dev: d}
		}
	}
	return nil
}

type mockHandle struct {
	dev    *mockDevice
	claims int
}

func (m *mockNative) close(h nativeHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
}

func (m *mockNative) claimInterface(h nativeHandle, number uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.(*mockHandle).claims++
	return nil
}

func (m *mockNative) releaseInterface(h nativeHandle, number uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h.(*mockHandle).claims--
	return nil
}

func (m *mockNative) kernelDriverActive(h nativeHandle, number uint8) (bool, error) {
	return false, nil
}

func (m *mockNative) detachKernelDriver(h nativeHandle, number uint8) error { return nil }
func (m *mockNative) attachKernelDriver(h nativeHandle, number uint8) error { return nil }
func (m *mockNative) resetDevice(h nativeHandle) error                      { return nil }

func (m *mockNative) stringDescriptor(h nativeHandle, index uint8) (string, error) {
	return "mock", nil
}

func (m *mockNative) bosDescriptor(h nativeHandle) (*descriptors.BOSDescriptor, error) {
	return nil, ErrNotSupported
}

func (m *mockNative) counters() (initCalls, exitCalls int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initCalls, m.exitCalls
}
