package libusb

import "sync"

// DeviceList is the result of one enumeration call: a fixed, read-only
// sequence of device references. It owns the underlying native array
// and keeps the originating Context alive until it is closed.
type DeviceList struct {
	raw *rawContext

	mu   sync.Mutex
	list nativeDeviceList
	devs []nativeDevice
}

// Len returns the number of devices in the list. It keeps returning the
// enumerated count after Close.
func (l *DeviceList) Len() int {
	return len(l.devs)
}

// Get returns the device at index i. The returned Device takes its own
// reference on the underlying native device and on the Context, so it
// remains valid after the list (and the Context) are closed, until its
// own Close. Get returns nil if i is out of range or the list has
// already been closed.
func (l *DeviceList) Get(i int) *Device {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.list == nil || i < 0 || i >= len(l.devs) {
		return nil
	}
	dev := l.devs[i]
	l.raw.api.refDevice(dev)
	l.raw.ref()
	return &Device{raw: l.raw, dev: dev}
}

// Close releases the native device array. Devices previously obtained
// with Get stay valid; the list itself must not be used afterwards.
// Close is idempotent.
func (l *DeviceList) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.list == nil {
		return nil
	}
	l.raw.api.freeDeviceList(l.list)
	l.list = nil
	l.raw.unref()
	return nil
}
