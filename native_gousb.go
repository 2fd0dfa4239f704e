//go:build !cgo

package libusb

import (
	"errors"
	"strconv"
	"strings"

	usb "github.com/kevmo314/go-usb"

	"github.com/kevmo314/go-libusb/pkg/descriptors"
)

// usbfsNative implements the native boundary on the pure-Go usbfs
// library, for builds without cgo. Devices are plain Go values managed
// by the garbage collector, so the ref/unref calls are no-ops, and the
// library has no internal logging thread, so registered log callbacks
// never fire from this backend.
type usbfsNative struct{}

func defaultNativeAPI() nativeAPI { return usbfsNative{} }

type usbfsContext struct{}

func (usbfsNative) init() (nativeContext, error) { return &usbfsContext{}, nil }
func (usbfsNative) exit(ctx nativeContext)       {}
func (usbfsNative) initDefault() error           { return nil }
func (usbfsNative) exitDefault()                 {}

func (usbfsNative) setLogLevel(ctx nativeContext, level LogLevel) {}
func (usbfsNative) setDefaultLogLevel(level LogLevel)             {}

func (usbfsNative) setLogCallback(ctx nativeContext, id uint64, mode LogCallbackMode) {}

func (usbfsNative) hasCapability(cap Capability) bool {
	switch cap {
	case CapHasCapability, CapDetachKernelDriver:
		return true
	default:
		// Hotplug and HID access need the native event machinery.
		return false
	}
}

func (usbfsNative) deviceList(ctx nativeContext) (nativeDeviceList, []nativeDevice, error) {
	list, err := usb.DeviceList()
	if err != nil {
		return nil, nil, usbfsError(err)
	}
	devs := make([]nativeDevice, 0, len(list))
	for _, d := range list {
		devs = append(devs, d)
	}
	return list, devs, nil
}

func (usbfsNative) freeDeviceList(list nativeDeviceList) {}
func (usbfsNative) refDevice(dev nativeDevice)           {}
func (usbfsNative) unrefDevice(dev nativeDevice)         {}

func (usbfsNative) deviceDescriptor(dev nativeDevice) (*descriptors.DeviceDescriptor, error) {
	d := dev.(*usb.Device).Descriptor
	return &descriptors.DeviceDescriptor{
		USBVersion:        d.USBVersion,
		DeviceClass:       d.DeviceClass,
		DeviceSubClass:    d.DeviceSubClass,
		DeviceProtocol:    d.DeviceProtocol,
		MaxPacketSize0:    d.MaxPacketSize0,
		VendorID:          d.VendorID,
		ProductID:         d.ProductID,
		DeviceVersion:     d.DeviceVersion,
		ManufacturerIndex: d.ManufacturerIndex,
		ProductIndex:      d.ProductIndex,
		SerialNumberIndex: d.SerialNumberIndex,
		NumConfigurations: d.NumConfigurations,
	}, nil
}

// Config descriptors on usbfs are read through a transient handle; the
// usbfs library exposes them only on an open device.
func (usbfsNative) configDescriptor(dev nativeDevice, index uint8) (*descriptors.ConfigDescriptor, error) {
	h, err := dev.(*usb.Device).Open()
	if err != nil {
		return nil, usbfsError(err)
	}
	defer h.Close()
	cfg, err := h.GetConfigDescriptor(index)
	if err != nil {
		return nil, usbfsError(err)
	}
	return convertUsbfsConfig(cfg), nil
}

func (usbfsNative) activeConfigDescriptor(dev nativeDevice) (*descriptors.ConfigDescriptor, error) {
	h, err := dev.(*usb.Device).Open()
	if err != nil {
		return nil, usbfsError(err)
	}
	defer h.Close()
	cfg, err := h.GetActiveConfigDescriptor()
	if err != nil {
		return nil, usbfsError(err)
	}
	return convertUsbfsConfig(cfg), nil
}

func convertUsbfsConfig(cfg *usb.ConfigDescriptor) *descriptors.ConfigDescriptor {
	out := &descriptors.ConfigDescriptor{
		NumInterfaces:      cfg.NumInterfaces,
		ConfigurationValue: cfg.ConfigurationValue,
	}
	for _, iface := range cfg.Interfaces {
		for _, alt := range iface.AltSettings {
			out.Interfaces = append(out.Interfaces, descriptors.InterfaceDescriptor{
				InterfaceNumber:   alt.InterfaceNumber,
				AlternateSetting:  alt.AlternateSetting,
				NumEndpoints:      alt.NumEndpoints,
				InterfaceClass:    alt.InterfaceClass,
				InterfaceSubClass: alt.InterfaceSubClass,
				InterfaceProtocol: alt.InterfaceProtocol,
				DescriptionIndex:  alt.InterfaceIndex,
			})
		}
	}
	return out
}

// busNumber and deviceAddress come from the usbfs path, which is always
// /dev/bus/usb/BBB/DDD.
func (usbfsNative) busNumber(dev nativeDevice) uint8 {
	bus, _ := splitUsbfsPath(dev.(*usb.Device).Path)
	return bus
}

func (usbfsNative) deviceAddress(dev nativeDevice) uint8 {
	_, addr := splitUsbfsPath(dev.(*usb.Device).Path)
	return addr
}

func splitUsbfsPath(path string) (bus, addr uint8) {
	parts := strings.Split(path, "/")
	if len(parts) != 6 {
		return 0, 0
	}
	b, _ := strconv.Atoi(parts[4])
	a, _ := strconv.Atoi(parts[5])
	return uint8(b), uint8(a)
}

func (usbfsNative) deviceSpeed(dev nativeDevice) int {
	// Not surfaced by the usbfs enumeration path.
	return int(SpeedUnknown)
}

func (usbfsNative) open(dev nativeDevice) (nativeHandle, error) {
	h, err := dev.(*usb.Device).Open()
	if err != nil {
		return nil, usbfsError(err)
	}
	return h, nil
}

func (usbfsNative) openVIDPID(ctx nativeContext, vendorID, productID uint16) nativeHandle {
	h, err := usb.OpenDevice(vendorID, productID)
	if err != nil {
		return nil
	}
	return h
}

func (usbfsNative) close(h nativeHandle) {
	h.(*usb.DeviceHandle).Close()
}

func (usbfsNative) claimInterface(h nativeHandle, number uint8) error {
	return usbfsError(h.(*usb.DeviceHandle).ClaimInterface(number))
}

func (usbfsNative) releaseInterface(h nativeHandle, number uint8) error {
	return usbfsError(h.(*usb.DeviceHandle).ReleaseInterface(number))
}

func (usbfsNative) kernelDriverActive(h nativeHandle, number uint8) (bool, error) {
	active, err := h.(*usb.DeviceHandle).KernelDriverActive(number)
	if err != nil {
		return false, usbfsError(err)
	}
	return active, nil
}

func (usbfsNative) detachKernelDriver(h nativeHandle, number uint8) error {
	return usbfsError(h.(*usb.DeviceHandle).DetachKernelDriver(number))
}

func (usbfsNative) attachKernelDriver(h nativeHandle, number uint8) error {
	return usbfsError(h.(*usb.DeviceHandle).AttachKernelDriver(number))
}

func (usbfsNative) resetDevice(h nativeHandle) error {
	return usbfsError(h.(*usb.DeviceHandle).ResetDevice())
}

func (usbfsNative) stringDescriptor(h nativeHandle, index uint8) (string, error) {
	s, err := h.(*usb.DeviceHandle).StringDescriptor(index)
	if err != nil {
		return "", usbfsError(err)
	}
	return s, nil
}

func (usbfsNative) bosDescriptor(h nativeHandle) (*descriptors.BOSDescriptor, error) {
	return nil, ErrNotSupported
}

// usbfsError maps the usbfs library's sentinel errors onto native
// status codes.
func usbfsError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, usb.ErrPermissionDenied):
		return ErrAccess
	case errors.Is(err, usb.ErrDeviceNotFound):
		return ErrNoDevice
	case errors.Is(err, usb.ErrDeviceBusy):
		return ErrBusy
	case errors.Is(err, usb.ErrEAGAIN):
		return ErrBusy
	default:
		return ErrIO
	}
}
