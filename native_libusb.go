//go:build cgo

package libusb

/*
#cgo LDFLAGS: -lusb-1.0
#include <libusb-1.0/libusb.h>
#include <stdlib.h>

void goLibusbLogCb(libusb_context *ctx, enum libusb_log_level level, const char *str);

// libusb_set_option is variadic and function pointers cannot be passed
// directly, so both go through C shims.
static int set_log_level_option(libusb_context *ctx, int level) {
	return libusb_set_option(ctx, LIBUSB_OPTION_LOG_LEVEL, level);
}

static void attach_log_cb(libusb_context *ctx, int mode) {
	libusb_set_log_cb(ctx, goLibusbLogCb, mode);
}

// Flexible array members are not addressable from cgo.
static struct libusb_bos_dev_capability_descriptor **dev_capability_ptr(struct libusb_bos_descriptor *x) {
	return &x->dev_capability[0];
}

static uint8_t *dev_capability_data_ptr(struct libusb_bos_dev_capability_descriptor *x) {
	return &x->dev_capability_data[0];
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/kevmo314/go-libusb/pkg/descriptors"
)

// libusbNative is the cgo-backed implementation of the native boundary.
type libusbNative struct{}

func defaultNativeAPI() nativeAPI { return libusbNative{} }

// libusbContextIDs maps the native library's context pointers back to
// the identity tokens the log registry is keyed by. The trampoline
// reads it from library-internal threads; the zero id (the global
// sentinel) is used for pointers that never had a callback installed.
var libusbContextIDs = struct {
	sync.Mutex
	m map[*C.libusb_context]uint64
}{m: make(map[*C.libusb_context]uint64)}

func (libusbNative) init() (nativeContext, error) {
	var ctx *C.libusb_context
	if ret := C.libusb_init(&ctx); ret != 0 {
		return nil, ErrorCode(ret)
	}
	return ctx, nil
}

func (libusbNative) exit(ctx nativeContext) {
	c := ctx.(*C.libusb_context)
	libusbContextIDs.Lock()
	delete(libusbContextIDs.m, c)
	libusbContextIDs.Unlock()
	C.libusb_exit(c)
}

func (libusbNative) initDefault() error {
	if ret := C.libusb_init(nil); ret != 0 {
		return ErrorCode(ret)
	}
	return nil
}

func (libusbNative) exitDefault() {
	C.libusb_exit(nil)
}

func (libusbNative) setLogLevel(ctx nativeContext, level LogLevel) {
	C.set_log_level_option(ctx.(*C.libusb_context), C.int(level))
}

func (libusbNative) setDefaultLogLevel(level LogLevel) {
	C.set_log_level_option(nil, C.int(level))
}

func (libusbNative) setLogCallback(ctx nativeContext, id uint64, mode LogCallbackMode) {
	c := ctx.(*C.libusb_context)
	libusbContextIDs.Lock()
	libusbContextIDs.m[c] = id
	libusbContextIDs.Unlock()

	cbMode := C.int(C.LIBUSB_LOG_CB_CONTEXT)
	if mode == LogCallbackModeGlobal {
		cbMode = C.int(C.LIBUSB_LOG_CB_GLOBAL)
	}
	C.attach_log_cb(c, cbMode)
}

func (libusbNative) hasCapability(cap Capability) bool {
	return C.libusb_has_capability(C.uint32_t(cap)) != 0
}

func (libusbNative) deviceList(ctx nativeContext) (nativeDeviceList, []nativeDevice, error) {
	var list **C.libusb_device
	n := C.libusb_get_device_list(ctx.(*C.libusb_context), &list)
	if n < 0 {
		return nil, nil, ErrorCode(n)
	}
	devs := make([]nativeDevice, 0, int(n))
	for _, d := range unsafe.Slice(list, int(n)) {
		devs = append(devs, d)
	}
	return list, devs, nil
}

func (libusbNative) freeDeviceList(list nativeDeviceList) {
	C.libusb_free_device_list(list.(**C.libusb_device), 1)
}

func (libusbNative) refDevice(dev nativeDevice) {
	C.libusb_ref_device(dev.(*C.libusb_device))
}

func (libusbNative) unrefDevice(dev nativeDevice) {
	C.libusb_unref_device(dev.(*C.libusb_device))
}

func (libusbNative) deviceDescriptor(dev nativeDevice) (*descriptors.DeviceDescriptor, error) {
	var desc C.struct_libusb_device_descriptor
	if ret := C.libusb_get_device_descriptor(dev.(*C.libusb_device), &desc); ret < 0 {
		return nil, ErrorCode(ret)
	}
	return &descriptors.DeviceDescriptor{
		USBVersion:        uint16(desc.bcdUSB),
		DeviceClass:       uint8(desc.bDeviceClass),
		DeviceSubClass:    uint8(desc.bDeviceSubClass),
		DeviceProtocol:    uint8(desc.bDeviceProtocol),
		MaxPacketSize0:    uint8(desc.bMaxPacketSize0),
		VendorID:          uint16(desc.idVendor),
		ProductID:         uint16(desc.idProduct),
		DeviceVersion:     uint16(desc.bcdDevice),
		ManufacturerIndex: uint8(desc.iManufacturer),
		ProductIndex:      uint8(desc.iProduct),
		SerialNumberIndex: uint8(desc.iSerialNumber),
		NumConfigurations: uint8(desc.bNumConfigurations),
	}, nil
}

func (libusbNative) configDescriptor(dev nativeDevice, index uint8) (*descriptors.ConfigDescriptor, error) {
	var cfg *C.struct_libusb_config_descriptor
	if ret := C.libusb_get_config_descriptor(dev.(*C.libusb_device), C.uint8_t(index), &cfg); ret < 0 {
		return nil, ErrorCode(ret)
	}
	defer C.libusb_free_config_descriptor(cfg)
	return convertConfigDescriptor(cfg), nil
}

func (libusbNative) activeConfigDescriptor(dev nativeDevice) (*descriptors.ConfigDescriptor, error) {
	var cfg *C.struct_libusb_config_descriptor
	if ret := C.libusb_get_active_config_descriptor(dev.(*C.libusb_device), &cfg); ret < 0 {
		return nil, ErrorCode(ret)
	}
	defer C.libusb_free_config_descriptor(cfg)
	return convertConfigDescriptor(cfg), nil
}

func convertConfigDescriptor(cfg *C.struct_libusb_config_descriptor) *descriptors.ConfigDescriptor {
	out := &descriptors.ConfigDescriptor{
		TotalLength:        uint16(cfg.wTotalLength),
		NumInterfaces:      uint8(cfg.bNumInterfaces),
		ConfigurationValue: uint8(cfg.bConfigurationValue),
		DescriptionIndex:   uint8(cfg.iConfiguration),
		Attributes:         uint8(cfg.bmAttributes),
		MaxPower:           uint8(cfg.MaxPower),
		Extra:              cBytes(unsafe.Pointer(cfg.extra), cfg.extra_length),
	}
	for _, iface := range unsafe.Slice(cfg._interface, int(cfg.bNumInterfaces)) {
		for _, alt := range unsafe.Slice(iface.altsetting, int(iface.num_altsetting)) {
			id := descriptors.InterfaceDescriptor{
				InterfaceNumber:   uint8(alt.bInterfaceNumber),
				AlternateSetting:  uint8(alt.bAlternateSetting),
				NumEndpoints:      uint8(alt.bNumEndpoints),
				InterfaceClass:    uint8(alt.bInterfaceClass),
				InterfaceSubClass: uint8(alt.bInterfaceSubClass),
				InterfaceProtocol: uint8(alt.bInterfaceProtocol),
				DescriptionIndex:  uint8(alt.iInterface),
				Extra:             cBytes(unsafe.Pointer(alt.extra), alt.extra_length),
			}
			for _, ep := range unsafe.Slice(alt.endpoint, int(alt.bNumEndpoints)) {
				id.Endpoints = append(id.Endpoints, descriptors.EndpointDescriptor{
					EndpointAddress: uint8(ep.bEndpointAddress),
					Attributes:      uint8(ep.bmAttributes),
					MaxPacketSize:   uint16(ep.wMaxPacketSize),
					Interval:        uint8(ep.bInterval),
					Extra:           cBytes(unsafe.Pointer(ep.extra), ep.extra_length),
				})
			}
			out.Interfaces = append(out.Interfaces, id)
		}
	}
	return out
}

func cBytes(p unsafe.Pointer, n C.int) []byte {
	if p == nil || n <= 0 {
		return nil
	}
	return C.GoBytes(p, n)
}

func (libusbNative) busNumber(dev nativeDevice) uint8 {
	return uint8(C.libusb_get_bus_number(dev.(*C.libusb_device)))
}

func (libusbNative) deviceAddress(dev nativeDevice) uint8 {
	return uint8(C.libusb_get_device_address(dev.(*C.libusb_device)))
}

func (libusbNative) deviceSpeed(dev nativeDevice) int {
	return int(C.libusb_get_device_speed(dev.(*C.libusb_device)))
}

func (libusbNative) open(dev nativeDevice) (nativeHandle, error) {
	var h *C.libusb_device_handle
	if ret := C.libusb_open(dev.(*C.libusb_device), &h); ret < 0 {
		return nil, ErrorCode(ret)
	}
	return h, nil
}

func (libusbNative) openVIDPID(ctx nativeContext, vendorID, productID uint16) nativeHandle {
	h := C.libusb_open_device_with_vid_pid(ctx.(*C.libusb_context), C.uint16_t(vendorID), C.uint16_t(productID))
	if h == nil {
		return nil
	}
	return h
}

func (libusbNative) close(h nativeHandle) {
	C.libusb_close(h.(*C.libusb_device_handle))
}

func (libusbNative) claimInterface(h nativeHandle, number uint8) error {
	return errFromRet(C.libusb_claim_interface(h.(*C.libusb_device_handle), C.int(number)))
}

func (libusbNative) releaseInterface(h nativeHandle, number uint8) error {
	return errFromRet(C.libusb_release_interface(h.(*C.libusb_device_handle), C.int(number)))
}

func (libusbNative) kernelDriverActive(h nativeHandle, number uint8) (bool, error) {
	ret := C.libusb_kernel_driver_active(h.(*C.libusb_device_handle), C.int(number))
	if ret < 0 {
		return false, ErrorCode(ret)
	}
	return ret == 1, nil
}

func (libusbNative) detachKernelDriver(h nativeHandle, number uint8) error {
	return errFromRet(C.libusb_detach_kernel_driver(h.(*C.libusb_device_handle), C.int(number)))
}

func (libusbNative) attachKernelDriver(h nativeHandle, number uint8) error {
	return errFromRet(C.libusb_attach_kernel_driver(h.(*C.libusb_device_handle), C.int(number)))
}

func (libusbNative) resetDevice(h nativeHandle) error {
	return errFromRet(C.libusb_reset_device(h.(*C.libusb_device_handle)))
}

func (libusbNative) stringDescriptor(h nativeHandle, index uint8) (string, error) {
	buf := make([]byte, 256)
	n := C.libusb_get_string_descriptor_ascii(h.(*C.libusb_device_handle), C.uint8_t(index),
		(*C.uchar)(unsafe.Pointer(&buf[0])), C.int(len(buf)))
	if n < 0 {
		return "", ErrorCode(n)
	}
	return string(buf[:int(n)]), nil
}

func (libusbNative) bosDescriptor(h nativeHandle) (*descriptors.BOSDescriptor, error) {
	var bos *C.struct_libusb_bos_descriptor
	if ret := C.libusb_get_bos_descriptor(h.(*C.libusb_device_handle), &bos); ret < 0 {
		return nil, ErrorCode(ret)
	}
	defer C.libusb_free_bos_descriptor(bos)

	out := &descriptors.BOSDescriptor{TotalLength: uint16(bos.wTotalLength)}
	caps := unsafe.Slice(C.dev_capability_ptr(bos), int(bos.bNumDeviceCaps))
	for _, cap := range caps {
		if cap == nil || cap.bLength < 3 {
			continue
		}
		out.Capabilities = append(out.Capabilities, descriptors.DeviceCapability{
			Type: descriptors.CapabilityType(cap.bDevCapabilityType),
			Data: cBytes(unsafe.Pointer(C.dev_capability_data_ptr(cap)), C.int(cap.bLength)-3),
		})
	}
	return out, nil
}

func errFromRet(ret C.int) error {
	if ret < 0 {
		return ErrorCode(ret)
	}
	return nil
}
