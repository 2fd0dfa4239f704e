//go:build cgo

package libusb

/*
#include <libusb-1.0/libusb.h>
*/
import "C"

// goLibusbLogCb is the single process-wide log callback handed to the
// native library. It runs on whatever internal thread the library emits
// the line from, possibly several concurrently; it only resolves the
// context pointer to an identity token and forwards to dispatchLog.
//
//export goLibusbLogCb
func goLibusbLogCb(ctx *C.libusb_context, level C.enum_libusb_log_level, str *C.char) {
	id := globalLogKey
	libusbContextIDs.Lock()
	if v, ok := libusbContextIDs.m[ctx]; ok {
		id = v
	}
	libusbContextIDs.Unlock()

	var text []byte
	if str != nil {
		text = []byte(C.GoString(str))
	}
	dispatchLog(id, int(level), text)
}
