package libusb

import (
	"errors"
	"fmt"
)

// ErrorCode is a status code reported by the native library. Zero and
// positive values are success (the meaning of positive values varies by
// call); negative values are the fixed set below.
type ErrorCode int

const (
	Success         ErrorCode = 0
	ErrIO           ErrorCode = -1
	ErrInvalidParam ErrorCode = -2
	ErrAccess       ErrorCode = -3
	ErrNoDevice     ErrorCode = -4
	ErrNotFound     ErrorCode = -5
	ErrBusy         ErrorCode = -6
	ErrTimeout      ErrorCode = -7
	ErrOverflow     ErrorCode = -8
	ErrPipe         ErrorCode = -9
	ErrInterrupted  ErrorCode = -10
	ErrNoMem        ErrorCode = -11
	ErrNotSupported ErrorCode = -12
	ErrOther        ErrorCode = -99
)

func (c ErrorCode) Error() string {
	switch c {
	case Success:
		return "success"
	case ErrIO:
		return "input/output error"
	case ErrInvalidParam:
		return "invalid parameter"
	case ErrAccess:
		return "access denied"
	case ErrNoDevice:
		return "no such device"
	case ErrNotFound:
		return "entity not found"
	case ErrBusy:
		return "resource busy"
	case ErrTimeout:
		return "operation timed out"
	case ErrOverflow:
		return "overflow"
	case ErrPipe:
		return "pipe error"
	case ErrInterrupted:
		return "system call interrupted"
	case ErrNoMem:
		return "insufficient memory"
	case ErrNotSupported:
		return "operation not supported"
	default:
		return "other error"
	}
}

// codeOf extracts the native status from any error crossing the native
// boundary. Errors of unknown shape map to ErrOther.
func codeOf(err error) ErrorCode {
	var code ErrorCode
	if errors.As(err, &code) {
		return code
	}
	return ErrOther
}

// InitError reports that context construction failed.
type InitError struct {
	Code ErrorCode
}

func (e *InitError) Error() string { return fmt.Sprintf("usb: context init failed: %s", e.Code) }
func (e *InitError) Unwrap() error { return e.Code }

// EnumerationError reports that device listing failed.
type EnumerationError struct {
	Code ErrorCode
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("usb: device enumeration failed: %s", e.Code)
}
func (e *EnumerationError) Unwrap() error { return e.Code }

// DescriptorReadError reports that a descriptor could not be read or
// decoded.
type DescriptorReadError struct {
	Code ErrorCode
}

func (e *DescriptorReadError) Error() string {
	return fmt.Sprintf("usb: descriptor read failed: %s", e.Code)
}
func (e *DescriptorReadError) Unwrap() error { return e.Code }

// NotFoundError reports that the requested entity does not exist, such
// as a configuration index that is out of range.
type NotFoundError struct {
	Code ErrorCode
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("usb: not found: %s", e.Code) }
func (e *NotFoundError) Unwrap() error { return e.Code }

// AccessError reports that the caller lacks permission for the
// operation, typically opening a device node without privileges.
type AccessError struct {
	Code ErrorCode
}

func (e *AccessError) Error() string { return fmt.Sprintf("usb: access denied: %s", e.Code) }
func (e *AccessError) Unwrap() error { return e.Code }

// NativeError is the passthrough for any native status that has no more
// specific classification.
type NativeError struct {
	Code ErrorCode
}

func (e *NativeError) Error() string { return fmt.Sprintf("usb: native error: %s", e.Code) }
func (e *NativeError) Unwrap() error { return e.Code }
