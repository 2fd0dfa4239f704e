// Package descriptors decodes the fixed-layout descriptor records
// defined in the USB spec, section 9.6. The structs are plain data;
// they hold no references to the device they were read from.
package descriptors

import (
	"encoding/binary"
	"errors"
	"io"
)

var ErrInvalidDescriptor = errors.New("invalid descriptor")

// Standard descriptor types, USB spec table 9-5.
type DescriptorType byte

const (
	DescriptorTypeDevice    DescriptorType = 0x01
	DescriptorTypeConfig    DescriptorType = 0x02
	DescriptorTypeString    DescriptorType = 0x03
	DescriptorTypeInterface DescriptorType = 0x04
	DescriptorTypeEndpoint  DescriptorType = 0x05
	DescriptorTypeBOS       DescriptorType = 0x0f
)

const (
	deviceDescriptorLength    = 18
	configDescriptorLength    = 9
	interfaceDescriptorLength = 9
	endpointDescriptorLength  = 7
)

// DeviceDescriptor is the 18-byte record describing a device as a
// whole.
type DeviceDescriptor struct {
	USBVersion        uint16
	DeviceClass       uint8
	DeviceSubClass    uint8
	DeviceProtocol    uint8
	MaxPacketSize0    uint8
	VendorID          uint16
	ProductID         uint16
	DeviceVersion     uint16
	ManufacturerIndex uint8
	ProductIndex      uint8
	SerialNumberIndex uint8
	NumConfigurations uint8
}

func (dd *DeviceDescriptor) UnmarshalBinary(buf []byte) error {
	if len(buf) < deviceDescriptorLength {
		return io.ErrShortBuffer
	}
	if buf[0] < deviceDescriptorLength || DescriptorType(buf[1]) != DescriptorTypeDevice {
		return ErrInvalidDescriptor
	}
	dd.USBVersion = binary.LittleEndian.Uint16(buf[2:4])
	dd.DeviceClass = buf[4]
	dd.DeviceSubClass = buf[5]
	dd.DeviceProtocol = buf[6]
	dd.MaxPacketSize0 = buf[7]
	dd.VendorID = binary.LittleEndian.Uint16(buf[8:10])
	dd.ProductID = binary.LittleEndian.Uint16(buf[10:12])
	dd.DeviceVersion = binary.LittleEndian.Uint16(buf[12:14])
	dd.ManufacturerIndex = buf[14]
	dd.ProductIndex = buf[15]
	dd.SerialNumberIndex = buf[16]
	dd.NumConfigurations = buf[17]
	return nil
}

// ConfigDescriptor is a configuration descriptor together with the
// interface and endpoint descriptors that follow it on the wire.
type ConfigDescriptor struct {
	TotalLength        uint16
	NumInterfaces      uint8
	ConfigurationValue uint8
	DescriptionIndex   uint8
	Attributes         uint8
	MaxPower           uint8
	Interfaces         []InterfaceDescriptor
	// Extra holds class- and vendor-specific blocks that appear before
	// the first interface descriptor.
	Extra []byte
}

// SelfPowered reports whether the configuration advertises self power.
func (cd *ConfigDescriptor) SelfPowered() bool { return cd.Attributes&0x40 != 0 }

// RemoteWakeup reports whether the configuration supports remote
// wakeup.
func (cd *ConfigDescriptor) RemoteWakeup() bool { return cd.Attributes&0x20 != 0 }

// MaxPowerMilliamps returns the bus power draw the configuration may
// request.
func (cd *ConfigDescriptor) MaxPowerMilliamps() int { return int(cd.MaxPower) * 2 }

// UnmarshalBinary decodes a full configuration blob: the 9-byte header
// plus every descriptor up to TotalLength. Interface and endpoint
// records are decoded; unrecognized blocks attach to the Extra field of
// the element they follow.
func (cd *ConfigDescriptor) UnmarshalBinary(buf []byte) error {
	if len(buf) < configDescriptorLength {
		return io.ErrShortBuffer
	}
	if buf[0] < configDescriptorLength || DescriptorType(buf[1]) != DescriptorTypeConfig {
		return ErrInvalidDescriptor
	}
	cd.TotalLength = binary.LittleEndian.Uint16(buf[2:4])
	cd.NumInterfaces = buf[4]
	cd.ConfigurationValue = buf[5]
	cd.DescriptionIndex = buf[6]
	cd.Attributes = buf[7]
	cd.MaxPower = buf[8]
	cd.Interfaces = nil
	cd.Extra = nil

	// TotalLength covers the header itself; a smaller value cannot
	// describe a valid blob and must not truncate below the header.
	head := int(buf[0])
	if int(cd.TotalLength) < head {
		return ErrInvalidDescriptor
	}
	if int(cd.TotalLength) < len(buf) {
		buf = buf[:cd.TotalLength]
	}

	var iface *InterfaceDescriptor
	var ep *EndpointDescriptor
	for i := head; i < len(buf); {
		if buf[i] == 0 || i+int(buf[i]) > len(buf) {
			return ErrInvalidDescriptor
		}
		block := buf[i : i+int(buf[i])]
		switch DescriptorType(block[1]) {
		case DescriptorTypeInterface:
			var id InterfaceDescriptor
			if err := id.UnmarshalBinary(block); err != nil {
				return err
			}
			cd.Interfaces = append(cd.Interfaces, id)
			iface = &cd.Interfaces[len(cd.Interfaces)-1]
			ep = nil
		case DescriptorTypeEndpoint:
			if iface == nil {
				return ErrInvalidDescriptor
			}
			var ed EndpointDescriptor
			if err := ed.UnmarshalBinary(block); err != nil {
				return err
			}
			iface.Endpoints = append(iface.Endpoints, ed)
			ep = &iface.Endpoints[len(iface.Endpoints)-1]
		default:
			switch {
			case ep != nil:
				ep.Extra = append(ep.Extra, block...)
			case iface != nil:
				iface.Extra = append(iface.Extra, block...)
			default:
				cd.Extra = append(cd.Extra, block...)
			}
		}
		i += int(block[0])
	}
	return nil
}

// InterfaceDescriptor describes one alternate setting of one interface.
type InterfaceDescriptor struct {
	InterfaceNumber   uint8
	AlternateSetting  uint8
	NumEndpoints      uint8
	InterfaceClass    uint8
	InterfaceSubClass uint8
	InterfaceProtocol uint8
	DescriptionIndex  uint8
	Endpoints         []EndpointDescriptor
	Extra             []byte
}

func (id *InterfaceDescriptor) UnmarshalBinary(buf []byte) error {
	if len(buf) < interfaceDescriptorLength {
		return io.ErrShortBuffer
	}
	if buf[0] < interfaceDescriptorLength || DescriptorType(buf[1]) != DescriptorTypeInterface {
		return ErrInvalidDescriptor
	}
	id.InterfaceNumber = buf[2]
	id.AlternateSetting = buf[3]
	id.NumEndpoints = buf[4]
	id.InterfaceClass = buf[5]
	id.InterfaceSubClass = buf[6]
	id.InterfaceProtocol = buf[7]
	id.DescriptionIndex = buf[8]
	return nil
}

// TransferType is the transfer kind an endpoint carries, from the low
// two bits of its attributes.
type TransferType byte

const (
	TransferTypeControl TransferType = iota
	TransferTypeIsochronous
	TransferTypeBulk
	TransferTypeInterrupt
)

func (t TransferType) String() string {
	switch t {
	case TransferTypeControl:
		return "control"
	case TransferTypeIsochronous:
		return "isochronous"
	case TransferTypeBulk:
		return "bulk"
	case TransferTypeInterrupt:
		return "interrupt"
	default:
		return "unknown"
	}
}

// EndpointDirection is the direction bit of an endpoint address.
type EndpointDirection byte

const (
	EndpointDirectionOut EndpointDirection = 0x00
	EndpointDirectionIn  EndpointDirection = 0x80
)

func (d EndpointDirection) String() string {
	if d == EndpointDirectionIn {
		return "in"
	}
	return "out"
}

// EndpointDescriptor is the 7-byte record describing one endpoint.
type EndpointDescriptor struct {
	EndpointAddress uint8
	Attributes      uint8
	MaxPacketSize   uint16
	Interval        uint8
	Extra           []byte
}

func (ed *EndpointDescriptor) UnmarshalBinary(buf []byte) error {
	if len(buf) < endpointDescriptorLength {
		return io.ErrShortBuffer
	}
	if buf[0] < endpointDescriptorLength || DescriptorType(buf[1]) != DescriptorTypeEndpoint {
		return ErrInvalidDescriptor
	}
	ed.EndpointAddress = buf[2]
	ed.Attributes = buf[3]
	ed.MaxPacketSize = binary.LittleEndian.Uint16(buf[4:6])
	ed.Interval = buf[6]
	return nil
}

// Number returns the endpoint number without the direction bit.
func (ed *EndpointDescriptor) Number() uint8 { return ed.EndpointAddress & 0x0f }

// Direction returns the endpoint's direction.
func (ed *EndpointDescriptor) Direction() EndpointDirection {
	return EndpointDirection(ed.EndpointAddress & 0x80)
}

// TransferType returns the transfer kind the endpoint carries.
func (ed *EndpointDescriptor) TransferType() TransferType {
	return TransferType(ed.Attributes & 0x03)
}
