package descriptors

import (
	"encoding/binary"
	"io"

	"github.com/google/uuid"
)

// Device capability types carried inside a BOS descriptor, USB 3.2 spec
// table 9-14.
type CapabilityType byte

const (
	CapabilityTypeWirelessUSB  CapabilityType = 0x01
	CapabilityTypeUSB20Ext     CapabilityType = 0x02
	CapabilityTypeSuperSpeed   CapabilityType = 0x03
	CapabilityTypeContainerID  CapabilityType = 0x04
	CapabilityTypePlatform     CapabilityType = 0x05
	CapabilityTypeSuperSpeed10 CapabilityType = 0x0a
)

const (
	bosDescriptorLength         = 5
	containerIDDescriptorLength = 20
)

// DeviceCapability is one capability record from a BOS descriptor. Data
// holds the capability-specific bytes following the 3-byte header.
type DeviceCapability struct {
	Type CapabilityType
	Data []byte
}

// BOSDescriptor is the Binary Object Store descriptor: a header plus a
// sequence of device capability records.
type BOSDescriptor struct {
	TotalLength  uint16
	Capabilities []DeviceCapability
}

// UnmarshalBinary decodes a full BOS blob, the 5-byte header followed
// by NumDeviceCaps capability records.
func (bd *BOSDescriptor) UnmarshalBinary(buf []byte) error {
	if len(buf) < bosDescriptorLength {
		return io.ErrShortBuffer
	}
	if buf[0] < bosDescriptorLength || DescriptorType(buf[1]) != DescriptorTypeBOS {
		return ErrInvalidDescriptor
	}
	bd.TotalLength = binary.LittleEndian.Uint16(buf[2:4])
	numCaps := int(buf[4])
	bd.Capabilities = nil

	// A TotalLength smaller than the header cannot describe a valid
	// blob and must not truncate below it.
	head := int(buf[0])
	if int(bd.TotalLength) < head {
		return ErrInvalidDescriptor
	}
	if int(bd.TotalLength) < len(buf) {
		buf = buf[:bd.TotalLength]
	}
	for i := head; i < len(buf) && len(bd.Capabilities) < numCaps; {
		if buf[i] < 3 || i+int(buf[i]) > len(buf) {
			return ErrInvalidDescriptor
		}
		block := buf[i : i+int(buf[i])]
		bd.Capabilities = append(bd.Capabilities, DeviceCapability{
			Type: CapabilityType(block[2]),
			Data: block[3:],
		})
		i += int(block[0])
	}
	return nil
}

// ContainerID returns the device's platform Container ID, a UUID that
// stays stable across the device's ports and modes. The second return
// is false if the BOS descriptor carries no Container ID capability.
func (bd *BOSDescriptor) ContainerID() (uuid.UUID, bool) {
	for _, cap := range bd.Capabilities {
		if cap.Type != CapabilityTypeContainerID {
			continue
		}
		// One reserved byte, then the 16 UUID bytes as transmitted.
		if len(cap.Data) < containerIDDescriptorLength-3 {
			continue
		}
		id, err := uuid.FromBytes(cap.Data[1:17])
		if err != nil {
			continue
		}
		return id, true
	}
	return uuid.UUID{}, false
}
