package descriptors

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
)

// bosBlob builds a BOS descriptor with a USB 2.0 extension capability
// and a Container ID capability carrying id.
func bosBlob(id uuid.UUID) []byte {
	var b bytes.Buffer
	b.Write([]byte{5, 0x0f, 0, 0, 2})             // header, total fixed up below
	b.Write([]byte{7, 0x10, 0x02, 0x02, 0, 0, 0}) // USB 2.0 LPM extension
	b.Write([]byte{20, 0x10, 0x04, 0x00})         // container id header + reserved
	b.Write(id[:])
	blob := b.Bytes()
	blob[2] = byte(len(blob))
	blob[3] = byte(len(blob) >> 8)
	return blob
}

func TestBOSDescriptorUnmarshal(t *testing.T) {
	id := uuid.MustParse("8a41bb48-2f4b-4f9b-93e1-1d3a1c6e2b90")
	var bd BOSDescriptor
	if err := bd.UnmarshalBinary(bosBlob(id)); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}

	if len(bd.Capabilities) != 2 {
		t.Fatalf("decoded %d capabilities, want 2", len(bd.Capabilities))
	}
	if bd.Capabilities[0].Type != CapabilityTypeUSB20Ext {
		t.Errorf("capability 0 type = %02x, want USB 2.0 extension", bd.Capabilities[0].Type)
	}
	if bd.Capabilities[1].Type != CapabilityTypeContainerID {
		t.Errorf("capability 1 type = %02x, want container id", bd.Capabilities[1].Type)
	}

	got, ok := bd.ContainerID()
	if !ok {
		t.Fatal("ContainerID not found")
	}
	if got != id {
		t.Errorf("ContainerID = %s, want %s", got, id)
	}
}

func TestBOSDescriptorWithoutContainerID(t *testing.T) {
	var b bytes.Buffer
	b.Write([]byte{5, 0x0f, 12, 0, 1})
	b.Write([]byte{7, 0x10, 0x02, 0x02, 0, 0, 0})
	var bd BOSDescriptor
	if err := bd.UnmarshalBinary(b.Bytes()); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if _, ok := bd.ContainerID(); ok {
		t.Error("ContainerID reported present without a container id capability")
	}
}

func TestBOSDescriptorShortTotalLength(t *testing.T) {
	// wTotalLength below the header length must be rejected, not
	// truncate the buffer to nothing.
	var bd BOSDescriptor
	if err := bd.UnmarshalBinary([]byte{5, 0x0f, 0, 0, 0}); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("zero total length: got %v, want ErrInvalidDescriptor", err)
	}
}

func TestBOSDescriptorRejectsWrongType(t *testing.T) {
	var bd BOSDescriptor
	if err := bd.UnmarshalBinary([]byte{5, 0x02, 5, 0, 0}); !errors.Is(err, ErrInvalidDescriptor) {
		t.Errorf("wrong type: got %v, want ErrInvalidDescriptor", err)
	}
}
