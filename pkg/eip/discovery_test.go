package eip

import (
	"encoding/binary"
	"testing"
)

func TestEncodeListInterfacesResponseIsEmpty(t *testing.T) {
	data := EncodeListInterfacesResponse()
	if len(data) != 2 {
		t.Fatalf("len = %d, want 2 (just the zero item count)", len(data))
	}
	if binary.LittleEndian.Uint16(data) != 0 {
		t.Errorf("item count = %d, want 0", binary.LittleEndian.Uint16(data))
	}
}

func TestLegacyItemEncodeIsBigEndian(t *testing.T) {
	item := LegacyItem{Family: 2, Port: 44818, Addr: [4]byte{192, 168, 1, 100}}
	enc := item.Encode()

	if binary.LittleEndian.Uint16(enc[0:2]) != 0x0001 {
		t.Errorf("type id = 0x%04X, want 0x0001", binary.LittleEndian.Uint16(enc[0:2]))
	}
	if binary.LittleEndian.Uint16(enc[2:4]) != 16 {
		t.Errorf("length = %d, want 16", binary.LittleEndian.Uint16(enc[2:4]))
	}
	body := enc[4:]
	if binary.BigEndian.Uint16(body[0:2]) != 2 {
		t.Errorf("family = %d, want 2 (big endian)", binary.BigEndian.Uint16(body[0:2]))
	}
	if binary.BigEndian.Uint16(body[2:4]) != 44818 {
		t.Errorf("port = %d, want 44818 (big endian)", binary.BigEndian.Uint16(body[2:4]))
	}
	for i, want := range []byte{192, 168, 1, 100} {
		if body[4+i] != want {
			t.Errorf("addr[%d] = %d, want %d", i, body[4+i], want)
		}
	}
}

func TestEncodeLegacyResponseSingleItem(t *testing.T) {
	data := EncodeLegacyResponse(LegacyItem{Family: 2, Port: 44818, Addr: [4]byte{10, 0, 0, 1}})
	if binary.LittleEndian.Uint16(data[0:2]) != 1 {
		t.Fatalf("item count = %d, want 1", binary.LittleEndian.Uint16(data[0:2]))
	}
	if len(data) != 2+4+16 {
		t.Errorf("len = %d, want %d", len(data), 2+4+16)
	}
}
