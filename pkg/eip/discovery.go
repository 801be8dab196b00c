package eip

import (
	"bytes"
	"encoding/binary"
	"io"
)

// ListIdentityItem represents an item in the ListIdentity response
type ListIdentityItem struct {
	TypeID        uint16
	Length        uint16
	EncapsVersion uint16
	SocketAddr    [16]byte // struct sockaddr_in
	VendorID      uint16
	DeviceType    uint16
	ProductCode   uint16
	Revision      [2]byte // Major, Minor
	Status        uint16
	SerialNumber  uint32
	ProductName   string // Max 32 chars
	State         uint8
}

// ListServicesItem represents an item in the ListServices response
type ListServicesItem struct {
	TypeID          uint16
	Length          uint16
	Version         uint16
	CapabilityFlags uint16
	Name            string // 16 bytes fixed
}

// Encode writes the wire form of a single CIP Identity item, the device
// side of DecodeListIdentityResponse. Length is recomputed from the
// item's own fields rather than trusted from the caller.
func (item *ListIdentityItem) Encode() []byte {
	body := new(bytes.Buffer)
	binary.Write(body, binary.LittleEndian, item.EncapsVersion)
	binary.Write(body, binary.LittleEndian, item.SocketAddr)
	binary.Write(body, binary.LittleEndian, item.VendorID)
	binary.Write(body, binary.LittleEndian, item.DeviceType)
	binary.Write(body, binary.LittleEndian, item.ProductCode)
	binary.Write(body, binary.LittleEndian, item.Revision)
	binary.Write(body, binary.LittleEndian, item.Status)
	binary.Write(body, binary.LittleEndian, item.SerialNumber)
	body.WriteByte(byte(len(item.ProductName)))
	body.WriteString(item.ProductName)
	body.WriteByte(item.State)

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint16(0x0C))
	binary.Write(buf, binary.LittleEndian, uint16(body.Len()))
	buf.Write(body.Bytes())
	return buf.Bytes()
}

// EncodeListIdentityResponse produces the full ListIdentity/list_identity
// reply payload: a one-item count followed by the single Identity item
// this runtime always reports.
func EncodeListIdentityResponse(item ListIdentityItem) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint16(1))
	buf.Write(item.Encode())
	return buf.Bytes()
}

// Encode writes the wire form of a single Supported Service item.
func (item *ListServicesItem) Encode() []byte {
	name := make([]byte, 16)
	copy(name, item.Name)

	body := new(bytes.Buffer)
	binary.Write(body, binary.LittleEndian, item.Version)
	binary.Write(body, binary.LittleEndian, item.CapabilityFlags)
	body.Write(name)

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint16(ItemIDListServices))
	binary.Write(buf, binary.LittleEndian, uint16(body.Len()))
	buf.Write(body.Bytes())
	return buf.Bytes()
}

// EncodeListServicesResponse produces the full ListServices reply
// payload, advertising the "Communications" service this runtime
// implements over TCP and UDP.
func EncodeListServicesResponse(items ...ListServicesItem) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint16(len(items)))
	for _, item := range items {
		buf.Write(item.Encode())
	}
	return buf.Bytes()
}

// DecodeListServicesItem decodes a single service item
func DecodeListServicesItem(r io.Reader) (*ListServicesItem, error) {
	item := &ListServicesItem{}
	if err := binary.Read(r, binary.LittleEndian, &item.TypeID); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &item.Length); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &item.Version); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &item.CapabilityFlags); err != nil {
		return nil, err
	}

	nameBytes := make([]byte, 16)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return nil, err
	}
	// Trim null bytes
	item.Name = string(bytes.TrimRight(nameBytes, "\x00"))

	return item, nil
}

// DecodeListIdentityResponse decodes the full response data from ListIdentity
func DecodeListIdentityResponse(data []byte) ([]ListIdentityItem, error) {
	r := bytes.NewReader(data)
	var count uint16
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}

	items := make([]ListIdentityItem, 0, count)
	for i := 0; i < int(count); i++ {
		// Read Type and Length first
		var typeID uint16
		if err := binary.Read(r, binary.LittleEndian, &typeID); err != nil {
			return nil, err
		}
		var length uint16
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			return nil, err
		}

		if typeID == 0x0C {
			// CIP Identity Item
			item := ListIdentityItem{
				TypeID: typeID,
				Length: length,
			}
			// Decode remaining fields
			if err := binary.Read(r, binary.LittleEndian, &item.EncapsVersion); err != nil {
				return nil, err
			}
			if err := binary.Read(r, binary.LittleEndian, &item.SocketAddr); err != nil {
				return nil, err
			}
			if err := binary.Read(r, binary.LittleEndian, &item.VendorID); err != nil {
				return nil, err
			}
			if err := binary.Read(r, binary.LittleEndian, &item.DeviceType); err != nil {
				return nil, err
			}
			if err := binary.Read(r, binary.LittleEndian, &item.ProductCode); err != nil {
				return nil, err
			}
			if err := binary.Read(r, binary.LittleEndian, &item.Revision); err != nil {
				return nil, err
			}
			if err := binary.Read(r, binary.LittleEndian, &item.Status); err != nil {
				return nil, err
			}
			if err := binary.Read(r, binary.LittleEndian, &item.SerialNumber); err != nil {
				return nil, err
			}

			// ProductName is a length-prefixed string (1 byte length)
			var nameLen uint8
			if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
				return nil, err
			}
			nameBytes := make([]byte, nameLen)
			if _, err := io.ReadFull(r, nameBytes); err != nil {
				return nil, err
			}
			item.ProductName = string(nameBytes)

			if err := binary.Read(r, binary.LittleEndian, &item.State); err != nil {
				return nil, err
			}
			items = append(items, item)
		} else {
			// Unknown Item Type, skip data
			skip := make([]byte, length)
			if _, err := io.ReadFull(r, skip); err != nil {
				return nil, err
			}
		}
	}
	return items, nil
}

// EncodeListInterfacesResponse produces the List Interfaces reply
// payload: this runtime advertises no interface objects beyond the
// default TCP/IP Interface, so the item count is always zero.
func EncodeListInterfacesResponse() []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint16(0))
	return buf.Bytes()
}

// LegacyItem is the pre-CPF "Legacy" discovery item (type 0x0001) that
// the original BOOTP-era broadcast discovery used: a bare struct
// sockaddr_in carrying the device's address. Family and Port are wire
// fields of that C struct and so, unlike the rest of ENIP, are big
// endian on the wire; Addr is encoded in network byte order too.
type LegacyItem struct {
	Family uint16
	Port   uint16
	Addr   [4]byte
}

// Encode writes the wire form of a single Legacy item: a 16-byte
// struct sockaddr_in (family, port, address, 8 bytes of padding),
// matching the SocketAddr field ListIdentityItem carries.
func (item *LegacyItem) Encode() []byte {
	body := make([]byte, 16)
	binary.BigEndian.PutUint16(body[0:2], item.Family)
	binary.BigEndian.PutUint16(body[2:4], item.Port)
	copy(body[4:8], item.Addr[:])

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint16(0x0001))
	binary.Write(buf, binary.LittleEndian, uint16(len(body)))
	buf.Write(body)
	return buf.Bytes()
}

// EncodeLegacyResponse produces the full legacy-command reply payload:
// a one-item count followed by the single Legacy item.
func EncodeLegacyResponse(item LegacyItem) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint16(1))
	buf.Write(item.Encode())
	return buf.Bytes()
}

// DecodeListServicesResponse decodes the full response data from ListServices
func DecodeListServicesResponse(data []byte) ([]ListServicesItem, error) {
	r := bytes.NewReader(data)
	var count uint16
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}

	items := make([]ListServicesItem, 0, count)
	for i := 0; i < int(count); i++ {
		item, err := DecodeListServicesItem(r)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}
