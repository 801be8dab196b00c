package cip

import (
	"encoding/binary"
	"fmt"
)

// Segment is a decoded EPATH segment. Exactly one of the pointer fields is
// non-nil, mirroring the tagged-union segment described by the data model:
// class/instance/attribute/element are logical segments, Symbolic is an
// ANSI extended symbol segment, and Port/Link form a port segment.
type Segment struct {
	Class     *uint32
	Instance  *uint32
	Attribute *uint32
	Element   *uint32
	Symbolic  *string
	Port      *uint32
	Link      []byte
}

func (s Segment) String() string {
	switch {
	case s.Class != nil:
		return fmt.Sprintf("class=%d", *s.Class)
	case s.Instance != nil:
		return fmt.Sprintf("instance=%d", *s.Instance)
	case s.Attribute != nil:
		return fmt.Sprintf("attribute=%d", *s.Attribute)
	case s.Element != nil:
		return fmt.Sprintf("element=%d", *s.Element)
	case s.Symbolic != nil:
		return fmt.Sprintf("symbolic=%q", *s.Symbolic)
	case s.Port != nil:
		return fmt.Sprintf("port=%d,link=%X", *s.Port, s.Link)
	default:
		return "empty"
	}
}

func u32p(v uint32) *uint32 { return &v }

// Decode walks a wire-encoded Path and returns its segments in order.
// It understands logical (class/instance/attribute/point-element)
// segments in 8/16/32-bit form, the ANSI extended symbol segment (0x91),
// and port segments in both the single-byte and the extended-port form,
// including their one-byte or length-prefixed link addresses.
func Decode(p Path) ([]Segment, error) {
	b := p.Bytes()
	var segs []Segment
	i := 0
	for i < len(b) {
		head := b[i]
		switch head & 0xE0 {
		case SegmentTypeLogical:
			logicalType := head & 0x1C
			format := head & 0x03
			i++
			var val uint32
			switch format {
			case LogicalFormat8Bit:
				if i >= len(b) {
					return nil, fmt.Errorf("cip: truncated 8-bit logical segment")
				}
				val = uint32(b[i])
				i++
			case LogicalFormat16Bit:
				if i+1 >= len(b) {
					return nil, fmt.Errorf("cip: truncated 16-bit logical segment")
				}
				i++ // pad byte
				val = uint32(binary.LittleEndian.Uint16(b[i : i+2]))
				i += 2
			case LogicalFormat32Bit:
				if i+4 >= len(b) {
					return nil, fmt.Errorf("cip: truncated 32-bit logical segment")
				}
				i++ // pad byte
				val = binary.LittleEndian.Uint32(b[i : i+4])
				i += 4
			default:
				return nil, fmt.Errorf("cip: reserved logical segment format")
			}
			var seg Segment
			switch logicalType {
			case LogicalTypeClass:
				seg.Class = u32p(val)
			case LogicalTypeInstance:
				seg.Instance = u32p(val)
			case LogicalTypeAttribute:
				seg.Attribute = u32p(val)
			case LogicalTypePoint:
				seg.Element = u32p(val)
			default:
				seg.Attribute = u32p(val) // member/special/service: treat as opaque numeric
			}
			segs = append(segs, seg)
		case SegmentTypeData:
			if head != 0x91 {
				return nil, fmt.Errorf("cip: unsupported data segment 0x%02X", head)
			}
			i++
			if i >= len(b) {
				return nil, fmt.Errorf("cip: truncated symbolic segment")
			}
			l := int(b[i])
			i++
			if i+l > len(b) {
				return nil, fmt.Errorf("cip: truncated symbolic segment data")
			}
			name := string(b[i : i+l])
			i += l
			if l%2 != 0 {
				i++ // pad
			}
			segs = append(segs, Segment{Symbolic: &name})
		case SegmentTypePort:
			port := uint32(head & 0x0F)
			extended := port == 0x0F
			linkSized := head&0x10 != 0
			i++
			if extended {
				if i+2 > len(b) {
					return nil, fmt.Errorf("cip: truncated extended port segment")
				}
				port = uint32(binary.LittleEndian.Uint16(b[i : i+2]))
				i += 2
			}
			var linkLen int
			if linkSized {
				if i >= len(b) {
					return nil, fmt.Errorf("cip: truncated port link length")
				}
				linkLen = int(b[i])
				i++
			} else {
				linkLen = 1
			}
			if i+linkLen > len(b) {
				return nil, fmt.Errorf("cip: truncated port link address")
			}
			link := append([]byte(nil), b[i:i+linkLen]...)
			i += linkLen
			if linkSized && linkLen%2 != 0 {
				i++
			}
			segs = append(segs, Segment{Port: u32p(port), Link: link})
		default:
			return nil, fmt.Errorf("cip: unsupported segment type 0x%02X", head&0xE0)
		}
	}
	return segs, nil
}
