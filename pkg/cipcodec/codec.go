// Package cipcodec implements the per-primitive-type wire codecs that
// back every Attribute: each Codec knows how to Encode a Go value to its
// CIP wire form and Decode a wire form back to a Go value, plus its
// fixed element size (struct_calcsize in the distilled source) where the
// type has one.
package cipcodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"net"
	"reflect"

	"github.com/cip-core/cipcore/pkg/cip"
)

// Codec is the per-element wire codec bound to one Attribute. Size is 0
// for variable-length types (STRING, SSTRING, EPATH, EPATH_padded,
// IFACEADDRS); Decode for those consumes only as much of b as its own
// encoding needs and the caller must not assume a fixed stride.
type Codec interface {
	Name() string
	Size() int
	Encode(v any) ([]byte, error)
	// Decode parses one element starting at b[0], returning the decoded
	// value and the number of bytes consumed.
	Decode(b []byte) (value any, consumed int, err error)
}

type fixedCodec struct {
	name string
	size int
	enc  func(v any) ([]byte, error)
	dec  func(b []byte) (any, error)
}

func (c fixedCodec) Name() string { return c.name }
func (c fixedCodec) Size() int    { return c.size }
func (c fixedCodec) Encode(v any) ([]byte, error) { return c.enc(v) }
func (c fixedCodec) Decode(b []byte) (any, int, error) {
	if len(b) < c.size {
		return nil, 0, fmt.Errorf("cipcodec: %s needs %d bytes, have %d", c.name, c.size, len(b))
	}
	v, err := c.dec(b[:c.size])
	return v, c.size, err
}

func asUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	case int8:
		return uint64(n), nil
	case int16:
		return uint64(n), nil
	case int32:
		return uint64(n), nil
	case int64:
		return uint64(n), nil
	case int:
		return uint64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
			return rv.Uint(), nil
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
			return uint64(rv.Int()), nil
		case reflect.Bool:
			if rv.Bool() {
				return 1, nil
			}
			return 0, nil
		}
		return 0, fmt.Errorf("cipcodec: cannot coerce %T to integer", v)
	}
}

func intCodec(name string, size int, signed bool, newVal func(uint64) any) Codec {
	return fixedCodec{
		name: name,
		size: size,
		enc: func(v any) ([]byte, error) {
			n, err := asUint64(v)
			if err != nil {
				return nil, err
			}
			b := make([]byte, size)
			switch size {
			case 1:
				b[0] = byte(n)
			case 2:
				binary.LittleEndian.PutUint16(b, uint16(n))
			case 4:
				binary.LittleEndian.PutUint32(b, uint32(n))
			case 8:
				binary.LittleEndian.PutUint64(b, n)
			}
			return b, nil
		},
		dec: func(b []byte) (any, error) {
			var n uint64
			switch size {
			case 1:
				n = uint64(b[0])
			case 2:
				n = uint64(binary.LittleEndian.Uint16(b))
			case 4:
				n = uint64(binary.LittleEndian.Uint32(b))
			case 8:
				n = binary.LittleEndian.Uint64(b)
			}
			_ = signed
			return newVal(n), nil
		},
	}
}

var (
	BOOL  = intCodec("BOOL", 1, false, func(n uint64) any { return n != 0 })
	SINT  = intCodec("SINT", 1, true, func(n uint64) any { return int8(n) })
	USINT = intCodec("USINT", 1, false, func(n uint64) any { return cip.USINT(n) })
	INT   = intCodec("INT", 2, true, func(n uint64) any { return int16(n) })
	UINT  = intCodec("UINT", 2, false, func(n uint64) any { return cip.UINT(n) })
	DINT  = intCodec("DINT", 4, true, func(n uint64) any { return int32(n) })
	UDINT = intCodec("UDINT", 4, false, func(n uint64) any { return cip.UDINT(n) })
	WORD  = intCodec("WORD", 2, false, func(n uint64) any { return cip.WORD(n) })
	DWORD = intCodec("DWORD", 4, false, func(n uint64) any { return cip.DWORD(n) })

	REAL = fixedCodec{
		name: "REAL", size: 4,
		enc: func(v any) ([]byte, error) {
			f, ok := v.(float32)
			if !ok {
				if f64, ok2 := v.(float64); ok2 {
					f = float32(f64)
				} else {
					return nil, fmt.Errorf("cipcodec: REAL expects float32, got %T", v)
				}
			}
			b := make([]byte, 4)
			binary.LittleEndian.PutUint32(b, math.Float32bits(f))
			return b, nil
		},
		dec: func(b []byte) (any, error) {
			return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
		},
	}
)

// STRING is CIP's UINT-length-prefixed string, padded to an even total
// length.
var STRING Codec = stringCodec{}

type stringCodec struct{}

func (stringCodec) Name() string { return "STRING" }
func (stringCodec) Size() int    { return 0 }
func (stringCodec) Encode(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("cipcodec: STRING expects string, got %T", v)
	}
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint16(len(s)))
	buf.WriteString(s)
	if len(s)%2 != 0 {
		buf.WriteByte(0x00)
	}
	return buf.Bytes(), nil
}
func (stringCodec) Decode(b []byte) (any, int, error) {
	if len(b) < 2 {
		return nil, 0, fmt.Errorf("cipcodec: STRING truncated length")
	}
	l := int(binary.LittleEndian.Uint16(b))
	consumed := 2 + l
	if l%2 != 0 {
		consumed++
	}
	if len(b) < consumed {
		return nil, 0, fmt.Errorf("cipcodec: STRING truncated body")
	}
	return string(b[2 : 2+l]), consumed, nil
}

// SSTRING is CIP's USINT-length-prefixed short string (no padding).
var SSTRING Codec = sstringCodec{}

type sstringCodec struct{}

func (sstringCodec) Name() string { return "SSTRING" }
func (sstringCodec) Size() int    { return 0 }
func (sstringCodec) Encode(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("cipcodec: SSTRING expects string, got %T", v)
	}
	buf := new(bytes.Buffer)
	buf.WriteByte(byte(len(s)))
	buf.WriteString(s)
	return buf.Bytes(), nil
}
func (sstringCodec) Decode(b []byte) (any, int, error) {
	if len(b) < 1 {
		return nil, 0, fmt.Errorf("cipcodec: SSTRING truncated")
	}
	l := int(b[0])
	if len(b) < 1+l {
		return nil, 0, fmt.Errorf("cipcodec: SSTRING truncated body")
	}
	return string(b[1 : 1+l]), 1 + l, nil
}

// EPATH encodes/decodes a cip.Path without word-alignment padding.
var EPATH Codec = epathCodec{padded: false}

// EPATHPadded is the same wire shape with one pad byte after the
// size-in-words field, used where the CIP spec requires word alignment
// (e.g. Forward Close's connection path, TCP/IP Interface's physical
// link path attribute).
var EPATHPadded Codec = epathCodec{padded: true}

type epathCodec struct{ padded bool }

func (c epathCodec) Name() string {
	if c.padded {
		return "EPATH_padded"
	}
	return "EPATH"
}
func (epathCodec) Size() int { return 0 }
func (c epathCodec) Encode(v any) ([]byte, error) {
	p, ok := v.(cip.Path)
	if !ok {
		return nil, fmt.Errorf("cipcodec: %s expects cip.Path, got %T", c.Name(), v)
	}
	buf := new(bytes.Buffer)
	buf.WriteByte(p.LenWords())
	if c.padded {
		buf.WriteByte(0x00)
	}
	buf.Write(p.Bytes())
	return buf.Bytes(), nil
}
func (c epathCodec) Decode(b []byte) (any, int, error) {
	if len(b) < 1 {
		return nil, 0, fmt.Errorf("cipcodec: %s truncated", c.Name())
	}
	words := int(b[0])
	off := 1
	if c.padded {
		off++
	}
	pathLen := words * 2
	if len(b) < off+pathLen {
		return nil, 0, fmt.Errorf("cipcodec: %s truncated path", c.Name())
	}
	return cip.Path(b[off : off+pathLen]), off + pathLen, nil
}

// IfaceAddrs mirrors the TCP/IP Interface object's "Interface
// Configuration" attribute (attribute 5): a set of UDINT addresses
// followed by a host/domain name string.
type IfaceAddrs struct {
	IPAddress   net.IP
	NetworkMask net.IP
	Gateway     net.IP
	NameServer  net.IP
	NameServer2 net.IP
	DomainName  string
}

// IFACEADDRS codes the struct above: five little-endian UDINTs (each as
// a raw 4-byte IPv4 address) followed by a STRING domain name.
var IFACEADDRS Codec = ifaceAddrsCodec{}

type ifaceAddrsCodec struct{}

func (ifaceAddrsCodec) Name() string { return "IFACEADDRS" }
func (ifaceAddrsCodec) Size() int    { return 0 }

func ipToUDINT(ip net.IP) uint32 {
	v4 := ip.To4()
	if v4 == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(v4)
}

func udintToIP(n uint32) net.IP {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, n)
	return net.IP(b)
}

func (ifaceAddrsCodec) Encode(v any) ([]byte, error) {
	a, ok := v.(IfaceAddrs)
	if !ok {
		return nil, fmt.Errorf("cipcodec: IFACEADDRS expects IfaceAddrs, got %T", v)
	}
	buf := new(bytes.Buffer)
	for _, ip := range []net.IP{a.IPAddress, a.NetworkMask, a.Gateway, a.NameServer, a.NameServer2} {
		binary.Write(buf, binary.LittleEndian, ipToUDINT(ip))
	}
	domainBytes, _ := STRING.Encode(a.DomainName)
	buf.Write(domainBytes)
	return buf.Bytes(), nil
}

func (ifaceAddrsCodec) Decode(b []byte) (any, int, error) {
	if len(b) < 20 {
		return nil, 0, fmt.Errorf("cipcodec: IFACEADDRS truncated")
	}
	a := IfaceAddrs{
		IPAddress:   udintToIP(binary.LittleEndian.Uint32(b[0:4])),
		NetworkMask: udintToIP(binary.LittleEndian.Uint32(b[4:8])),
		Gateway:     udintToIP(binary.LittleEndian.Uint32(b[8:12])),
		NameServer:  udintToIP(binary.LittleEndian.Uint32(b[12:16])),
		NameServer2: udintToIP(binary.LittleEndian.Uint32(b[16:20])),
	}
	domain, n, err := STRING.Decode(b[20:])
	if err != nil {
		return nil, 0, err
	}
	a.DomainName = domain.(string)
	return a, 20 + n, nil
}
