// Package cipmsg is the tagged-union intermediate representation that
// request parsing, dispatch, and reply production all share. It replaces
// the string-keyed dynamic bag the distilled source used as its universal
// IR with a small struct tree: a Request/Reply pair plus an Extensions
// table for anything vendor-specific that doesn't warrant its own field.
package cipmsg

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cip-core/cipcore/pkg/cip"
)

// Request is a decoded CIP service request: service code, request path
// (already broken into segments), and whatever request data follows the
// path. Handlers that need vendor-specific framing stash it in
// Extensions rather than growing this struct.
type Request struct {
	Service    cip.USINT
	Segments   []cip.Segment
	Data       []byte
	Extensions map[string]any
}

// Reply is the in-place conversion of a Request: same shape, but Service
// carries the reply bit (0x80) and Status/ExtStatus replace the request
// path.
type Reply struct {
	Service    cip.USINT
	Status     cip.USINT
	ExtStatus  []cip.UINT
	Data       []byte
	Extensions map[string]any
}

// Attribute returns the last Attribute segment on the path, which is
// where Get/Set Attribute Single locate their target, or ok=false if
// none is present.
func (r *Request) Attribute() (uint32, bool) {
	for i := len(r.Segments) - 1; i >= 0; i-- {
		if r.Segments[i].Attribute != nil {
			return *r.Segments[i].Attribute, true
		}
	}
	return 0, false
}

// ClassInstance returns the (class, instance) addressed by the path, if
// both are present.
func (r *Request) ClassInstance() (class, instance uint16, ok bool) {
	var c, i *uint32
	for _, seg := range r.Segments {
		if seg.Class != nil {
			c = seg.Class
		}
		if seg.Instance != nil {
			i = seg.Instance
		}
	}
	if c == nil || i == nil {
		return 0, 0, false
	}
	return uint16(*c), uint16(*i), true
}

// Path re-encodes the segment list into a wire EPATH. Class, instance,
// attribute, element and symbolic segments are re-encoded; port segments
// are dropped.
func (r *Request) Path() cip.Path {
	p := cip.NewPath()
	for _, seg := range r.Segments {
		switch {
		case seg.Class != nil:
			p.AddClass(cip.UINT(*seg.Class))
		case seg.Instance != nil:
			p.AddInstance32(*seg.Instance)
		case seg.Attribute != nil:
			p.AddAttribute(cip.UINT(*seg.Attribute))
		case seg.Element != nil:
			p.AddElement(*seg.Element)
		case seg.Symbolic != nil:
			p.AddSymbolicSegment(*seg.Symbolic)
		}
	}
	return p
}

// ParseRequest decodes a Message Router request PDU: USINT service, USINT
// path-size-in-words, the path itself, then whatever request data
// remains.
func ParseRequest(raw []byte) (*Request, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("cipmsg: request too short")
	}
	service := cip.USINT(raw[0])
	pathWords := int(raw[1])
	pathLen := pathWords * 2
	if len(raw) < 2+pathLen {
		return nil, fmt.Errorf("cipmsg: truncated request path")
	}
	segs, err := cip.Decode(cip.Path(raw[2 : 2+pathLen]))
	if err != nil {
		return nil, fmt.Errorf("cipmsg: decoding path: %w", err)
	}
	return &Request{
		Service:  service,
		Segments: segs,
		Data:     append([]byte(nil), raw[2+pathLen:]...),
	}, nil
}

// Encode re-produces the request PDU, used by Message Router when it
// re-slices a Multiple Service Packet's sub-requests and by round-trip
// tests.
func (r *Request) Encode() []byte {
	path := r.Path()
	buf := new(bytes.Buffer)
	buf.WriteByte(byte(r.Service))
	buf.WriteByte(path.LenWords())
	buf.Write(path.Bytes())
	buf.Write(r.Data)
	return buf.Bytes()
}

// NewReply builds the reply shell for a request, with the reply bit set
// and a pessimistic status. Callers reset Status to 0 on success, per the
// "set pessimistic status before the risky step" propagation policy.
func NewReply(req *Request, pessimisticStatus cip.USINT) *Reply {
	return &Reply{
		Service: req.Service.Reply(),
		Status:  pessimisticStatus,
	}
}

// Encode produces the reply PDU: USINT service; USINT reserved(0);
// USINT status; USINT ext-status-size; ext-status words; data (present
// only on success, mirroring the source's "typed_data?" on the success
// arm only).
func (r *Reply) Encode() []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(byte(r.Service))
	buf.WriteByte(0x00)
	buf.WriteByte(byte(r.Status))
	buf.WriteByte(byte(len(r.ExtStatus)))
	for _, w := range r.ExtStatus {
		binary.Write(buf, binary.LittleEndian, uint16(w))
	}
	if r.Status == 0 {
		buf.Write(r.Data)
	}
	return buf.Bytes()
}

// ParseReply decodes a Message Router reply PDU, the inverse of Encode.
func ParseReply(raw []byte) (*Reply, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("cipmsg: reply too short")
	}
	reply := &Reply{
		Service: cip.USINT(raw[0]),
		Status:  cip.USINT(raw[2]),
	}
	extCount := int(raw[3])
	off := 4
	for i := 0; i < extCount; i++ {
		if off+2 > len(raw) {
			return nil, fmt.Errorf("cipmsg: truncated extended status")
		}
		reply.ExtStatus = append(reply.ExtStatus, cip.UINT(binary.LittleEndian.Uint16(raw[off:off+2])))
		off += 2
	}
	if reply.Status == 0 {
		reply.Data = append([]byte(nil), raw[off:]...)
	}
	return reply, nil
}
