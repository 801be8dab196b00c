package messagerouter

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/cip-core/cipcore/pkg/cip"
	"github.com/cip-core/cipcore/pkg/cipcodec"
	"github.com/cip-core/cipcore/pkg/cipmsg"
	"github.com/cip-core/cipcore/pkg/object"
	"github.com/cip-core/cipcore/pkg/registry"
)

func newWidget(reg *registry.Registry, class, instance uint16, value cip.UINT) *object.Base {
	b := object.NewBase(class, instance, "Widget")
	b.SetAttribute(1, object.NewAttribute("Value", cipcodec.UINT, object.NewScalar(value)))
	reg.Register(b)
	return b
}

func subRequest(class, instance uint16, attr uint32, service cip.USINT) []byte {
	p := cip.NewPath()
	p.AddClass(cip.UINT(class))
	p.AddInstance(cip.UINT(instance))
	p.AddAttribute(cip.UINT(attr))
	segs, err := cip.Decode(p)
	if err != nil {
		panic(err)
	}
	req := &cipmsg.Request{Service: service, Segments: segs}
	return req.Encode()
}

func TestRouteDispatchesToRegisteredObject(t *testing.T) {
	reg := registry.New()
	newWidget(reg, 0x64, 1, 0xBEEF)
	mr, err := New(reg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p := cip.NewPath()
	p.AddClass(cip.UINT(0x64))
	p.AddInstance(1)
	p.AddAttribute(cip.UINT(1))
	segs, _ := cip.Decode(p)
	req := &cipmsg.Request{Service: cip.ServiceGetAttributeSingle, Segments: segs}

	reply, err := mr.Route(segs, req)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if reply.Status != 0 {
		t.Fatalf("Status = %v, want 0", reply.Status)
	}
	if len(reply.Data) != 2 || reply.Data[0] != 0xEF || reply.Data[1] != 0xBE {
		t.Errorf("Data = %v", reply.Data)
	}
}

func TestRouteUnknownTarget(t *testing.T) {
	reg := registry.New()
	mr, err := New(reg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	p := cip.NewPath()
	p.AddClass(cip.UINT(0x99))
	p.AddInstance(1)
	segs, _ := cip.Decode(p)
	req := &cipmsg.Request{Service: cip.ServiceGetAttributeSingle, Segments: segs}

	reply, err := mr.Route(segs, req)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if reply.Status != cip.StatusObjectDoesNotExist {
		t.Errorf("Status = %v, want ObjectDoesNotExist", reply.Status)
	}
}

func TestMultipleServicePacketDispatchesEachSubRequest(t *testing.T) {
	reg := registry.New()
	newWidget(reg, 0x64, 1, 0x1111)
	newWidget(reg, 0x64, 2, 0x2222)
	mr, err := New(reg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sub1 := subRequest(0x64, 1, 1, cip.ServiceGetAttributeSingle)
	sub2 := subRequest(0x64, 2, 1, cip.ServiceGetAttributeSingle)

	data := new(bytes.Buffer)
	binary.Write(data, binary.LittleEndian, uint16(2))
	off1 := 2 + 2*2
	off2 := off1 + len(sub1)
	binary.Write(data, binary.LittleEndian, uint16(off1))
	binary.Write(data, binary.LittleEndian, uint16(off2))
	data.Write(sub1)
	data.Write(sub2)

	req := &cipmsg.Request{Service: cip.ServiceMultipleServicePacket, Data: data.Bytes()}
	reply, err := mr.Request(req)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if reply.Status != 0 {
		t.Fatalf("Status = %v, want 0", reply.Status)
	}

	n := binary.LittleEndian.Uint16(reply.Data[0:2])
	if n != 2 {
		t.Fatalf("reply count = %d, want 2", n)
	}
	replyOff1 := binary.LittleEndian.Uint16(reply.Data[2:4])
	replyOff2 := binary.LittleEndian.Uint16(reply.Data[4:6])

	r1, err := cipmsg.ParseReply(reply.Data[replyOff1:replyOff2])
	if err != nil {
		t.Fatalf("ParseReply 1: %v", err)
	}
	if len(r1.Data) != 2 || r1.Data[0] != 0x11 || r1.Data[1] != 0x11 {
		t.Errorf("sub-reply 1 Data = %v", r1.Data)
	}

	r2, err := cipmsg.ParseReply(reply.Data[replyOff2:])
	if err != nil {
		t.Fatalf("ParseReply 2: %v", err)
	}
	if len(r2.Data) != 2 || r2.Data[0] != 0x22 || r2.Data[1] != 0x22 {
		t.Errorf("sub-reply 2 Data = %v", r2.Data)
	}
}

func TestMultipleServicePacketMalformedOffsetTable(t *testing.T) {
	reg := registry.New()
	mr, err := New(reg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req := &cipmsg.Request{Service: cip.ServiceMultipleServicePacket, Data: []byte{0x05, 0x00}}
	reply, err := mr.Request(req)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if reply.Status != cip.StatusPathSegmentError {
		t.Errorf("Status = %v, want PathSegmentError", reply.Status)
	}
}
