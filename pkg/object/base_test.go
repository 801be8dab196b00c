package object

import (
	"testing"

	"github.com/cip-core/cipcore/pkg/cip"
	"github.com/cip-core/cipcore/pkg/cipcodec"
	"github.com/cip-core/cipcore/pkg/cipmsg"
	"github.com/cip-core/cipcore/pkg/registry"
)

func pathWithAttribute(class, instance, attr uint32) []cip.Segment {
	return []cip.Segment{
		{Class: &class},
		{Instance: &instance},
		{Attribute: &attr},
	}
}

func TestBaseGetAttributeSingle(t *testing.T) {
	b := NewBase(1, 1, "Widget")
	b.SetAttribute(1, NewAttribute("Name", cipcodec.UINT, NewScalar(cip.UINT(0xBEEF))))

	req := &cipmsg.Request{Service: cip.ServiceGetAttributeSingle, Segments: pathWithAttribute(1, 1, 1)}
	reply, err := b.Request(req)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if reply.Status != 0 {
		t.Fatalf("Status = %v, want 0", reply.Status)
	}
	if len(reply.Data) != 2 || reply.Data[0] != 0xEF || reply.Data[1] != 0xBE {
		t.Errorf("Data = %v", reply.Data)
	}
}

func TestBaseGetAttributeSingleMasked(t *testing.T) {
	b := NewBase(1, 1, "Widget")
	attr := NewAttribute("Hidden", cipcodec.UINT, NewScalar(cip.UINT(1)))
	attr.Mask = MaskGASNG
	b.SetAttribute(1, attr)

	req := &cipmsg.Request{Service: cip.ServiceGetAttributeSingle, Segments: pathWithAttribute(1, 1, 1)}
	reply, err := b.Request(req)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if reply.Status != cip.StatusAttributeNotSupported {
		t.Errorf("Status = %v, want AttributeNotSupported for a GA_SNG-masked attribute", reply.Status)
	}
}

func TestBaseGetAttributeAllSkipsMasked(t *testing.T) {
	b := NewBase(1, 1, "Widget")
	b.SetAttribute(1, NewAttribute("Visible", cipcodec.USINT, NewScalar(cip.USINT(1))))
	hidden := NewAttribute("Hidden", cipcodec.USINT, NewScalar(cip.USINT(2)))
	hidden.Mask = MaskGAAll
	b.SetAttribute(2, hidden)

	req := &cipmsg.Request{Service: cip.ServiceGetAttributeAll, Segments: pathWithAttribute(1, 1, 0)}
	reply, err := b.Request(req)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if reply.Status != 0 {
		t.Fatalf("Status = %v, want 0", reply.Status)
	}
	if len(reply.Data) != 1 || reply.Data[0] != 1 {
		t.Errorf("Data = %v, want just the visible attribute's byte", reply.Data)
	}
}

func TestBaseGetAttributeAllEmptyIsFailure(t *testing.T) {
	b := NewBase(1, 1, "Empty")
	req := &cipmsg.Request{Service: cip.ServiceGetAttributeAll, Segments: pathWithAttribute(1, 1, 0)}
	reply, err := b.Request(req)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if reply.Status == 0 {
		t.Error("expected a nonzero status when zero attributes qualify for GA_ALL")
	}
}

func TestBaseSetAttributeSingle(t *testing.T) {
	b := NewBase(1, 1, "Widget")
	b.SetAttribute(1, NewAttribute("Name", cipcodec.UINT, NewScalar(cip.UINT(0))))

	req := &cipmsg.Request{
		Service:  cip.ServiceSetAttributeSingle,
		Segments: pathWithAttribute(1, 1, 1),
		Data:     []byte{0xEF, 0xBE},
	}
	reply, err := b.Request(req)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if reply.Status != 0 {
		t.Fatalf("Status = %v, want 0", reply.Status)
	}
	attr, _ := b.Attribute(1)
	got, _ := attr.Get(0)
	if got.(cip.UINT) != 0xBEEF {
		t.Errorf("attribute value = %v, want 0xBEEF", got)
	}
}

func TestBaseUnsupportedService(t *testing.T) {
	b := NewBase(1, 1, "Widget")
	req := &cipmsg.Request{Service: cip.USINT(0x99), Segments: pathWithAttribute(1, 1, 0)}
	reply, err := b.Request(req)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if reply.Status != cip.StatusServiceNotSupported {
		t.Errorf("Status = %v, want ServiceNotSupported", reply.Status)
	}
}

func TestCreateInstanceAutoAllocatesMonotonically(t *testing.T) {
	reg := registry.New()
	const classID = 0x64

	ctor := func(id uint16) registry.Object { return NewBase(classID, id, "Thing") }

	first, err := CreateInstance(reg, classID, nil, ctor)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	second, err := CreateInstance(reg, classID, nil, ctor)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	if second.InstanceID() <= first.InstanceID() {
		t.Errorf("instance ids not monotonically increasing: %d then %d", first.InstanceID(), second.InstanceID())
	}
	if _, ok := reg.Lookup(classID, 0); !ok {
		t.Error("expected the meta instance to have been lazily created")
	}
}

func TestCreateInstanceExplicitIDSkipsAutoAllocation(t *testing.T) {
	reg := registry.New()
	const classID = 0x65
	ctor := func(id uint16) registry.Object { return NewBase(classID, id, "Thing") }

	explicit := uint16(5)
	obj, err := CreateInstance(reg, classID, &explicit, ctor)
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	if obj.InstanceID() != 5 {
		t.Errorf("InstanceID = %d, want 5", obj.InstanceID())
	}
}
