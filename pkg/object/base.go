// Package object implements the Attribute type and the base CIP Object
// dispatch shared by every standard object: Get Attributes All, Get
// Attribute Single, Set Attribute Single, and the generic Service Code
// catch-all.
package object

import (
	"sort"
	"sync"

	"github.com/cip-core/cipcore/pkg/cip"
	"github.com/cip-core/cipcore/pkg/cipcodec"
	"github.com/cip-core/cipcore/pkg/cipmsg"
	"github.com/cip-core/cipcore/pkg/registry"
)

// Base is the embeddable CIP Object dispatcher. Standard and vendor
// objects embed Base and add their own services, falling back to
// Base.Request (or calling it explicitly) for GA_ALL/GA_SNG/SA_SNG.
type Base struct {
	mu         sync.RWMutex
	classID    uint16
	instanceID uint16
	name       string
	attributes map[uint16]*Attribute
}

// NewBase constructs an empty Base for (classID, instanceID).
func NewBase(classID, instanceID uint16, name string) *Base {
	return &Base{
		classID:    classID,
		instanceID: instanceID,
		name:       name,
		attributes: make(map[uint16]*Attribute),
	}
}

func (b *Base) ClassID() uint16    { return b.classID }
func (b *Base) InstanceID() uint16 { return b.instanceID }
func (b *Base) Name() string       { return b.name }

// SetAttribute installs or replaces attribute id.
func (b *Base) SetAttribute(id uint16, attr *Attribute) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attributes[id] = attr
}

// Attribute returns attribute id, if present.
func (b *Base) Attribute(id uint16) (*Attribute, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	a, ok := b.attributes[id]
	return a, ok
}

func (b *Base) sortedAttributeIDs() []uint16 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]uint16, 0, len(b.attributes))
	for id := range b.attributes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Request implements the base dispatch described in §4.4: Get Attributes
// All, Get Attribute Single, Set Attribute Single, else Service not
// supported. Every branch sets Status to a pessimistic value before
// attempting the risky step and resets it to 0 only once the step
// actually succeeds, so an early return always carries a meaningful
// status.
func (b *Base) Request(req *cipmsg.Request) (*cipmsg.Reply, error) {
	switch req.Service {
	case cip.ServiceGetAttributeAll:
		return b.getAttributeAll(req)
	case cip.ServiceGetAttributeSingle:
		return b.getAttributeSingle(req)
	case cip.ServiceSetAttributeSingle:
		return b.setAttributeSingle(req)
	default:
		return cipmsg.NewReply(req, cip.StatusServiceNotSupported), nil
	}
}

func (b *Base) getAttributeAll(req *cipmsg.Request) (*cipmsg.Reply, error) {
	reply := cipmsg.NewReply(req, cip.StatusServiceNotSupported)
	var out []byte
	for _, id := range b.sortedAttributeIDs() {
		attr, _ := b.Attribute(id)
		if attr.Mask&MaskGAAll != 0 {
			continue
		}
		if attr.Error != 0 {
			reply.Status = attr.Error
			return reply, nil
		}
		data, err := attr.Produce(0, attr.Len())
		if err != nil {
			return reply, nil
		}
		out = append(out, data...)
	}
	// Zero qualifying attributes is a protocol-level failure here, not a
	// programmer error: resolved per the design notes' open question.
	if len(out) == 0 {
		return reply, nil
	}
	reply.Status = 0
	reply.Data = out
	return reply, nil
}

func (b *Base) getAttributeSingle(req *cipmsg.Request) (*cipmsg.Reply, error) {
	reply := cipmsg.NewReply(req, cip.StatusAttributeNotSupported)
	attrID, ok := req.Attribute()
	if !ok {
		reply.Status = cip.StatusPathSegmentError
		return reply, nil
	}
	attr, ok := b.Attribute(uint16(attrID))
	if !ok || attr.Mask&MaskGASNG != 0 {
		return reply, nil
	}
	if attr.Error != 0 {
		reply.Status = attr.Error
		return reply, nil
	}
	data, err := attr.Produce(0, attr.Len())
	if err != nil {
		return reply, nil
	}
	reply.Status = 0
	reply.Data = data
	return reply, nil
}

func (b *Base) setAttributeSingle(req *cipmsg.Request) (*cipmsg.Reply, error) {
	reply := cipmsg.NewReply(req, cip.StatusAttributeNotSupported)
	attrID, ok := req.Attribute()
	if !ok {
		reply.Status = cip.StatusPathSegmentError
		return reply, nil
	}
	attr, ok := b.Attribute(uint16(attrID))
	if !ok || attr.Mask&MaskGASNG != 0 {
		return reply, nil
	}
	if attr.Error != 0 {
		reply.Status = attr.Error
		return reply, nil
	}
	if err := attr.ConsumeVector(req.Data); err != nil {
		reply.Status = cip.StatusInvalidAttributeValue
		return reply, nil
	}
	reply.Status = 0
	return reply, nil
}

// NewMaxInstanceAttribute builds the read-only MaxInstance attribute
// (§4.3): its value is always the live max_instance counter of classID
// in reg, recomputed on every read.
func NewMaxInstanceAttribute(reg *registry.Registry, classID uint16) *Attribute {
	return NewComputedAttribute("MaxInstance", cipcodec.UINT, func() (any, error) {
		return cip.UINT(reg.MaxInstance(classID)), nil
	})
}

// NewNumInstancesAttribute builds the read-only NumInstances attribute:
// the live count of registered instances 1..=MaxInstance.
func NewNumInstancesAttribute(reg *registry.Registry, classID uint16) *Attribute {
	return NewComputedAttribute("NumInstances", cipcodec.UINT, func() (any, error) {
		return cip.UINT(reg.NumInstances(classID)), nil
	})
}
