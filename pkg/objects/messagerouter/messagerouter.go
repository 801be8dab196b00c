// Package messagerouter implements the Message Router object (class
// 0x02): the Multiple Service Packet engine described in §4.6, plus the
// generic Route entry point that Connection Manager's Unconnected Send
// and each Multiple Service Packet sub-request use to reach the
// class/instance their path addresses.
package messagerouter

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cip-core/cipcore/pkg/cip"
	"github.com/cip-core/cipcore/pkg/cipmsg"
	"github.com/cip-core/cipcore/pkg/object"
	"github.com/cip-core/cipcore/pkg/registry"
)

// ClassID is the Message Router object's well-known class code.
const ClassID = uint16(cip.ClassMessageRouter)

// MessageRouter dispatches Multiple Service Packet requests and routes
// every other request to the class/instance its path addresses.
type MessageRouter struct {
	*object.Base
	reg *registry.Registry
}

// New constructs the Message Router singleton (conventionally instance
// 1) in reg.
func New(reg *registry.Registry, instanceID *uint16) (*MessageRouter, error) {
	obj, err := object.CreateInstance(reg, ClassID, instanceID, func(id uint16) registry.Object {
		base := object.NewBase(ClassID, id, "Message Router")
		if id == 0 {
			base.InstallClassLevelAttributes(reg, ClassID)
		}
		return &MessageRouter{Base: base, reg: reg}
	})
	if err != nil {
		return nil, err
	}
	return obj.(*MessageRouter), nil
}

// Request intercepts the Multiple Service Packet service (0x0A);
// everything else falls back to the base GA_ALL/GA_SNG/SA_SNG handling
// of the Message Router object itself (its own attributes, not its
// routing target's).
func (m *MessageRouter) Request(req *cipmsg.Request) (*cipmsg.Reply, error) {
	if req.Service == cip.ServiceMultipleServicePacket {
		return m.multipleServicePacket(req)
	}
	return m.Base.Request(req)
}

// Route resolves segments to a registered object and forwards req to
// it. Connection Manager's Unconnected Send takes this path once it has
// peeled off its own framing, as does each MSP sub-request (UCMM's
// SendRRData resolves its target itself): the Message Router object
// is never itself the routing
// target of a nested MSP sub-request, only the dispatcher for it.
func (m *MessageRouter) Route(segments []cip.Segment, req *cipmsg.Request) (*cipmsg.Reply, error) {
	class, instance, _, err := m.reg.Resolve(segments, false)
	if err != nil {
		return cipmsg.NewReply(req, cip.StatusObjectDoesNotExist), nil
	}
	target, ok := m.reg.Lookup(class, instance)
	if !ok {
		return cipmsg.NewReply(req, cip.StatusObjectDoesNotExist), nil
	}
	return target.Request(req)
}

// multipleServicePacket implements §4.6: parse the offset table, route
// each sub-request independently by re-resolving its own path, then
// reassemble replies with a parallel offset table. No lock is held
// across the nested Route calls -- each one parses and dispatches as an
// independent, stateless operation so a sub-request addressing another
// class never contends with this call's own bookkeeping.
func (m *MessageRouter) multipleServicePacket(req *cipmsg.Request) (*cipmsg.Reply, error) {
	reply := cipmsg.NewReply(req, cip.StatusServiceNotSupported)

	if len(req.Data) < 2 {
		reply.Status = cip.StatusPathSegmentError
		return reply, nil
	}
	n := int(binary.LittleEndian.Uint16(req.Data[0:2]))
	if len(req.Data) < 2+2*n {
		reply.Status = cip.StatusPathSegmentError
		return reply, nil
	}
	offsets := make([]int, n)
	for i := 0; i < n; i++ {
		offsets[i] = int(binary.LittleEndian.Uint16(req.Data[2+2*i : 4+2*i]))
	}

	replies := make([]*cipmsg.Reply, n)
	for i := 0; i < n; i++ {
		start := offsets[i]
		end := len(req.Data)
		if i+1 < n {
			end = offsets[i+1]
		}
		if start > len(req.Data) || end > len(req.Data) || start > end {
			reply.Status = cip.StatusPathSegmentError
			return reply, nil
		}
		sub, err := cipmsg.ParseRequest(req.Data[start:end])
		if err != nil {
			reply.Status = cip.StatusPathSegmentError
			return reply, nil
		}
		subReply, err := m.Route(sub.Segments, sub)
		if err != nil {
			return nil, fmt.Errorf("messagerouter: sub-request %d: %w", i, err)
		}
		replies[i] = subReply
	}

	out := new(bytes.Buffer)
	binary.Write(out, binary.LittleEndian, uint16(n))
	replyOffset := 2 + 2*n
	encoded := make([][]byte, n)
	for i, r := range replies {
		encoded[i] = r.Encode()
		binary.Write(out, binary.LittleEndian, uint16(replyOffset))
		replyOffset += len(encoded[i])
	}
	for _, b := range encoded {
		out.Write(b)
	}

	reply.Status = 0
	reply.Data = out.Bytes()
	return reply, nil
}
