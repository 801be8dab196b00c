package connmgr

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"

	"github.com/cip-core/cipcore/pkg/cip"
	"github.com/cip-core/cipcore/pkg/cipmsg"
	"github.com/cip-core/cipcore/pkg/object"
	"github.com/cip-core/cipcore/pkg/registry"
)

// ClassID is the Connection Manager object's well-known class code.
const ClassID = uint16(cip.ClassConnectionMgr)

// Router is the minimal surface Connection Manager needs from the
// Message Router object: resolve a path's segments to a registered
// object and forward a request to it. Unconnected Send's embedded
// message goes through this; Forward Open resolves its connection path
// against the registry directly.
type Router interface {
	Route(segments []cip.Segment, req *cipmsg.Request) (*cipmsg.Reply, error)
}

type connection struct {
	otConnectionID         uint32
	toConnectionID         uint32
	connectionSerialNumber cip.UINT
	vendorID               cip.UINT
	originatorSerialNumber cip.UDINT
}

// ConnectionManager implements the Connection Manager object (class
// 0x06): Forward Open/Close and Unconnected Send, per §4.7. Every
// connection this runtime hands out is stateless beyond the triad
// bookkeeping Forward Close needs to find it again -- there is no
// cyclic I/O scheduler behind it.
type ConnectionManager struct {
	*object.Base
	reg    *registry.Registry
	router Router

	mu          sync.Mutex
	connections map[uint32]*connection
}

// New constructs the Connection Manager singleton (conventionally
// instance 1) in reg, routing Forward Open's connection path and
// Unconnected Send's embedded message through router.
func New(reg *registry.Registry, instanceID *uint16, router Router) (*ConnectionManager, error) {
	obj, err := object.CreateInstance(reg, ClassID, instanceID, func(id uint16) registry.Object {
		base := object.NewBase(ClassID, id, "Connection Manager")
		if id == 0 {
			base.InstallClassLevelAttributes(reg, ClassID)
		}
		return &ConnectionManager{
			Base:        base,
			reg:         reg,
			router:      router,
			connections: make(map[uint32]*connection),
		}
	})
	if err != nil {
		return nil, err
	}
	return obj.(*ConnectionManager), nil
}

// Request dispatches Connection Manager's three services before
// falling back to the base GA_ALL/GA_SNG/SA_SNG handling.
func (cm *ConnectionManager) Request(req *cipmsg.Request) (*cipmsg.Reply, error) {
	switch req.Service {
	case ServiceForwardOpen:
		return cm.forwardOpen(req)
	case ServiceForwardClose:
		return cm.forwardClose(req)
	case ServiceUnconnectedSend:
		return cm.unconnectedSend(req)
	default:
		return cm.Base.Request(req)
	}
}

// allocConnectionID hands out a random, nonzero 32-bit T->O connection
// id. A sequential counter (the distilled source's approach) makes
// connection ids trivially guessable; nothing here depends on ordering.
func allocConnectionID() uint32 {
	for {
		if id := rand.Uint32(); id != 0 {
			return id
		}
	}
}

func (cm *ConnectionManager) forwardOpen(req *cipmsg.Request) (*cipmsg.Reply, error) {
	reply := cipmsg.NewReply(req, StatusConnectionFailure)
	r := bytes.NewReader(req.Data)

	var fo ForwardOpenRequest
	fields := []any{
		&fo.PriorityTimeTick, &fo.TimeoutTicks, &fo.OTConnectionID, &fo.TOConnectionID,
		&fo.ConnectionSerialNumber, &fo.VendorID, &fo.OriginatorSerialNumber,
		&fo.ConnectionTimeoutMultiplier, &fo.Reserved, &fo.OTRPI, &fo.OTNetworkConnectionParams,
		&fo.TORPI, &fo.TONetworkConnectionParams, &fo.TransportTypeTrigger,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			reply.ExtStatus = []cip.UINT{ExtStatusInvalidParam}
			return reply, nil
		}
	}
	var pathWords cip.USINT
	if err := binary.Read(r, binary.LittleEndian, &pathWords); err != nil {
		reply.ExtStatus = []cip.UINT{ExtStatusInvalidParam}
		return reply, nil
	}
	// Unpadded EPATH: no reserved byte between the word count and the path.
	pathBytes := make([]byte, int(pathWords)*2)
	if _, err := r.Read(pathBytes); err != nil {
		reply.ExtStatus = []cip.UINT{ExtStatusInvalidSegmentType}
		return reply, nil
	}
	fo.ConnectionPath = cip.Path(pathBytes)

	segments, err := cip.Decode(fo.ConnectionPath)
	if err != nil {
		reply.ExtStatus = []cip.UINT{ExtStatusInvalidSegmentType}
		return reply, nil
	}
	class, instance, _, err := cm.reg.Resolve(segments, false)
	if err != nil {
		reply.ExtStatus = []cip.UINT{ExtStatusInvalidSegmentType}
		return reply, nil
	}
	if _, ok := cm.reg.Lookup(class, instance); !ok {
		reply.ExtStatus = []cip.UINT{ExtStatusInvalidSegmentType}
		return reply, nil
	}

	cm.mu.Lock()
	toID := allocConnectionID()
	cm.connections[toID] = &connection{
		otConnectionID:         uint32(fo.OTConnectionID),
		toConnectionID:         toID,
		connectionSerialNumber: fo.ConnectionSerialNumber,
		vendorID:               fo.VendorID,
		originatorSerialNumber: fo.OriginatorSerialNumber,
	}
	cm.mu.Unlock()

	resp := ForwardOpenResponse{
		OTConnectionID:         fo.OTConnectionID,
		TOConnectionID:         cip.UDINT(toID),
		ConnectionSerialNumber: fo.ConnectionSerialNumber,
		VendorID:               fo.VendorID,
		OriginatorSerialNumber: fo.OriginatorSerialNumber,
		OTAPI:                  fo.OTRPI,
		TOAPI:                  fo.TORPI,
	}
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, resp.OTConnectionID)
	binary.Write(buf, binary.LittleEndian, resp.TOConnectionID)
	binary.Write(buf, binary.LittleEndian, resp.ConnectionSerialNumber)
	binary.Write(buf, binary.LittleEndian, resp.VendorID)
	binary.Write(buf, binary.LittleEndian, resp.OriginatorSerialNumber)
	binary.Write(buf, binary.LittleEndian, resp.OTAPI)
	binary.Write(buf, binary.LittleEndian, resp.TOAPI)
	buf.WriteByte(0) // application reply size
	buf.WriteByte(0) // reserved

	reply.Status = 0
	reply.Data = buf.Bytes()
	return reply, nil
}

func (cm *ConnectionManager) forwardClose(req *cipmsg.Request) (*cipmsg.Reply, error) {
	reply := cipmsg.NewReply(req, StatusConnectionFailure)
	r := bytes.NewReader(req.Data)

	var fc ForwardCloseRequest
	fields := []any{
		&fc.PriorityTimeTick, &fc.TimeoutTicks, &fc.ConnectionSerialNumber,
		&fc.VendorID, &fc.OriginatorSerialNumber,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			reply.ExtStatus = []cip.UINT{ExtStatusInvalidParam}
			return reply, nil
		}
	}
	var pathWords, reserved cip.USINT
	if err := binary.Read(r, binary.LittleEndian, &pathWords); err != nil {
		reply.ExtStatus = []cip.UINT{ExtStatusInvalidParam}
		return reply, nil
	}
	// EPATH_padded: a reserved byte follows the word count.
	if err := binary.Read(r, binary.LittleEndian, &reserved); err != nil {
		reply.ExtStatus = []cip.UINT{ExtStatusInvalidParam}
		return reply, nil
	}
	pathBytes := make([]byte, int(pathWords)*2)
	if _, err := r.Read(pathBytes); err != nil {
		reply.ExtStatus = []cip.UINT{ExtStatusInvalidSegmentType}
		return reply, nil
	}
	fc.ConnectionPath = cip.Path(pathBytes)

	// Per §4.7, Connection Manager tracks no real connection state and
	// Forward Close always succeeds; the triad lookup only drops the
	// bookkeeping entry Forward Open recorded, if any -- a miss is not a
	// failure.
	cm.mu.Lock()
	for id, c := range cm.connections {
		if c.connectionSerialNumber == fc.ConnectionSerialNumber &&
			c.vendorID == fc.VendorID &&
			c.originatorSerialNumber == fc.OriginatorSerialNumber {
			delete(cm.connections, id)
			break
		}
	}
	cm.mu.Unlock()

	resp := ForwardCloseResponse{
		ConnectionSerialNumber: fc.ConnectionSerialNumber,
		VendorID:               fc.VendorID,
		OriginatorSerialNumber: fc.OriginatorSerialNumber,
	}
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, resp.ConnectionSerialNumber)
	binary.Write(buf, binary.LittleEndian, resp.VendorID)
	binary.Write(buf, binary.LittleEndian, resp.OriginatorSerialNumber)
	buf.WriteByte(0)
	buf.WriteByte(0)

	reply.Status = 0
	reply.Data = buf.Bytes()
	return reply, nil
}

// unconnectedSend implements the Unconnected Send dispatch described in
// §4.7: it reads its own framing (priority/timeout, embedded message
// size, the route path's size) to slice out the embedded message, parses
// that message once with cipmsg.ParseRequest, and routes it by its own
// path through the Router.
func (cm *ConnectionManager) unconnectedSend(req *cipmsg.Request) (*cipmsg.Reply, error) {
	reply := cipmsg.NewReply(req, cip.StatusPathSegmentError)
	data := req.Data
	if len(data) < 4 {
		return reply, nil
	}
	msgSize := int(binary.LittleEndian.Uint16(data[2:4]))
	if len(data) < 4+msgSize {
		return reply, nil
	}
	embedded := data[4 : 4+msgSize]
	off := 4 + msgSize
	if msgSize%2 != 0 {
		off++ // pad byte before the route path
	}
	// The route path (if present) addresses further link hops; a
	// single-device target has nowhere further to route to, so it is
	// validated structurally and otherwise ignored.
	if off < len(data) {
		pathWords := int(data[off])
		off++
		pathBytes := data[off:]
		if len(pathBytes) < pathWords*2 {
			reply.ExtStatus = []cip.UINT{ExtStatusInvalidSegmentType}
			return reply, nil
		}
	}

	sub, err := cipmsg.ParseRequest(embedded)
	if err != nil {
		return reply, nil
	}
	subReply, err := cm.router.Route(sub.Segments, sub)
	if err != nil {
		return nil, fmt.Errorf("connmgr: unconnected send: %w", err)
	}
	return subReply, nil
}
