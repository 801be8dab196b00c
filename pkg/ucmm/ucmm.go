// Package ucmm implements the Unconnected Message Manager: the front
// door every encapsulated request passes through before it reaches
// Message Router. It owns session handle bookkeeping, the discovery
// commands (List Identity / List Services / List Interfaces), and
// SendRRData's envelope validation and unwrapping, per §4.8.
package ucmm

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"sync"

	"github.com/cip-core/cipcore/internal"
	"github.com/cip-core/cipcore/pkg/cip"
	"github.com/cip-core/cipcore/pkg/cipcodec"
	"github.com/cip-core/cipcore/pkg/cipmsg"
	"github.com/cip-core/cipcore/pkg/eip"
	"github.com/cip-core/cipcore/pkg/object"
	"github.com/cip-core/cipcore/pkg/registry"
	"github.com/cip-core/cipcore/pkg/utils"
)

// attributeReader is the minimal surface UCMM needs to pull a live
// attribute value out of a registered object for the discovery
// commands' round-trip-through-the-codec normalization -- any standard
// object built on *object.Base already satisfies it.
type attributeReader interface {
	Attribute(id uint16) (*object.Attribute, bool)
}

// Router is the routing surface New accepts and UCMM stores, the same
// contract Connection Manager uses for its own embedded messages.
// SendRRData does not call it: it resolves the request's path against
// the registry and dispatches to the target object directly.
type Router interface {
	Route(segments []cip.Segment, req *cipmsg.Request) (*cipmsg.Reply, error)
}

// encapStatusServiceNotSupported is the value Handle reports in
// Outcome.Status for any internally-caught failure that §4.8 says
// should set "enip.status = 0x08" rather than abort the channel --
// numerically identical to cip.StatusServiceNotSupported, but kept
// distinct since this one travels in the encapsulation header's status
// field, not a CIP reply's status byte.
const encapStatusServiceNotSupported uint32 = 0x08

// RoutePathPolicy controls SendRRData's route_path validation, per
// §4.8: nil (the zero value) means unchecked, an explicit empty path
// means the request must carry no route_path, and a non-empty path
// means the request's route_path must match it exactly.
type RoutePathPolicy struct {
	Configured cip.Path
	Enforce    bool
}

// Identity carries the static fields UCMM reports verbatim in List
// Identity responses -- it never asks the Identity object for these so
// that discovery still works before any object is registered.
type Identity struct {
	VendorID     uint16
	DeviceType   uint16
	ProductCode  uint16
	RevisionMaj  uint8
	RevisionMin  uint8
	SerialNumber uint32
	ProductName  string
	State        uint8
}

// UCMM is the session/discovery front door. One UCMM serves every TCP
// connection an external server loop accepts; Register/Unregister
// Session track per-peer session handles, and SendRRData dispatches to
// the object its request path resolves to in reg once its envelope is
// validated and unwrapped.
type UCMM struct {
	reg      *registry.Registry
	router   Router
	identity Identity
	routePath RoutePathPolicy
	log      internal.Logger

	mu       sync.Mutex
	sessions map[string]uint32 // peer address -> session handle
}

// New constructs a UCMM. log may be internal.NopLogger() if the caller
// has no sink wired yet.
func New(reg *registry.Registry, router Router, identity Identity, routePath RoutePathPolicy, log internal.Logger) *UCMM {
	if log == nil {
		log = internal.NopLogger()
	}
	return &UCMM{
		reg:       reg,
		router:    router,
		identity:  identity,
		routePath: routePath,
		log:       log,
		sessions:  make(map[string]uint32),
	}
}

// RegisterSession allocates a random, nonzero session handle for peer
// and records it, replacing the distilled source's static
// 0x01020304 handle: a fixed handle lets one client's session be reused
// by an unrelated peer address. Collisions with any other concurrently
// live session are retried, per §4.8's uniqueness requirement (§8
// property 8) -- expected O(1) since handles are drawn from the full
// 32-bit space.
func (u *UCMM) RegisterSession(peer string) (uint32, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	inUse := make(map[uint32]bool, len(u.sessions))
	for _, h := range u.sessions {
		inUse[h] = true
	}
	for {
		handle, err := randomNonzeroUint32()
		if err != nil {
			return 0, err
		}
		if inUse[handle] {
			continue
		}
		u.sessions[peer] = handle
		u.log.Debugf("registered session 0x%08X for %s", handle, peer)
		return handle, nil
	}
}

// UnregisterSession forgets peer's session handle, if any.
func (u *UCMM) UnregisterSession(peer string) {
	u.mu.Lock()
	delete(u.sessions, peer)
	u.mu.Unlock()
}

// ValidSession reports whether handle is peer's currently registered
// session handle.
func (u *UCMM) ValidSession(peer string, handle uint32) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sessions[peer] == handle && handle != 0
}

func randomNonzeroUint32() (uint32, error) {
	var b [4]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0, fmt.Errorf("ucmm: generating session handle: %w", err)
		}
		if v := binary.LittleEndian.Uint32(b[:]); v != 0 {
			return v, nil
		}
	}
}

// ListIdentity builds the List Identity discovery response. The IP
// address comes from the TCP/IP Interface object's attribute 5,
// round-tripped through that attribute's own codec (Produce then
// Decode) to normalize it, per §4.8 and the design notes' resolved
// open question about that round-trip.
func (u *UCMM) ListIdentity() []byte {
	family := uint16(2) // AF_INET
	port := uint16(44818)
	ip := u.interfaceIP()

	var addr [4]byte
	if v4 := ip.To4(); v4 != nil {
		copy(addr[:], v4)
	}
	sock := make([]byte, 16)
	binary.BigEndian.PutUint16(sock[0:2], family)
	binary.BigEndian.PutUint16(sock[2:4], port)
	copy(sock[4:8], addr[:])

	item := eip.ListIdentityItem{
		EncapsVersion: 1,
		VendorID:      u.identity.VendorID,
		DeviceType:    u.identity.DeviceType,
		ProductCode:   u.identity.ProductCode,
		Revision:      [2]byte{u.identity.RevisionMaj, u.identity.RevisionMin},
		SerialNumber:  u.identity.SerialNumber,
		ProductName:   u.identity.ProductName,
		State:         u.identity.State,
	}
	copy(item.SocketAddr[:], sock)
	return eip.EncodeListIdentityResponse(item)
}

// ListInterfaces builds the List Interfaces discovery response: always
// empty, per §4.8.
func (u *UCMM) ListInterfaces() []byte {
	return eip.EncodeListInterfacesResponse()
}

// Legacy builds the legacy (pre-CPF, command 0x0001) discovery
// response: a single sockaddr_in item carrying this device's address.
func (u *UCMM) Legacy() []byte {
	var addr [4]byte
	if v4 := u.interfaceIP().To4(); v4 != nil {
		copy(addr[:], v4)
	}
	return eip.EncodeLegacyResponse(eip.LegacyItem{
		Family: 2, // AF_INET
		Port:   44818,
		Addr:   addr,
	})
}

// interfaceIP looks up the TCP/IP Interface object (class 0xF5,
// instance 1) and normalizes its Interface Configuration attribute
// (id 5) by producing its wire bytes and decoding them back through the
// same IFACEADDRS codec, rather than reading the stored Go value
// directly. Returns nil if the object, attribute, or decode is
// unavailable -- discovery still works, just without an address, before
// TCP/IP Interface is registered.
func (u *UCMM) interfaceIP() net.IP {
	obj, ok := u.reg.Lookup(uint16(cip.ClassTCPIPInterface), 1)
	if !ok {
		return nil
	}
	ar, ok := obj.(attributeReader)
	if !ok {
		return nil
	}
	attr, ok := ar.Attribute(5)
	if !ok {
		return nil
	}
	data, err := attr.Produce(0, attr.Len())
	if err != nil {
		return nil
	}
	v, _, err := attr.Codec.Decode(data)
	if err != nil {
		return nil
	}
	ia, ok := v.(cipcodec.IfaceAddrs)
	if !ok {
		return nil
	}
	return ia.IPAddress
}

// ListServices builds the List Services discovery response: this
// runtime advertises exactly one supported service, unconnected
// messaging ("Communications") over TCP.
func (u *UCMM) ListServices() []byte {
	return eip.EncodeListServicesResponse(eip.ListServicesItem{
		Version: 1,
		// Only the CIP-over-encapsulation bit (1<<5), per §4.8. The
		// original implementation also defines a 1<<8 "UDP-based
		// messaging, no encapsulation header" bit but deliberately never
		// ORs it in; this runtime doesn't support unencapsulated UDP
		// transport either, so it stays unset here too.
		CapabilityFlags: 1 << 5,
		Name:            "Communications",
	})
}

// SendRRData validates and unwraps a SendRRData request's CPF envelope
// and dispatches the embedded unconnected message, per §4.8:
//   - exactly two CPF items (null address, unconnected data)
//   - item[0] (address) must have zero length
//   - route_path, if policy.Enforce, must match exactly (including the
//     empty path meaning "no route_path allowed")
//   - absent an explicit target, Connection Manager (class 0x06,
//     instance 1) is the default destination
func (u *UCMM) SendRRData(data []byte) (*eip.CommonPacketFormat, error) {
	cpf, err := eip.DecodeCommonPacketFormat(data)
	if err != nil {
		return nil, fmt.Errorf("ucmm: decoding CPF: %w", err)
	}
	if len(cpf.Items) != 2 {
		return nil, fmt.Errorf("ucmm: SendRRData requires exactly 2 CPF items, got %d", len(cpf.Items))
	}
	addrItem := cpf.Items[0]
	if addrItem.TypeID != eip.ItemIDNullAddress || addrItem.Length != 0 {
		return nil, fmt.Errorf("ucmm: SendRRData address item must be Null Address with zero length")
	}
	dataItem := cpf.Items[1]
	if dataItem.TypeID != eip.ItemIDUnconnectedMessage {
		return nil, fmt.Errorf("ucmm: SendRRData data item must be Unconnected Message")
	}

	req, err := cipmsg.ParseRequest(dataItem.Data)
	if err != nil {
		return nil, fmt.Errorf("ucmm: decoding request: %w", err)
	}
	if u.routePath.Enforce {
		if err := checkRoutePath(req.Segments, u.routePath.Configured); err != nil {
			return nil, err
		}
	}

	class, instance, _, err := u.reg.Resolve(req.Segments, false)
	if err != nil {
		// No path in the request itself: fall back to Connection Manager,
		// the conventional Unconnected Send destination.
		class, instance = uint16(cip.ClassConnectionMgr), 1
	}
	target, ok := u.reg.Lookup(class, instance)
	if !ok {
		reply := cipmsg.NewReply(req, cip.StatusObjectDoesNotExist)
		return wrapReply(reply), nil
	}

	reply, err := target.Request(req)
	if err != nil {
		return nil, fmt.Errorf("ucmm: dispatch: %w", err)
	}
	return wrapReply(reply), nil
}

// checkRoutePath enforces §4.8's route_path policy: any Port/Link
// segment in the request's path is this device's equivalent of a
// non-empty route_path (a hop beyond the local backplane). An empty
// configured path means none may be present at all; a non-empty one
// means the request's port/link segments must match it exactly.
func checkRoutePath(segments []cip.Segment, configured cip.Path) error {
	var portSegments []cip.Segment
	for _, seg := range segments {
		if seg.Port != nil {
			portSegments = append(portSegments, seg)
		}
	}
	if len(configured) == 0 {
		if len(portSegments) != 0 {
			return fmt.Errorf("ucmm: route_path must be empty")
		}
		return nil
	}
	configuredSegments, err := cip.Decode(configured)
	if err != nil {
		return fmt.Errorf("ucmm: invalid configured route_path: %w", err)
	}
	if !bytes.Equal(encodePortSegments(portSegments), encodePortSegments(configuredSegments)) {
		return fmt.Errorf("ucmm: route_path mismatch")
	}
	return nil
}

func encodePortSegments(segments []cip.Segment) []byte {
	p := cip.NewPath()
	for _, seg := range segments {
		if seg.Port != nil {
			p.AddPortSegment(cip.UINT(*seg.Port), seg.Link)
		}
	}
	return p.Bytes()
}

func wrapReply(reply *cipmsg.Reply) *eip.CommonPacketFormat {
	addr := eip.NewCPFItem(eip.ItemIDNullAddress, nil)
	data := eip.NewCPFItem(eip.ItemIDUnconnectedMessage, reply.Encode())
	return eip.NewCommonPacketFormat(addr, data)
}

// Outcome is what Handle asks its caller (the ENIP framing/socket layer,
// out of this module's scope per §1) to do after processing one
// encapsulated command.
type Outcome struct {
	// Data is the command-specific response body to send back, wrapped
	// inside the caller's own 24-byte encapsulation header. Nil means no
	// response frame is sent at all (Unregister Session).
	Data []byte
	// Status is the encapsulation header status field the caller should
	// use (0 on success).
	Status uint32
	// Proceed is false when the channel should be closed after Data (if
	// any) is flushed: Unregister Session, or any command received
	// without an "enip" context at all, per §4.8.
	Proceed bool
	// SessionHandle is set on a successful Register Session reply: the
	// caller's encapsulation header carries it in the session field, not
	// in the reply body, so Handle must surface it out of band.
	SessionHandle uint32
}

// Handle is the single surface by which an external ENIP session/socket
// layer drives UCMM, per §1/§4.8: given a decoded command, the peer's
// address (keying the session table), and the command's data payload
// (everything after the 24-byte encapsulation header), it returns what
// to send back and whether to keep the connection open. Any internal
// failure is folded into Outcome.Status = 0x08 rather than returned as
// an error, matching §4.8's "any caught exception sets enip.status =
// 0x08 if not already nonzero" -- except two fatal cases: a non-NULL
// SendRRData address item, and a SendRRData request that fails the
// route_path policy. Either aborts the connection by returning a non-nil
// error.
func (u *UCMM) Handle(cmd eip.Command, peer string, data []byte) (Outcome, error) {
	if len(data) > 0 {
		u.log.Debugf("ucmm: %s from %s\n%s", cmd, peer, utils.HexDump(data))
	}
	switch cmd {
	case eip.CommandRegisterSession:
		handle, err := u.RegisterSession(peer)
		if err != nil {
			return Outcome{Status: encapStatusServiceNotSupported}, nil
		}
		resp := eip.NewRegisterSessionData()
		if len(data) >= 4 {
			resp.ProtocolVersion = binary.LittleEndian.Uint16(data[0:2])
			resp.OptionsFlags = binary.LittleEndian.Uint16(data[2:4])
		}
		body, err := resp.Encode()
		if err != nil {
			return Outcome{Status: encapStatusServiceNotSupported}, nil
		}
		return Outcome{Data: body, Proceed: true, SessionHandle: handle}, nil

	case eip.CommandUnregisterSession:
		u.UnregisterSession(peer)
		return Outcome{Proceed: false}, nil

	case eip.CommandListServices:
		return Outcome{Data: u.ListServices(), Proceed: true}, nil

	case eip.CommandListIdentity:
		return Outcome{Data: u.ListIdentity(), Proceed: true}, nil

	case eip.CommandListInterfaces:
		return Outcome{Data: u.ListInterfaces(), Proceed: true}, nil

	case eip.CommandLegacy:
		return Outcome{Data: u.Legacy(), Proceed: true}, nil

	case eip.CommandSendRRData:
		cpf, err := u.SendRRData(data)
		if err != nil {
			// A non-NULL address item or a route_path policy failure
			// aborts the connection; everything else degrades to a
			// status-0x08 response so the channel stays open.
			if bytes.Contains([]byte(err.Error()), []byte("Null Address")) || bytes.Contains([]byte(err.Error()), []byte("route_path")) {
				return Outcome{}, err
			}
			return Outcome{Status: encapStatusServiceNotSupported, Proceed: true}, nil
		}
		body, err := cpf.Encode()
		if err != nil {
			return Outcome{Status: encapStatusServiceNotSupported, Proceed: true}, nil
		}
		return Outcome{Data: body, Proceed: true}, nil

	default:
		u.log.Warnf("ucmm: unknown command 0x%04X from %s", uint16(cmd), peer)
		return Outcome{Status: encapStatusServiceNotSupported, Proceed: true}, nil
	}
}
