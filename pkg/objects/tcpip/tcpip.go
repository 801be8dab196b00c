// Package tcpip implements the TCP/IP Interface object (class 0xF5):
// the device's reported network configuration, per §4.5.
package tcpip

import (
	"net"

	"github.com/cip-core/cipcore/pkg/cip"
	"github.com/cip-core/cipcore/pkg/cipcodec"
	"github.com/cip-core/cipcore/pkg/config"
	"github.com/cip-core/cipcore/pkg/object"
	"github.com/cip-core/cipcore/pkg/registry"
)

// ClassID is the TCP/IP Interface object's well-known class code.
const ClassID = uint16(cip.ClassTCPIPInterface)

// Attribute ids, per §4.5.
const (
	AttrStatus               = 1
	AttrConfigCapability     = 2
	AttrConfigControl        = 3
	AttrPhysicalLinkPath     = 4
	AttrInterfaceConfig      = 5
	AttrHostName             = 6
)

// Defaults holds the values installed on a new TCP/IP Interface
// instance.
type Defaults struct {
	IPAddress   net.IP
	NetworkMask net.IP
	Gateway     net.IP
	NameServer  net.IP
	DomainName  string
	HostName    string
}

// DefaultAttrs reproduces original_source/server/enip/device.py's stock
// TCP/IP profile: a private-range static address with no DHCP.
func DefaultAttrs() Defaults {
	return Defaults{
		IPAddress:   net.IPv4(192, 168, 1, 100),
		NetworkMask: net.IPv4(255, 255, 255, 0),
		Gateway:     net.IPv4(192, 168, 1, 1),
		NameServer:  net.IPv4(0, 0, 0, 0),
		DomainName:  "",
		HostName:    "",
	}
}

// DefaultsFromConfig builds a Defaults value from the [TCP/IP] section of
// cfg, overriding DefaultAttrs' static private-range profile field by
// field; a nil cfg, or any key cfg doesn't carry, keeps that field's
// DefaultAttrs value. Addresses that fail net.ParseIP are left at their
// DefaultAttrs value rather than installed as nil.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	d := DefaultAttrs()
	if cfg == nil {
		return d
	}
	if v := cfg.String("TCP/IP", "ip_address", ""); v != "" {
		if ip := net.ParseIP(v); ip != nil {
			d.IPAddress = ip
		}
	}
	if v := cfg.String("TCP/IP", "network_mask", ""); v != "" {
		if ip := net.ParseIP(v); ip != nil {
			d.NetworkMask = ip
		}
	}
	if v := cfg.String("TCP/IP", "gateway", ""); v != "" {
		if ip := net.ParseIP(v); ip != nil {
			d.Gateway = ip
		}
	}
	if v := cfg.String("TCP/IP", "name_server", ""); v != "" {
		if ip := net.ParseIP(v); ip != nil {
			d.NameServer = ip
		}
	}
	d.DomainName = cfg.String("TCP/IP", "domain_name", d.DomainName)
	d.HostName = cfg.String("TCP/IP", "host_name", d.HostName)
	return d
}

// TCPIP is a single TCP/IP Interface object instance.
type TCPIP struct {
	*object.Base
}

// New constructs (or auto-allocates) a TCP/IP Interface instance in
// reg, per §3's instance-allocation invariant.
func New(reg *registry.Registry, instanceID *uint16, defaults Defaults) (*TCPIP, error) {
	obj, err := object.CreateInstance(reg, ClassID, instanceID, func(id uint16) registry.Object {
		return newInstance(reg, id, defaults)
	})
	if err != nil {
		return nil, err
	}
	return obj.(*TCPIP), nil
}

func newInstance(reg *registry.Registry, instanceID uint16, d Defaults) *TCPIP {
	base := object.NewBase(ClassID, instanceID, "TCP/IP Interface")
	t := &TCPIP{Base: base}

	// §4.5's documented exception: rather than overload attribute id 0
	// (reserved elsewhere in this runtime for the object self-reference),
	// the meta instance gets the normal class-level attribute set, which
	// already includes Revision at id 1.
	if instanceID == 0 {
		base.InstallClassLevelAttributes(reg, ClassID)
		return t
	}

	base.SetAttribute(AttrStatus, object.NewAttribute("InterfaceStatus", cipcodec.DWORD, object.NewScalar(cip.DWORD(1))))
	base.SetAttribute(AttrConfigCapability, object.NewAttribute("ConfigCapability", cipcodec.DWORD, object.NewScalar(cip.DWORD(0x04))))
	base.SetAttribute(AttrConfigControl, object.NewAttribute("ConfigControl", cipcodec.DWORD, object.NewScalar(cip.DWORD(0))))
	base.SetAttribute(AttrPhysicalLinkPath, object.NewAttribute("PhysicalLinkObject", cipcodec.EPATHPadded, object.NewScalar(defaultLinkPath())))
	base.SetAttribute(AttrInterfaceConfig, object.NewAttribute("InterfaceConfiguration", cipcodec.IFACEADDRS, object.NewScalar(cipcodec.IfaceAddrs{
		IPAddress:   d.IPAddress,
		NetworkMask: d.NetworkMask,
		Gateway:     d.Gateway,
		NameServer:  d.NameServer,
		NameServer2: net.IPv4(0, 0, 0, 0),
		DomainName:  d.DomainName,
	})))
	base.SetAttribute(AttrHostName, object.NewAttribute("HostName", cipcodec.STRING, object.NewScalar(d.HostName)))

	return t
}

// defaultLinkPath is the physical link path to Ethernet Link object
// instance 1, the conventional value for a single-port device.
func defaultLinkPath() cip.Path {
	p := cip.NewPath()
	p.AddClass(cip.ClassEthernetLink)
	p.AddInstance(1)
	return p
}
