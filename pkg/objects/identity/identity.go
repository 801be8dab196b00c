// Package identity implements the Identity object (class 0x01): the ten
// static attributes every CIP device reports about itself, plus the
// Reset service. Defaults mirror a ControlLogix 1756-L61/B adapter, the
// profile original_source/server/enip/device.py ships out of the box.
package identity

import (
	"github.com/cip-core/cipcore/pkg/cip"
	"github.com/cip-core/cipcore/pkg/cipcodec"
	"github.com/cip-core/cipcore/pkg/cipmsg"
	"github.com/cip-core/cipcore/pkg/config"
	"github.com/cip-core/cipcore/pkg/object"
	"github.com/cip-core/cipcore/pkg/registry"
)

// ClassID is the Identity object's well-known class code.
const ClassID = uint16(cip.ClassIdentity)

// Attribute ids, per §4.5.
const (
	AttrVendorID            = 1
	AttrDeviceType           = 2
	AttrProductCode          = 3
	AttrRevision             = 4
	AttrStatus               = 5
	AttrSerialNumber         = 6
	AttrProductName          = 7
	AttrState                = 8
	AttrConfigConsistency    = 9
	AttrHeartbeatInterval    = 10
)

// Defaults holds the instance-attribute values installed on every new
// Identity instance. Zero value yields the stock 1756-L61/B profile via
// DefaultAttrs.
type Defaults struct {
	VendorID         cip.UINT
	DeviceType       cip.UINT
	ProductCode      cip.UINT
	RevisionMajor    cip.USINT
	RevisionMinor    cip.USINT
	SerialNumber     cip.UDINT
	ProductName      string
	HeartbeatSeconds cip.USINT
}

// DefaultAttrs reproduces original_source/server/enip/device.py's stock
// Identity profile: a ControlLogix 1756-L61/B.
func DefaultAttrs() Defaults {
	return Defaults{
		VendorID:         1,
		DeviceType:       0x0E,
		ProductCode:      54,
		RevisionMajor:    20,
		RevisionMinor:    11,
		SerialNumber:     0x6C06A332,
		ProductName:      "1756-L61/B LOGIX5561",
		HeartbeatSeconds: 0,
	}
}

// DefaultsFromConfig builds a Defaults value from the [Identity] section
// of cfg, overriding DefaultAttrs' stock profile field by field; a nil
// cfg, or any key cfg doesn't carry, keeps that field's DefaultAttrs
// value, per the per-object-section-with-DEFAULT-fallback convention cfg
// itself implements.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	d := DefaultAttrs()
	if cfg == nil {
		return d
	}
	d.VendorID = cip.UINT(cfg.Int("Identity", "vendor_id", int64(d.VendorID)))
	d.DeviceType = cip.UINT(cfg.Int("Identity", "device_type", int64(d.DeviceType)))
	d.ProductCode = cip.UINT(cfg.Int("Identity", "product_code", int64(d.ProductCode)))
	d.RevisionMajor = cip.USINT(cfg.Int("Identity", "revision_major", int64(d.RevisionMajor)))
	d.RevisionMinor = cip.USINT(cfg.Int("Identity", "revision_minor", int64(d.RevisionMinor)))
	d.SerialNumber = cip.UDINT(cfg.Int("Identity", "serial_number", int64(d.SerialNumber)))
	d.ProductName = cfg.String("Identity", "product_name", d.ProductName)
	d.HeartbeatSeconds = cip.USINT(cfg.Int("Identity", "heartbeat_interval", int64(d.HeartbeatSeconds)))
	return d
}

// Identity is a single Identity object instance. Instance 0 (the meta
// instance) carries only the class-level attributes 1-4 installed by
// object.Base.InstallClassLevelAttributes; every other instance carries
// the full ten-attribute instance profile.
type Identity struct {
	*object.Base
}

// New constructs (or, for instanceID==nil, auto-allocates) an Identity
// instance in reg, lazily constructing the class's meta instance first
// if it does not exist yet, per §3's instance-allocation invariant.
func New(reg *registry.Registry, instanceID *uint16, defaults Defaults) (*Identity, error) {
	obj, err := object.CreateInstance(reg, ClassID, instanceID, func(id uint16) registry.Object {
		return newInstance(reg, id, defaults)
	})
	if err != nil {
		return nil, err
	}
	return obj.(*Identity), nil
}

func newInstance(reg *registry.Registry, instanceID uint16, d Defaults) *Identity {
	base := object.NewBase(ClassID, instanceID, "Identity")
	id := &Identity{Base: base}

	if instanceID == 0 {
		base.InstallClassLevelAttributes(reg, ClassID)
		return id
	}

	base.SetAttribute(AttrVendorID, object.NewAttribute("VendorID", cipcodec.UINT, object.NewScalar(d.VendorID)))
	base.SetAttribute(AttrDeviceType, object.NewAttribute("DeviceType", cipcodec.UINT, object.NewScalar(d.DeviceType)))
	base.SetAttribute(AttrProductCode, object.NewAttribute("ProductCode", cipcodec.UINT, object.NewScalar(d.ProductCode)))
	base.SetAttribute(AttrRevision, object.NewAttribute("Revision", cipcodec.USINT, object.NewVector([]any{d.RevisionMajor, d.RevisionMinor})))
	base.SetAttribute(AttrStatus, object.NewAttribute("Status", cipcodec.WORD, object.NewScalar(cip.WORD(0))))
	base.SetAttribute(AttrSerialNumber, object.NewAttribute("SerialNumber", cipcodec.UDINT, object.NewScalar(d.SerialNumber)))
	base.SetAttribute(AttrProductName, object.NewAttribute("ProductName", cipcodec.SSTRING, object.NewScalar(d.ProductName)))
	base.SetAttribute(AttrState, object.NewAttribute("State", cipcodec.USINT, object.NewScalar(cip.USINT(3))))
	base.SetAttribute(AttrConfigConsistency, object.NewAttribute("ConfigConsistencyValue", cipcodec.UINT, object.NewScalar(cip.UINT(0))))
	base.SetAttribute(AttrHeartbeatInterval, object.NewAttribute("HeartbeatInterval", cipcodec.USINT, object.NewScalar(d.HeartbeatSeconds)))

	return id
}

// Request dispatches Identity's Reset service before falling back to the
// base GA_ALL/GA_SNG/SA_SNG handling.
func (i *Identity) Request(req *cipmsg.Request) (*cipmsg.Reply, error) {
	if req.Service == cip.ServiceReset {
		return cipmsg.NewReply(req, 0), nil
	}
	return i.Base.Request(req)
}
