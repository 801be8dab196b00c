package object

import (
	"github.com/cip-core/cipcore/pkg/cip"
	"github.com/cip-core/cipcore/pkg/cipcodec"
	"github.com/cip-core/cipcore/pkg/registry"
)

// InstallClassLevelAttributes populates the standard class-level
// attributes 1-4 (Revision, MaxInstance, NumInstances, Optional
// Attribute List) that every CIP class exposes on its meta (instance 0)
// object. Call this from a standard object's constructor when
// instanceID == 0, before any class-specific instance-0 setup.
func (b *Base) InstallClassLevelAttributes(reg *registry.Registry, classID uint16) {
	b.SetAttribute(1, NewAttribute("Revision", cipcodec.UINT, NewScalar(cip.UINT(1))))
	b.SetAttribute(2, NewMaxInstanceAttribute(reg, classID))
	b.SetAttribute(3, NewNumInstancesAttribute(reg, classID))
	b.SetAttribute(4, NewAttribute("OptionalAttributeList", cipcodec.UINT, NewVector(nil)))
}
