package object

import (
	"github.com/cip-core/cipcore/pkg/registry"
)

// Ctor builds one instance of a class for a given instance id; id 0
// builds the class's "meta" instance holding class-level attributes
// (MaxInstance, NumInstances, ...). It must be safe to call with id 0
// re-entrantly from CreateInstance.
type Ctor func(instanceID uint16) registry.Object

// CreateInstance reproduces the source's instance-allocation invariant:
// a new instance auto-allocates max_instance+1 unless instanceID is
// given explicitly, and creating any instance lazily constructs that
// class's meta instance (id 0) first if it doesn't exist yet --
// including running the same class-specific constructor recursively, so
// subclass instance-0 setup (e.g. TCP/IP Interface's attribute 0) always
// applies to a lazily created meta instance exactly as it would to an
// explicit one.
func CreateInstance(reg *registry.Registry, classID uint16, explicitInstanceID *uint16, ctor Ctor) (registry.Object, error) {
	lock := reg.ClassLock(classID)
	lock.Lock()
	defer lock.Unlock()

	wantsMeta := explicitInstanceID != nil && *explicitInstanceID == 0
	if !wantsMeta {
		if _, ok := reg.Lookup(classID, 0); !ok {
			meta := ctor(0)
			if err := reg.Register(meta); err != nil {
				return nil, err
			}
		}
	}

	var instanceID uint16
	if explicitInstanceID != nil {
		instanceID = *explicitInstanceID
	} else {
		instanceID = reg.NextInstanceID(classID)
	}

	obj := ctor(instanceID)
	if err := reg.Register(obj); err != nil {
		return nil, err
	}
	return obj, nil
}
