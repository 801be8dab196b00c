// Package registry holds the process-wide CIP object directory and tag
// symbol table. It is the Go-native replacement for the distilled
// source's global mutable `directory`/`symbol` dicts: an explicit handle
// with read/write locking instead of module-level state, so multiple
// Registry instances (e.g. one per test) never interfere with each
// other.
package registry

import (
	"fmt"
	"sync"

	"github.com/cip-core/cipcore/pkg/cip"
	"github.com/cip-core/cipcore/pkg/cipmsg"
)

// Object is the interface every CIP object (standard or vendor) must
// satisfy to be addressable through the registry.
type Object interface {
	ClassID() uint16
	InstanceID() uint16
	Name() string
	Request(req *cipmsg.Request) (*cipmsg.Reply, error)
}

// SymbolTarget is what a resolved tag name points at: a (class,
// instance) pair and, if the tag names a specific attribute, the
// attribute id.
type SymbolTarget struct {
	Class     uint16
	Instance  uint16
	Attribute *uint16
}

type objectKey struct {
	class, instance uint16
}

// Registry is the process-wide (or, in tests, per-test) object directory
// and symbol table. The zero value is not usable; construct with New.
type Registry struct {
	mu                 sync.RWMutex
	objects            map[objectKey]Object
	symbols            map[string]SymbolTarget
	maxInstanceByClass map[uint16]uint16

	classMu    sync.Mutex
	classLocks map[uint16]*sync.Mutex
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		objects:            make(map[objectKey]Object),
		symbols:            make(map[string]SymbolTarget),
		maxInstanceByClass: make(map[uint16]uint16),
		classLocks:         make(map[uint16]*sync.Mutex),
	}
}

// ClassLock returns the mutex guarding mutation of a class's instance
// table. It protects instance bookkeeping only -- per §5/§9 the request
// parser is stateless and never held across a lock, so there is nothing
// here analogous to the distilled source's deferred-parse-closure queue.
func (r *Registry) ClassLock(classID uint16) *sync.Mutex {
	r.classMu.Lock()
	defer r.classMu.Unlock()
	l, ok := r.classLocks[classID]
	if !ok {
		l = &sync.Mutex{}
		r.classLocks[classID] = l
	}
	return l
}

// NextInstanceID returns the instance id that would be auto-allocated
// for a new, unspecified-id instance of classID: one past the highest
// instance id that class has ever held (lookup_reset does not rewind
// this counter).
func (r *Registry) NextInstanceID(classID uint16) uint16 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maxInstanceByClass[classID] + 1
}

// Register records obj in the directory at (obj.ClassID(),
// obj.InstanceID()), bumping that class's max-instance counter, and
// fails if another object already occupies that slot.
func (r *Registry) Register(obj Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := objectKey{obj.ClassID(), obj.InstanceID()}
	if _, exists := r.objects[key]; exists {
		return fmt.Errorf("registry: duplicate object class=0x%02X instance=%d", obj.ClassID(), obj.InstanceID())
	}
	r.objects[key] = obj
	if obj.InstanceID() > r.maxInstanceByClass[obj.ClassID()] {
		r.maxInstanceByClass[obj.ClassID()] = obj.InstanceID()
	}
	return nil
}

// Lookup returns the object registered at (classID, instanceID).
func (r *Registry) Lookup(classID, instanceID uint16) (Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[objectKey{classID, instanceID}]
	return obj, ok
}

// MaxInstance returns the class's max_instance counter (0 if the class
// has never had an instance registered).
func (r *Registry) MaxInstance(classID uint16) uint16 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maxInstanceByClass[classID]
}

// NumInstances counts live instances of classID in 1..=MaxInstance
// (instance 0, the meta instance, never counts).
func (r *Registry) NumInstances(classID uint16) uint16 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n uint16
	max := r.maxInstanceByClass[classID]
	for i := uint16(1); i <= max; i++ {
		if _, ok := r.objects[objectKey{classID, i}]; ok {
			n++
		}
	}
	return n
}

// RedirectTag binds a symbolic tag name to a resolved target, the
// registry-owned equivalent of the source's redirect_tag.
func (r *Registry) RedirectTag(name string, target SymbolTarget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.symbols[name] = target
}

// ResolveTag looks up a bound symbolic tag name.
func (r *Registry) ResolveTag(name string) (SymbolTarget, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.symbols[name]
	return t, ok
}

// Reset clears the object directory and symbol table. Per-class
// max-instance counters are intentionally preserved, so a class that
// re-registers instances after Reset still hands out strictly
// increasing ids.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects = make(map[objectKey]Object)
	r.symbols = make(map[string]SymbolTarget)
}

// Resolve walks path segments left to right, filling class/instance/
// (optionally) attribute. Symbolic segments accumulate into a dotted
// name and are substituted via the symbol table as soon as a prefix of
// the accumulated name resolves; any field the table fills may not
// already be set by an earlier segment.
func (r *Registry) Resolve(segments []cip.Segment, wantAttribute bool) (class, instance uint16, attribute *uint16, err error) {
	var classSet, instanceSet, attributeSet bool
	var pending string

	fill := func(t SymbolTarget) error {
		if classSet && t.Class != class {
			return fmt.Errorf("registry: tag %q would overwrite class", pending)
		}
		if instanceSet && t.Instance != instance {
			return fmt.Errorf("registry: tag %q would overwrite instance", pending)
		}
		class, classSet = t.Class, true
		instance, instanceSet = t.Instance, true
		if t.Attribute != nil {
			if attributeSet && *attribute != *t.Attribute {
				return fmt.Errorf("registry: tag %q would overwrite attribute", pending)
			}
			a := *t.Attribute
			attribute, attributeSet = &a, true
		}
		return nil
	}

	for _, seg := range segments {
		if classSet && instanceSet && (!wantAttribute || attributeSet) {
			break
		}
		switch {
		case seg.Class != nil:
			if classSet {
				return 0, 0, nil, fmt.Errorf("registry: class set twice")
			}
			class, classSet = uint16(*seg.Class), true
		case seg.Instance != nil:
			if instanceSet {
				return 0, 0, nil, fmt.Errorf("registry: instance set twice")
			}
			instance, instanceSet = uint16(*seg.Instance), true
		case seg.Attribute != nil:
			if attributeSet {
				return 0, 0, nil, fmt.Errorf("registry: attribute set twice")
			}
			a := uint16(*seg.Attribute)
			attribute, attributeSet = &a, true
		case seg.Symbolic != nil:
			if pending == "" {
				pending = *seg.Symbolic
			} else {
				pending = pending + "." + *seg.Symbolic
			}
			if t, ok := r.ResolveTag(pending); ok {
				if err := fill(t); err != nil {
					return 0, 0, nil, err
				}
				pending = ""
			}
		case seg.Element != nil:
			// residual element segments are ignored for resolution
		}
	}

	if pending != "" {
		return 0, 0, nil, fmt.Errorf("registry: unresolved tag %q", pending)
	}
	if !classSet || !instanceSet {
		return 0, 0, nil, fmt.Errorf("registry: path did not resolve to a class/instance")
	}
	if wantAttribute && !attributeSet {
		return 0, 0, nil, fmt.Errorf("registry: path did not resolve to an attribute")
	}
	return class, instance, attribute, nil
}

// ResolveElement returns the first Element segment's value, or 0 if the
// path specifies none.
func ResolveElement(segments []cip.Segment) uint32 {
	for _, seg := range segments {
		if seg.Element != nil {
			return *seg.Element
		}
	}
	return 0
}
