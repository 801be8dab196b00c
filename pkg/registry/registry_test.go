package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cip-core/cipcore/pkg/cip"
	"github.com/cip-core/cipcore/pkg/cipmsg"
)

type fakeObject struct {
	class, instance uint16
}

func (f *fakeObject) ClassID() uint16    { return f.class }
func (f *fakeObject) InstanceID() uint16 { return f.instance }
func (f *fakeObject) Name() string       { return "fake" }
func (f *fakeObject) Request(req *cipmsg.Request) (*cipmsg.Reply, error) {
	return cipmsg.NewReply(req, 0), nil
}

func seg(class, instance, attr *uint32) cip.Segment {
	return cip.Segment{Class: class, Instance: instance, Attribute: attr}
}

func u32(v uint32) *uint32 { return &v }

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	obj := &fakeObject{class: 1, instance: 1}
	require.NoError(t, r.Register(obj))
	got, ok := r.Lookup(1, 1)
	assert.True(t, ok)
	assert.Equal(t, Object(obj), got)
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(&fakeObject{class: 1, instance: 1}))
	assert.Error(t, r.Register(&fakeObject{class: 1, instance: 1}))
}

func TestMaxInstanceAndNumInstances(t *testing.T) {
	r := New()
	r.Register(&fakeObject{class: 1, instance: 1})
	r.Register(&fakeObject{class: 1, instance: 3})
	assert.EqualValues(t, 3, r.MaxInstance(1))
	assert.EqualValues(t, 2, r.NumInstances(1), "instance 2 was never registered")
}

func TestNextInstanceIDMonotonic(t *testing.T) {
	r := New()
	assert.EqualValues(t, 1, r.NextInstanceID(1))
	r.Register(&fakeObject{class: 1, instance: 5})
	assert.EqualValues(t, 6, r.NextInstanceID(1))
}

func TestResetPreservesMaxInstanceCounter(t *testing.T) {
	r := New()
	r.Register(&fakeObject{class: 1, instance: 5})
	r.Reset()
	_, ok := r.Lookup(1, 5)
	assert.False(t, ok, "expected Reset to clear the object directory")
	assert.EqualValues(t, 6, r.NextInstanceID(1), "counter preserved across Reset")
}

func TestResolveClassInstanceAttribute(t *testing.T) {
	r := New()
	segs := []cip.Segment{seg(u32(1), nil, nil), seg(nil, u32(2), nil), seg(nil, nil, u32(7))}
	class, instance, attr, err := r.Resolve(segs, true)
	require.NoError(t, err)
	assert.EqualValues(t, 1, class)
	assert.EqualValues(t, 2, instance)
	if assert.NotNil(t, attr) {
		assert.EqualValues(t, 7, *attr)
	}
}

func TestResolveMissingAttributeWhenWanted(t *testing.T) {
	r := New()
	segs := []cip.Segment{seg(u32(1), nil, nil), seg(nil, u32(2), nil)}
	if _, _, _, err := r.Resolve(segs, true); err == nil {
		t.Error("expected an error when an attribute is required but absent")
	}
}

func TestResolveSymbolicTag(t *testing.T) {
	r := New()
	attrID := uint16(3)
	r.RedirectTag("MyTag", SymbolTarget{Class: 0x6B, Instance: 1, Attribute: &attrID})

	name := "MyTag"
	segs := []cip.Segment{{Symbolic: &name}}
	class, instance, attr, err := r.Resolve(segs, true)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if class != 0x6B || instance != 1 || attr == nil || *attr != 3 {
		t.Errorf("Resolve = (%d, %d, %v)", class, instance, attr)
	}
}

func TestResolveUnresolvedSymbolFails(t *testing.T) {
	r := New()
	name := "NoSuchTag"
	segs := []cip.Segment{{Symbolic: &name}}
	if _, _, _, err := r.Resolve(segs, false); err == nil {
		t.Error("expected an error resolving an unbound symbolic segment")
	}
}

func TestResolveElement(t *testing.T) {
	e := uint32(4)
	if got := ResolveElement([]cip.Segment{{Element: &e}}); got != 4 {
		t.Errorf("ResolveElement = %d, want 4", got)
	}
	if got := ResolveElement(nil); got != 0 {
		t.Errorf("ResolveElement(nil) = %d, want 0", got)
	}
}
