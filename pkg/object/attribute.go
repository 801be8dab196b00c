package object

import (
	"fmt"

	"github.com/cip-core/cipcore/pkg/cip"
	"github.com/cip-core/cipcore/pkg/cipcodec"
)

// Visibility mask bits, hiding an attribute from the corresponding
// all-attributes or single-attribute Get service.
const (
	MaskGASNG uint8 = 1 << 0
	MaskGAAll uint8 = 1 << 1
)

// Value is the scalar-or-vector sum type backing an Attribute's value,
// the type-system encoding of the "scalar behaves as a length-1 vector"
// ambiguity called out in the design notes: Scalar and Vector share the
// same indexing surface but Set on a Scalar coerces the incoming value
// to the original element's Go type, matching the source's
// `type(self.default)(v)` coercion.
type Value struct {
	scalar bool
	items  []any
}

// NewScalar wraps a single value.
func NewScalar(v any) Value { return Value{scalar: true, items: []any{v}} }

// NewVector wraps an ordered sequence of values.
func NewVector(items []any) Value { return Value{scalar: false, items: items} }

// IsScalar reports whether this value was constructed as a scalar.
func (v Value) IsScalar() bool { return v.scalar }

// Len returns the element count (always 1 for a scalar).
func (v Value) Len() int { return len(v.items) }

// Get returns the element at i.
func (v Value) Get(i int) (any, error) {
	if i < 0 || i >= len(v.items) {
		return nil, fmt.Errorf("object: index %d out of range (len %d)", i, len(v.items))
	}
	return v.items[i], nil
}

// Slice returns elements [a,b).
func (v Value) Slice(a, b int) ([]any, error) {
	if a < 0 || b > len(v.items) || a > b {
		return nil, fmt.Errorf("object: slice [%d:%d] out of range (len %d)", a, b, len(v.items))
	}
	return v.items[a:b], nil
}

// Set stores x at index i. For a scalar, x is coerced to the original
// element's concrete Go type where the coercion is unambiguous (numeric
// widening/narrowing); non-numeric mismatches are rejected.
func (v *Value) Set(i int, x any) error {
	if i < 0 || i >= len(v.items) {
		return fmt.Errorf("object: index %d out of range (len %d)", i, len(v.items))
	}
	v.items[i] = coerce(v.items[i], x)
	return nil
}

// SetSlice overwrites [a,b) with xs; len(xs) need not equal b-a (the
// caller is trusted to keep the two in step, per §4.3's contract).
func (v *Value) SetSlice(a, b int, xs []any) error {
	if a < 0 || b > len(v.items) || a > b {
		return fmt.Errorf("object: slice [%d:%d] out of range (len %d)", a, b, len(v.items))
	}
	for off, x := range xs {
		if a+off >= b {
			break
		}
		v.items[a+off] = coerce(v.items[a+off], x)
	}
	return nil
}

func coerce(orig, x any) any {
	switch orig.(type) {
	case cip.UINT:
		if n, err := toInt64(x); err == nil {
			return cip.UINT(n)
		}
	case cip.USINT:
		if n, err := toInt64(x); err == nil {
			return cip.USINT(n)
		}
	case cip.UDINT:
		if n, err := toInt64(x); err == nil {
			return cip.UDINT(n)
		}
	case cip.DWORD:
		if n, err := toInt64(x); err == nil {
			return cip.DWORD(n)
		}
	case cip.WORD:
		if n, err := toInt64(x); err == nil {
			return cip.WORD(n)
		}
	}
	return x
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case cip.USINT:
		return int64(n), nil
	case cip.UINT:
		return int64(n), nil
	case cip.UDINT:
		return int64(n), nil
	case cip.WORD:
		return int64(n), nil
	case cip.DWORD:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("object: %T is not an integer", v)
	}
}

// Attribute is a named, typed, maskable cell, either scalar or vector,
// with a codec able to produce and parse its wire form.
type Attribute struct {
	Name  string
	Codec cipcodec.Codec
	Mask  uint8
	Error cip.USINT

	value Value

	// compute, when non-nil, overrides Value for read-only derived
	// attributes (MaxInstance, NumInstances) that must reflect live
	// registry state rather than a stored default.
	compute func() (any, error)
}

// NewAttribute constructs a normal, storage-backed attribute.
func NewAttribute(name string, codec cipcodec.Codec, value Value) *Attribute {
	return &Attribute{Name: name, Codec: codec, value: value}
}

// NewComputedAttribute constructs a read-only attribute whose single
// scalar value is recomputed on every read.
func NewComputedAttribute(name string, codec cipcodec.Codec, compute func() (any, error)) *Attribute {
	return &Attribute{Name: name, Codec: codec, compute: compute}
}

// Scalar reports whether this attribute holds a single value.
func (a *Attribute) Scalar() bool {
	if a.compute != nil {
		return true
	}
	return a.value.IsScalar()
}

// Len returns the element count.
func (a *Attribute) Len() int {
	if a.compute != nil {
		return 1
	}
	return a.value.Len()
}

// Get returns the scalar value, or element i of a vector.
func (a *Attribute) Get(i int) (any, error) {
	if a.compute != nil {
		if i != 0 {
			return nil, fmt.Errorf("object: computed attribute %s is scalar", a.Name)
		}
		return a.compute()
	}
	return a.value.Get(i)
}

// Set stores a value at index i. Computed (read-only) attributes reject
// all writes.
func (a *Attribute) Set(i int, x any) error {
	if a.compute != nil {
		return fmt.Errorf("object: attribute %s is read-only", a.Name)
	}
	return a.value.Set(i, x)
}

// SetSlice overwrites [start,stop).
func (a *Attribute) SetSlice(start, stop int, xs []any) error {
	if a.compute != nil {
		return fmt.Errorf("object: attribute %s is read-only", a.Name)
	}
	return a.value.SetSlice(start, stop, xs)
}

// Produce concatenates the codec's wire encoding of elements [start,stop).
func (a *Attribute) Produce(start, stop int) ([]byte, error) {
	if a.compute != nil {
		v, err := a.compute()
		if err != nil {
			return nil, err
		}
		return a.Codec.Encode(v)
	}
	vals, err := a.value.Slice(start, stop)
	if err != nil {
		return nil, err
	}
	var out []byte
	for _, v := range vals {
		b, err := a.Codec.Encode(v)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// ConsumeVector decodes len(a) elements from b using the attribute's
// codec and stores them as a full-vector assignment (the Set Attribute
// Single behavior for vector attributes).
func (a *Attribute) ConsumeVector(b []byte) error {
	n := a.Len()
	if sz := a.Codec.Size(); sz > 0 && len(b) != n*sz {
		return fmt.Errorf("object: attribute %s expects %d bytes, got %d", a.Name, n*sz, len(b))
	}
	vals := make([]any, 0, n)
	off := 0
	for i := 0; i < n; i++ {
		v, consumed, err := a.Codec.Decode(b[off:])
		if err != nil {
			return err
		}
		vals = append(vals, v)
		off += consumed
	}
	return a.SetSlice(0, n, vals)
}
