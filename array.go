// array.go
package qlab

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Dtype names the element type of an Array.
type Dtype string

const (
	Float64    Dtype = "float64"
	Float32    Dtype = "float32"
	Int64      Dtype = "int64"
	Int32      Dtype = "int32"
	Int16      Dtype = "int16"
	Int8       Dtype = "int8"
	Uint8      Dtype = "uint8"
	Bool       Dtype = "bool"
	Complex64  Dtype = "complex64"
	Complex128 Dtype = "complex128"
)

// Size returns the element width in bytes, or 0 for an unknown dtype.
func (d Dtype) Size() int {
	switch d {
	case Float64, Int64, Complex64:
		return 8
	case Float32, Int32:
		return 4
	case Int16:
		return 2
	case Int8, Uint8, Bool:
		return 1
	case Complex128:
		return 16
	}
	return 0
}

/*
Array is a dense numeric array with an explicit dtype and shape, backed
by little-endian bytes. Keeping the raw bytes (rather than converting
through float64) is what makes codec round-trips bit-identical, NaN
payloads included.
*/
type Array struct {
	Dtype Dtype
	Shape []int
	data  []byte
}

// NewArray allocates a zeroed array of the given dtype and shape.
func NewArray(dtype Dtype, shape ...int) (*Array, error) {
	size := dtype.Size()
	if size == 0 {
		return nil, fmt.Errorf("unknown dtype %q", dtype)
	}
	n, err := shapeLen(shape)
	if err != nil {
		return nil, err
	}
	return &Array{
		Dtype: dtype,
		Shape: append([]int(nil), shape...),
		data:  make([]byte, n*size),
	}, nil
}

func shapeLen(shape []int) (int, error) {
	n := 1
	for _, dim := range shape {
		if dim < 0 {
			return 0, fmt.Errorf("negative dimension %d in shape %v", dim, shape)
		}
		n *= dim
	}
	return n, nil
}

// Len returns the number of elements.
func (a *Array) Len() int {
	n, _ := shapeLen(a.Shape)
	return n
}

// Bytes returns the raw little-endian backing bytes.
func (a *Array) Bytes() []byte {
	return a.data
}

// Equal reports bytewise equality of dtype, shape and content.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Dtype != b.Dtype || len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return bytes.Equal(a.data, b.data)
}

// Reshape changes the shape in place; the element count must match.
func (a *Array) Reshape(shape ...int) error {
	n, err := shapeLen(shape)
	if err != nil {
		return err
	}
	if n != a.Len() {
		return fmt.Errorf("cannot reshape %d elements to %v", a.Len(), shape)
	}
	a.Shape = append([]int(nil), shape...)
	return nil
}

// Float64Array builds a float64 array from values. With no shape the
// array is one-dimensional; an explicit shape must match len(values).
func Float64Array(values []float64, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	a, err := NewArray(Float64, shape...)
	if err != nil {
		return nil, err
	}
	if a.Len() != len(values) {
		return nil, fmt.Errorf("shape %v does not hold %d values", shape, len(values))
	}
	for i, v := range values {
		binary.LittleEndian.PutUint64(a.data[i*8:], math.Float64bits(v))
	}
	return a, nil
}

func Float32Array(values []float32, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	a, err := NewArray(Float32, shape...)
	if err != nil {
		return nil, err
	}
	if a.Len() != len(values) {
		return nil, fmt.Errorf("shape %v does not hold %d values", shape, len(values))
	}
	for i, v := range values {
		binary.LittleEndian.PutUint32(a.data[i*4:], math.Float32bits(v))
	}
	return a, nil
}

func Int64Array(values []int64, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	a, err := NewArray(Int64, shape...)
	if err != nil {
		return nil, err
	}
	if a.Len() != len(values) {
		return nil, fmt.Errorf("shape %v does not hold %d values", shape, len(values))
	}
	for i, v := range values {
		binary.LittleEndian.PutUint64(a.data[i*8:], uint64(v))
	}
	return a, nil
}

func Int32Array(values []int32, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	a, err := NewArray(Int32, shape...)
	if err != nil {
		return nil, err
	}
	if a.Len() != len(values) {
		return nil, fmt.Errorf("shape %v does not hold %d values", shape, len(values))
	}
	for i, v := range values {
		binary.LittleEndian.PutUint32(a.data[i*4:], uint32(v))
	}
	return a, nil
}

func Int16Array(values []int16, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	a, err := NewArray(Int16, shape...)
	if err != nil {
		return nil, err
	}
	if a.Len() != len(values) {
		return nil, fmt.Errorf("shape %v does not hold %d values", shape, len(values))
	}
	for i, v := range values {
		binary.LittleEndian.PutUint16(a.data[i*2:], uint16(v))
	}
	return a, nil
}

func Int8Array(values []int8, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	a, err := NewArray(Int8, shape...)
	if err != nil {
		return nil, err
	}
	if a.Len() != len(values) {
		return nil, fmt.Errorf("shape %v does not hold %d values", shape, len(values))
	}
	for i, v := range values {
		a.data[i] = byte(v)
	}
	return a, nil
}

func Uint8Array(values []uint8, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	a, err := NewArray(Uint8, shape...)
	if err != nil {
		return nil, err
	}
	if a.Len() != len(values) {
		return nil, fmt.Errorf("shape %v does not hold %d values", shape, len(values))
	}
	copy(a.data, values)
	return a, nil
}

func Complex64Array(values []complex64, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	a, err := NewArray(Complex64, shape...)
	if err != nil {
		return nil, err
	}
	if a.Len() != len(values) {
		return nil, fmt.Errorf("shape %v does not hold %d values", shape, len(values))
	}
	for i, v := range values {
		binary.LittleEndian.PutUint32(a.data[i*8:], math.Float32bits(real(v)))
		binary.LittleEndian.PutUint32(a.data[i*8+4:], math.Float32bits(imag(v)))
	}
	return a, nil
}

func BoolArray(values []bool, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	a, err := NewArray(Bool, shape...)
	if err != nil {
		return nil, err
	}
	if a.Len() != len(values) {
		return nil, fmt.Errorf("shape %v does not hold %d values", shape, len(values))
	}
	for i, v := range values {
		if v {
			a.data[i] = 1
		}
	}
	return a, nil
}

func Complex128Array(values []complex128, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	a, err := NewArray(Complex128, shape...)
	if err != nil {
		return nil, err
	}
	if a.Len() != len(values) {
		return nil, fmt.Errorf("shape %v does not hold %d values", shape, len(values))
	}
	for i, v := range values {
		binary.LittleEndian.PutUint64(a.data[i*16:], math.Float64bits(real(v)))
		binary.LittleEndian.PutUint64(a.data[i*16+8:], math.Float64bits(imag(v)))
	}
	return a, nil
}

// Float64s decodes the array into a float64 slice.
func (a *Array) Float64s() ([]float64, error) {
	if a.Dtype != Float64 {
		return nil, fmt.Errorf("array has dtype %s, not float64", a.Dtype)
	}
	out := make([]float64, a.Len())
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(a.data[i*8:]))
	}
	return out, nil
}

// Int64s decodes the array into an int64 slice.
func (a *Array) Int64s() ([]int64, error) {
	if a.Dtype != Int64 {
		return nil, fmt.Errorf("array has dtype %s, not int64", a.Dtype)
	}
	out := make([]int64, a.Len())
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(a.data[i*8:]))
	}
	return out, nil
}

// Float64At returns the element at the given multi-dimensional index of
// a float64 array.
func (a *Array) Float64At(indices ...int) (float64, error) {
	if a.Dtype != Float64 {
		return 0, fmt.Errorf("array has dtype %s, not float64", a.Dtype)
	}
	flat, err := a.flatIndex(indices)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(a.data[flat*8:])), nil
}

// SetFloat64 stores v at the given multi-dimensional index.
func (a *Array) SetFloat64(v float64, indices ...int) error {
	if a.Dtype != Float64 {
		return fmt.Errorf("array has dtype %s, not float64", a.Dtype)
	}
	flat, err := a.flatIndex(indices)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(a.data[flat*8:], math.Float64bits(v))
	return nil
}

func (a *Array) flatIndex(indices []int) (int, error) {
	if len(indices) != len(a.Shape) {
		return 0, fmt.Errorf("got %d indices for shape %v", len(indices), a.Shape)
	}
	flat := 0
	for dim, idx := range indices {
		if idx < 0 || idx >= a.Shape[dim] {
			return 0, fmt.Errorf("index %d out of range for dimension %d of shape %v", idx, dim, a.Shape)
		}
		flat = flat*a.Shape[dim] + idx
	}
	return flat, nil
}

// arrayFromBytes rebuilds an array from its serialized parts, used by
// the codec on decode.
func arrayFromBytes(dtype Dtype, shape []int, data []byte) (*Array, error) {
	size := dtype.Size()
	if size == 0 {
		return nil, fmt.Errorf("unknown dtype %q", dtype)
	}
	n, err := shapeLen(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != n*size {
		return nil, fmt.Errorf("dtype %s with shape %v needs %d bytes, got %d", dtype, shape, n*size, len(data))
	}
	return &Array{
		Dtype: dtype,
		Shape: append([]int(nil), shape...),
		data:  data,
	}, nil
}

// Linspace returns num evenly spaced values from start to stop,
// inclusive of both endpoints.
func Linspace(start, stop float64, num int) []float64 {
	if num <= 0 {
		return nil
	}
	if num == 1 {
		return []float64{start}
	}
	out := make([]float64, num)
	step := (stop - start) / float64(num-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[num-1] = stop
	return out
}
