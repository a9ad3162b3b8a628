package ir

import (
	"fmt"
	"strings"
)

// DTypeKind tags the shape of a DataType, mirroring the teacher's own
// DataType handling in the distilled Rust sources (ir/data.rs).
type DTypeKind uint8

const (
	Void DTypeKind = iota
	Int
	UInt
	Bits
	Fp32
	Str
	ModuleTy
	ArrayTy
)

// ModuleRole distinguishes an upstream (FIFO-driven) module type from a
// downstream (combinational, no ports) one.
type ModuleRole uint8

const (
	RoleUpstream ModuleRole = iota
	RoleDownstream
)

// DataType is a value type; two DataTypes compare equal with Equal when
// they describe the same shape, regardless of where they were constructed.
type DataType struct {
	Kind DTypeKind

	bits int // Int/UInt/Bits

	// ModuleTy
	ModuleKind string
	ModuleArgs []DataType
	ModuleRole ModuleRole

	// ArrayTy
	Elem *DataType
	Size int
}

func VoidTy() DataType                { return DataType{Kind: Void} }
func IntTy(bits int) DataType         { return DataType{Kind: Int, bits: bits} }
func UIntTy(bits int) DataType        { return DataType{Kind: UInt, bits: bits} }
func BitsTy(bits int) DataType        { return DataType{Kind: Bits, bits: bits} }
func Fp32Ty() DataType                { return DataType{Kind: Fp32, bits: 32} }
func StrTy() DataType                 { return DataType{Kind: Str} }
func BoolTy() DataType                { return DataType{Kind: UInt, bits: 1} }

func ModuleTyOf(kind string, role ModuleRole, args ...DataType) DataType {
	return DataType{Kind: ModuleTy, ModuleKind: kind, ModuleArgs: args, ModuleRole: role}
}

// ArrayTyOf builds the data type of an array of size elements of scalar type
// elem. elem must be scalar.
func ArrayTyOf(elem DataType, size int) DataType {
	if !elem.IsScalar() {
		panic("ir: array element type must be scalar")
	}
	e := elem
	return DataType{Kind: ArrayTy, Elem: &e, Size: size}
}

// IsScalar reports whether the type is one of Int/UInt/Bits/Fp32.
func (d DataType) IsScalar() bool {
	switch d.Kind {
	case Int, UInt, Bits, Fp32:
		return true
	default:
		return false
	}
}

// IsSigned reports whether arithmetic on this type is signed.
func (d DataType) IsSigned() bool {
	return d.Kind == Int || d.Kind == Fp32
}

// IsInt reports whether the type is Int or UInt (i.e. participates in
// integer arithmetic, as opposed to raw Bits).
func (d DataType) IsInt() bool {
	return d.Kind == Int || d.Kind == UInt
}

// GetBits returns the bit-width of the type (0 for Void/Str/Module; the
// product of element width and size for arrays).
func (d DataType) GetBits() int {
	switch d.Kind {
	case Int, UInt, Bits:
		return d.bits
	case Fp32:
		return 32
	case ArrayTy:
		return d.Elem.GetBits() * d.Size
	default:
		return 0
	}
}

// Equal reports structural equality.
func (d DataType) Equal(o DataType) bool {
	if d.Kind != o.Kind {
		return false
	}
	switch d.Kind {
	case Int, UInt, Bits:
		return d.bits == o.bits
	case ArrayTy:
		return d.Size == o.Size && d.Elem.Equal(*o.Elem)
	case ModuleTy:
		if d.ModuleKind != o.ModuleKind || d.ModuleRole != o.ModuleRole || len(d.ModuleArgs) != len(o.ModuleArgs) {
			return false
		}
		for i := range d.ModuleArgs {
			if !d.ModuleArgs[i].Equal(o.ModuleArgs[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (d DataType) String() string {
	switch d.Kind {
	case Void:
		return "void"
	case Int:
		return fmt.Sprintf("i%d", d.bits)
	case UInt:
		return fmt.Sprintf("u%d", d.bits)
	case Bits:
		return fmt.Sprintf("b%d", d.bits)
	case Fp32:
		return "f32"
	case Str:
		return "str"
	case ArrayTy:
		return fmt.Sprintf("array[%s x %d]", d.Elem, d.Size)
	case ModuleTy:
		args := make([]string, len(d.ModuleArgs))
		for i, a := range d.ModuleArgs {
			args[i] = a.String()
		}
		return fmt.Sprintf("%s[%s]", d.ModuleKind, strings.Join(args, ", "))
	default:
		return "?"
	}
}

// IdxType returns the smallest unsigned integer type wide enough to index
// size elements (size>0). A size of 1 still needs a 1-bit index.
func IdxType(size int) DataType {
	if size <= 1 {
		return UIntTy(1)
	}
	bits := 0
	for (1 << bits) < size {
		bits++
	}
	return UIntTy(bits)
}

// WidenBinary computes the result type of a width-preserving binary op
// (Add/Sub/bitwise): the wider of the two operand widths, signed if either
// operand is signed and unsigned otherwise, matching spec.md §4.1's
// "Add/Sub/BitwiseOp take the wider bit-width and preserve signedness".
func WidenBinary(a, b DataType) (DataType, error) {
	if a.Kind == Int && b.Kind == UInt || a.Kind == UInt && b.Kind == Int {
		return DataType{}, newErr(ErrTypeMismatch, "cannot mix Int and UInt operands (%s, %s)", a, b)
	}
	bits := a.GetBits()
	if b.GetBits() > bits {
		bits = b.GetBits()
	}
	if a.Kind == Int || b.Kind == Int {
		return IntTy(bits), nil
	}
	return UIntTy(bits), nil
}

// MulType sums operand bit-widths, per spec.md §4.1.
func MulType(a, b DataType) (DataType, error) {
	if a.Kind == Int && b.Kind == UInt || a.Kind == UInt && b.Kind == Int {
		return DataType{}, newErr(ErrTypeMismatch, "cannot mix Int and UInt operands (%s, %s)", a, b)
	}
	bits := a.GetBits() + b.GetBits()
	if a.Kind == Int {
		return IntTy(bits), nil
	}
	return UIntTy(bits), nil
}
