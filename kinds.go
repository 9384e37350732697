package inputs

import "strings"

// Vec2 is a fixed-size 2D vector.
type Vec2 [2]float64

// Vec3 is a fixed-size 3D vector.
type Vec3 [3]float64

// Mat2 is a 2x2 matrix stored row-major.
type Mat2 [2][2]float64

// Mat3 is a 3x3 matrix stored row-major.
type Mat3 [3][3]float64

// ScalarFunc2 evaluates a scalar field at position x and time t.
type ScalarFunc2 func(x Vec2, t float64) (float64, error)

// ScalarFunc3 evaluates a scalar field at position x and time t.
type ScalarFunc3 func(x Vec3, t float64) (float64, error)

// PrimitiveFunc2 evaluates density, velocity and pressure at position x and
// time t.
type PrimitiveFunc2 func(x Vec2, t float64) (rho float64, u Vec2, p float64, err error)

// PrimitiveFunc3 evaluates density, velocity and pressure at position x and
// time t.
type PrimitiveFunc3 func(x Vec3, t float64) (rho float64, u Vec3, p float64, err error)

// Value is the closed set of types a target may have. Adding a type means
// extending this union, the Kind constants and the kind table in resolver.go.
type Value interface {
	bool | int | float64 | string |
		Vec2 | Vec3 | Mat2 | Mat3 |
		ScalarFunc2 | ScalarFunc3 | PrimitiveFunc2 | PrimitiveFunc3
}

// Kind identifies one member of the Value type set.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
	KindVec2
	KindVec3
	KindMat2
	KindMat3
	KindScalarFunc2
	KindScalarFunc3
	KindPrimitiveFunc2
	KindPrimitiveFunc3

	kindCount
)

var kindNames = [kindCount]string{
	KindBool:           "bool",
	KindInt:            "int",
	KindFloat:          "float",
	KindString:         "string",
	KindVec2:           "vec2",
	KindVec3:           "vec3",
	KindMat2:           "mat2",
	KindMat3:           "mat3",
	KindScalarFunc2:    "scalar_func2",
	KindScalarFunc3:    "scalar_func3",
	KindPrimitiveFunc2: "primitive_func2",
	KindPrimitiveFunc3: "primitive_func3",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// IsFunction reports whether values of k are callables.
func (k Kind) IsFunction() bool {
	switch k {
	case KindScalarFunc2, KindScalarFunc3, KindPrimitiveFunc2, KindPrimitiveFunc3:
		return true
	default:
		return false
	}
}

// shape returns the dimensions of vector and matrix kinds. Scalars report
// (0, 0), vectors (n, 0) and matrices (rows, cols).
func (k Kind) shape() (int, int) {
	switch k {
	case KindVec2:
		return 2, 0
	case KindVec3:
		return 3, 0
	case KindMat2:
		return 2, 2
	case KindMat3:
		return 3, 3
	default:
		return 0, 0
	}
}

// Kinds returns every supported kind in resolution order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind converts a kind name into the corresponding Kind.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, candidate := range kindNames {
		if candidate == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// KindOf returns the Kind for T.
func KindOf[T Value]() Kind {
	var zero T
	switch any(zero).(type) {
	case bool:
		return KindBool
	case int:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case Vec2:
		return KindVec2
	case Vec3:
		return KindVec3
	case Mat2:
		return KindMat2
	case Mat3:
		return KindMat3
	case ScalarFunc2:
		return KindScalarFunc2
	case ScalarFunc3:
		return KindScalarFunc3
	case PrimitiveFunc2:
		return KindPrimitiveFunc2
	default:
		return KindPrimitiveFunc3
	}
}
