package inputs

import "fmt"

// Source answers whether it holds a value for a typed target. A missing value
// is reported as (nil, false, nil); errors are reserved for data that exists
// but cannot be converted to the requested kind.
type Source interface {
	Name() string
	Lookup(kind Kind, name string) (any, bool, error)
}

// TryGet queries src for name as a T.
func TryGet[T Value](src Source, name string) (T, bool, error) {
	var zero T
	if src == nil {
		return zero, false, nil
	}
	kind := KindOf[T]()
	value, found, err := src.Lookup(kind, name)
	if err != nil || !found {
		return zero, false, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false, wrapTargetError(kind, name, src.Name(),
			fmt.Errorf("%w: source returned %T", ErrTypeMismatch, value))
	}
	return typed, true, nil
}
