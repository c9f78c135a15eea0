package entity

// LookupStatus tells a caller which branch of a Lookup is populated.
type LookupStatus int

const (
	LookupFound LookupStatus = iota
	LookupNotFound
	LookupBackendError
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupNotFound:
		return "not_found"
	case LookupBackendError:
		return "backend_error"
	default:
		return "unknown"
	}
}

// Lookup is the result of loading something that may legitimately be absent.
// Callers switch on Status instead of inspecting error values.
type Lookup[T any] struct {
	Status LookupStatus
	Value  T
	Err    error
}

func Found[T any](v T) Lookup[T] {
	return Lookup[T]{Status: LookupFound, Value: v}
}

func NotFound[T any]() Lookup[T] {
	return Lookup[T]{Status: LookupNotFound}
}

func BackendError[T any](err error) Lookup[T] {
	return Lookup[T]{Status: LookupBackendError, Err: err}
}
