package specification

// Specification is a predicate over candidates of type T.
type Specification[T any] interface {
	// IsSatisfiedBy checks if the specification is satisfied by the given candidate
	IsSatisfiedBy(candidate T) bool
}

// Func adapts a plain predicate to a Specification.
type Func[T any] func(T) bool

// IsSatisfiedBy calls f.
func (f Func[T]) IsSatisfiedBy(candidate T) bool {
	return f(candidate)
}

// And creates an AND specification. An empty And is satisfied by everything.
func And[T any](specs ...Specification[T]) Specification[T] {
	return andSpecification[T](specs)
}

// Or creates an OR specification. An empty Or is satisfied by nothing.
func Or[T any](specs ...Specification[T]) Specification[T] {
	return orSpecification[T](specs)
}

// Not creates a NOT specification
func Not[T any](spec Specification[T]) Specification[T] {
	return notSpecification[T]{spec: spec}
}

// Filter returns the candidates satisfying spec, in input order, in a new slice.
func Filter[T any](candidates []T, spec Specification[T]) []T {
	out := make([]T, 0, len(candidates))
	for _, c := range candidates {
		if spec.IsSatisfiedBy(c) {
			out = append(out, c)
		}
	}
	return out
}

// andSpecification represents an AND combination of specifications
type andSpecification[T any] []Specification[T]

func (s andSpecification[T]) IsSatisfiedBy(candidate T) bool {
	for _, spec := range s {
		if !spec.IsSatisfiedBy(candidate) {
			return false
		}
	}
	return true
}

// orSpecification represents an OR combination of specifications
type orSpecification[T any] []Specification[T]

func (s orSpecification[T]) IsSatisfiedBy(candidate T) bool {
	for _, spec := range s {
		if spec.IsSatisfiedBy(candidate) {
			return true
		}
	}
	return false
}

// notSpecification represents a NOT specification
type notSpecification[T any] struct {
	spec Specification[T]
}

func (s notSpecification[T]) IsSatisfiedBy(candidate T) bool {
	return !s.spec.IsSatisfiedBy(candidate)
}
