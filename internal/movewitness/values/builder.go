package values

// RefResolver looks up the Reference a container pointer (and, for a
// specific element, its index) was last recorded under. The pointer index
// (C3) implements this for the recorder; tests can supply a plain map.
type RefResolver interface {
	Resolve(pointer uintptr, index *int) (Reference, bool)
}

// MapRefResolver is a RefResolver backed by a plain reverse-pointer map,
// used directly by tests and by any caller that already has the map in
// hand rather than a full pointer index.
type MapRefResolver map[uintptr]Reference

func (m MapRefResolver) Resolve(pointer uintptr, index *int) (Reference, bool) {
	ref, ok := m[pointer]
	if !ok {
		return Reference{}, false
	}
	if index != nil {
		// The container's own item stream is [header, elem0, elem1, ...]:
		// element i sits at item position i+1, so ref_child wants idx+1.
		ref = ref.RefChild(*index + 1)
	}
	return ref, true
}

// ReferenceValue is implemented by runtime values that are references
// rather than plain data. The recorder uses this to decide which of
// BuildTracedValue's two paths a local's value takes.
type ReferenceValue interface {
	Visitable
	IsReference() bool
}

// BuildTracedValue is the TracedValueBuilder equivalent: it inspects v and
// either flattens it (plain value) or resolves it to a Reference and wraps
// that Reference as a single-item TracedValue (reference value). The
// wrapped form lets a recorder always call this function uniformly and get
// back something it can append to an items stream without a type switch.
func BuildTracedValue(v ReferenceValue, resolver RefResolver) TracedValue {
	if !v.IsReference() {
		return Flatten(v)
	}
	pointer, index := Resolve(v)
	ref, ok := resolver.Resolve(pointer, index)
	if !ok {
		panic("values: reference value resolved to an unknown container pointer")
	}
	return TracedValue{
		Items: ValueItems{{
			SubIndex: SubIndex{},
			Header:   false,
			Value:    SimpleFromReference(ref),
		}},
	}
}
