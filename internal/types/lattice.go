package types

// Join computes the least upper bound of two types in the monotone
// lattice of spec §4.2: bottom → specific → union → Dynamic. Inference's
// transfer function calls Join whenever two control-flow paths (e.g. an
// if/else, or successive refinements of the same SSA value across
// iterations of the fixed-point loop) produce different types for what
// must be treated as a single static type.
func Join(a, b *Type) *Type {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Tag == TagBottom {
		return b
	}
	if b.Tag == TagBottom {
		return a
	}
	if a.Tag == TagDynamic || b.Tag == TagDynamic {
		return Dynamic
	}
	if a.Equal(b) {
		return a
	}

	// Structural join for matching container tags with joinable payloads;
	// anything else widens to a Union (and a Union containing enough
	// distinct members eventually widens further only if something joins
	// it with Dynamic — unions themselves are a fixed point, not a widen
	// step, per spec's lattice shape).
	if a.Tag == TagList && b.Tag == TagList {
		return List(Join(a.Elems[0], b.Elems[0]))
	}
	if a.Tag == TagSet && b.Tag == TagSet {
		return Set(Join(a.Elems[0], b.Elems[0]))
	}
	if a.Tag == TagTuple && b.Tag == TagTuple && len(a.Elems) == len(b.Elems) {
		elems := make([]*Type, len(a.Elems))
		for i := range elems {
			elems[i] = Join(a.Elems[i], b.Elems[i])
		}
		return Tuple(elems...)
	}
	if a.Tag == TagMapping && b.Tag == TagMapping {
		return joinMapping(a, b)
	}

	return Union(a, b)
}

// joinMapping joins two mapping types. If either side lacks a shape, the
// result has no shape — this is the "escape through unknown calls
// dissolves the shape" rule of spec §4.2 applied at join time: a
// control-flow merge between a shaped and an unshaped mapping is itself
// a kind of escape. Two shapes merge field by field: a key on both sides
// joins its value types, a key on one side only becomes Sometimes.
func joinMapping(a, b *Type) *Type {
	if a.Shape == nil || b.Shape == nil {
		return Mapping(Join(a.Key, b.Key), Join(a.Value, b.Value), nil)
	}
	merged := &Shape{}
	akeys := make(map[string]Field, len(a.Shape.Fields))
	for _, f := range a.Shape.Fields {
		akeys[f.Key] = f
	}
	bkeys := make(map[string]Field, len(b.Shape.Fields))
	for _, f := range b.Shape.Fields {
		bkeys[f.Key] = f
	}
	allKeys := make(map[string]bool)
	for k := range akeys {
		allKeys[k] = true
	}
	for k := range bkeys {
		allKeys[k] = true
	}
	for k := range allKeys {
		af, aok := akeys[k]
		bf, bok := bkeys[k]
		switch {
		case aok && bok:
			merged.Fields = append(merged.Fields, Field{Key: k, Value: Join(af.Value, bf.Value), Presence: joinPresence(af.Presence, bf.Presence)})
		case aok && !bok:
			merged.Fields = append(merged.Fields, Field{Key: k, Value: af.Value, Presence: Sometimes})
		case bok && !aok:
			merged.Fields = append(merged.Fields, Field{Key: k, Value: bf.Value, Presence: Sometimes})
		}
	}
	return Mapping(a.Key, a.Value, merged)
}

func joinPresence(a, b Presence) Presence {
	if a == b {
		return a
	}
	return Sometimes
}

// Widen returns Dynamic. The transfer function for an operation with no
// proven invariant widens its result toward Dynamic rather than guessing
// (spec §4.2: "if no invariant proves the specific case, the result
// widens toward Dynamic").
func Widen(*Type) *Type { return Dynamic }

// IsSubtype reports whether sub is assignable where super is expected:
// identical types, anything is a subtype of Dynamic, a member of a union
// is a subtype of that union, and a shaped mapping with a superset of
// required keys is a subtype of a mapping requiring fewer.
func IsSubtype(sub, super *Type) bool {
	if super.Tag == TagDynamic {
		return true
	}
	if sub.Equal(super) {
		return true
	}
	if super.Tag == TagUnion {
		for _, m := range super.Members {
			if IsSubtype(sub, m) {
				return true
			}
		}
		return false
	}
	if sub.Tag == TagMapping && super.Tag == TagMapping && sub.Shape != nil && super.Shape != nil {
		for _, sf := range super.Shape.Fields {
			if sf.Presence == Never {
				continue
			}
			af, ok := sub.Shape.Lookup(sf.Key)
			if !ok || !IsSubtype(af.Value, sf.Value) {
				return false
			}
		}
		return true
	}
	return false
}
