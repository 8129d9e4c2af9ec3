package profile

// Merge unifies two descriptors describing the same tree position into
// one whose counts are the sum of the inputs. Type disagreement is never
// an error: conflicting tags form a union. The operation is commutative
// and associative, and a pure function of its inputs — neither argument
// is mutated, enabling sequential or parallel reduction.
func Merge(a, b *Descriptor) *Descriptor {
	return merge(a.Clone(), b.Clone())
}

// merge is the destructive form: it may consume both inputs. Callers
// must own them exclusively.
func merge(a, b *Descriptor) *Descriptor {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	switch {
	case a.Tag == TagUnion && b.Tag == TagUnion:
		for tag, m := range b.Members {
			a.addMember(tag, m)
		}
		a.Count += b.Count
		return a

	case a.Tag == TagUnion:
		a.addMember(b.Tag, b)
		a.Count += b.Count
		return a

	case b.Tag == TagUnion:
		b.addMember(a.Tag, a)
		b.Count += a.Count
		return b

	case a.Tag == b.Tag:
		return mergeSame(a, b)

	default:
		// Shape clash (object vs scalar, array vs object, ...): the
		// alternatives stay opaque union members.
		return &Descriptor{
			Tag:   TagUnion,
			Count: a.Count + b.Count,
			Members: map[Tag]*Descriptor{
				a.Tag: a,
				b.Tag: b,
			},
		}
	}
}

// addMember folds a non-union descriptor into the union's member set:
// added if its tag is absent, merged into the existing member otherwise.
func (d *Descriptor) addMember(tag Tag, m *Descriptor) {
	if d.Members == nil {
		d.Members = make(map[Tag]*Descriptor, 2)
	}
	if existing, ok := d.Members[tag]; ok {
		d.Members[tag] = mergeSame(existing, m)
	} else {
		d.Members[tag] = m
	}
}

// mergeSame combines two descriptors carrying the same tag.
func mergeSame(a, b *Descriptor) *Descriptor {
	a.Count += b.Count
	a.Truncated = a.Truncated || b.Truncated

	switch a.Tag {
	case TagObject:
		// Field map union. A field present on one side only keeps its
		// descriptor and presence count unmodified; the shortfall against
		// the enclosing count is what produces optionality at finalize.
		if a.Fields == nil {
			a.Fields = b.Fields
			break
		}
		for name, bf := range b.Fields {
			if af, ok := a.Fields[name]; ok {
				af.Schema = merge(af.Schema, bf.Schema)
				af.Presence += bf.Presence
			} else {
				a.Fields[name] = bf
			}
		}

	case TagArray:
		a.Elem = merge(a.Elem, b.Elem)
		a.Lengths = mergeLengths(a.Lengths, b.Lengths)

	default:
		a.mergeValues(b)
	}
	return a
}

func mergeLengths(a, b *LengthStats) *LengthStats {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.Min < a.Min {
		a.Min = b.Min
	}
	if b.Max > a.Max {
		a.Max = b.Max
	}
	return a
}

// mergeValues sums per-value histograms. A missing histogram on either
// side, or crossing DefaultValueLimit distinct values, collapses the
// result; counts are unaffected.
func (d *Descriptor) mergeValues(b *Descriptor) {
	if !trackable(d.Tag) {
		return
	}
	if d.Values == nil || b.Values == nil {
		d.Values = nil
		d.Unique = 0
		return
	}
	for v, n := range b.Values {
		d.Values[v] += n
	}
	if len(d.Values) > DefaultValueLimit {
		d.Values = nil
		d.Unique = 0
		return
	}
	d.Unique = len(d.Values)
}
