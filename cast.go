package typesafe

// CastTo builds a new instance of target holding deep copies of every field
// both classes declare. Each copied value goes through target's oracle, so
// a field whose declared types disagree fails with FieldTypeError. The
// result never shares storage with r.
func (r *Record) CastTo(target *Class) (*Record, error) {
	out, err := New(target)
	if err != nil {
		return nil, err
	}
	for _, f := range target.fields {
		if _, shared := r.class.index[f.Name]; !shared {
			continue
		}
		v := r.values[f.Name]
		if v == nil {
			continue
		}
		if err := out.Set(f.Name, copyValue(v)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
