package proposal

// ApprovedList is the set of approved records for one dataset
type ApprovedList []ApprovedRecord

// Find returns the record for identity, if approved
func (l ApprovedList) Find(identity string) (ApprovedRecord, bool) {
	for _, rec := range l {
		if SameIdentity(rec.ProjectIdentity, identity) {
			return rec, true
		}
	}
	return ApprovedRecord{}, false
}

// Has reports whether identity is approved
func (l ApprovedList) Has(identity string) bool {
	_, ok := l.Find(identity)
	return ok
}

// Without returns the list minus every record matching identity
func (l ApprovedList) Without(identity string) ApprovedList {
	out := make(ApprovedList, 0, len(l))
	for _, rec := range l {
		if !SameIdentity(rec.ProjectIdentity, identity) {
			out = append(out, rec)
		}
	}
	return out
}

// Toggle removes rec's identity when present, otherwise appends rec.
// It reports whether the identity is approved afterwards.
func (l ApprovedList) Toggle(rec ApprovedRecord) (ApprovedList, bool) {
	if l.Has(rec.ProjectIdentity) {
		return l.Without(rec.ProjectIdentity), false
	}
	out := append(append(ApprovedList(nil), l...), rec)
	return out, true
}
