package model

// StatusChange records a violation whose status moved between two lookups,
// typically from unpaid to paid.
type StatusChange struct {
	Record         ViolationRecord `json:"record"`
	PreviousStatus string          `json:"previousStatus"`
}

// LookupDiff describes how the violations on record changed between two
// lookups of the same plate.
type LookupDiff struct {
	Plate         string            `json:"plate"`
	PreviousID    string            `json:"previousId"`
	CurrentID     string            `json:"currentId"`
	New           []ViolationRecord `json:"new"`
	Resolved      []ViolationRecord `json:"resolved"`
	StatusChanged []StatusChange    `json:"statusChanged"`
}

// CompareLookups matches records by fingerprint. Lookups that failed carry no
// trustworthy data, so a failed side is treated as unknown rather than empty:
// nothing is reported as new or resolved against it.
func CompareLookups(previous, current *Lookup) *LookupDiff {
	diff := &LookupDiff{
		New:           make([]ViolationRecord, 0),
		Resolved:      make([]ViolationRecord, 0),
		StatusChanged: make([]StatusChange, 0),
	}
	if current != nil {
		diff.Plate = current.Plate
		diff.CurrentID = current.ID
	}
	if previous != nil {
		diff.PreviousID = previous.ID
		if diff.Plate == "" {
			diff.Plate = previous.Plate
		}
	}
	if previous == nil || current == nil || previous.Envelope.Error || current.Envelope.Error {
		return diff
	}

	before := indexByFingerprint(previous.Envelope.Data)
	after := indexByFingerprint(current.Envelope.Data)

	for _, r := range current.Envelope.Data {
		old, ok := before[r.Fingerprint()]
		if !ok {
			diff.New = append(diff.New, r)
			continue
		}
		if old.Status != r.Status {
			diff.StatusChanged = append(diff.StatusChanged, StatusChange{Record: r, PreviousStatus: old.Status})
		}
	}
	for _, r := range previous.Envelope.Data {
		if _, ok := after[r.Fingerprint()]; !ok {
			diff.Resolved = append(diff.Resolved, r)
		}
	}
	return diff
}

// HasChanges reports whether anything differs between the two lookups.
func (d *LookupDiff) HasChanges() bool {
	return len(d.New) > 0 || len(d.Resolved) > 0 || len(d.StatusChanged) > 0
}

func indexByFingerprint(records []ViolationRecord) map[string]ViolationRecord {
	m := make(map[string]ViolationRecord, len(records))
	for _, r := range records {
		m[r.Fingerprint()] = r
	}
	return m
}
