package artifact

// Reconcile decides whether a submission replaces an existing pending entry
// or lands as a new one. The scan honors collection order, so when several
// pending artifacts share a normalized name the earliest-inserted one wins.
// A blank name never matches; those submissions always stand alone.
func Reconcile(existing []Artifact, name, generatedID string) (id string, replaced bool) {
	key := NormalizeName(name)
	if key == "" {
		return generatedID, false
	}
	for _, a := range existing {
		if a.State == StatePending && NormalizeName(a.Name) == key {
			return a.ID, true
		}
	}
	return generatedID, false
}
