package query

import "lipidlibrarian/pkg/models"

// Dedup folds lipids with the same default name into one record each,
// keeping first-seen order.
func Dedup(lipids []*models.Lipid) []*models.Lipid {
	var out []*models.Lipid
	for _, l := range lipids {
		out = models.AppendLipid(out, l)
	}
	return out
}

// Consolidate picks the granularity to report for a query at target.
//
// Records at exactly the target level win; failing that, records more
// specific than the target; failing that, everything. The kept records are
// deduplicated and every discarded record is merged into a kept record with
// the same name or dropped. An indeterminate or unknown target only
// deduplicates.
func Consolidate(lipids []*models.Lipid, target models.Level) []*models.Lipid {
	if target == models.LevelUnknown {
		return Dedup(lipids)
	}

	var exact, higher, rest []*models.Lipid
	for _, l := range lipids {
		switch lvl := l.Level(); {
		case lvl == target:
			exact = append(exact, l)
		case lvl > target:
			higher = append(higher, l)
		default:
			rest = append(rest, l)
		}
	}

	var kept, discarded []*models.Lipid
	switch {
	case len(exact) > 0:
		kept = exact
		discarded = append(higher, rest...)
	case len(higher) > 0:
		kept = higher
		discarded = rest
	default:
		kept = lipids
	}

	out := Dedup(kept)
	for _, l := range discarded {
		models.MergeInto(out, l)
	}
	return out
}
