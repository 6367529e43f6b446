package report

import (
	"sort"
)

// RankedFile is a recorded artifact together with its category.
type RankedFile struct {
	Category string
	FileEntry
}

// Largest returns the n largest recorded artifacts, biggest first.
// Equal sizes keep category order, then arrival order within a category.
func (r *Report) Largest(n int) []RankedFile {
	if n <= 0 {
		return nil
	}

	var ss []RankedFile
	for _, cat := range r.Categories() {
		for _, f := range r.FileTypes[cat].Files {
			ss = append(ss, RankedFile{Category: cat, FileEntry: f})
		}
	}

	sort.SliceStable(ss, func(i, j int) bool {
		return ss[i].Size > ss[j].Size
	})

	limit := n
	if len(ss) < n {
		limit = len(ss)
	}
	return ss[:limit]
}
