// Package report accumulates artifact sizes per category and derives
// percentages and remaining budget from the running totals.
package report

import (
	"sort"

	"github.com/dtnitsch/perf-budget/pkg/budget"
	"github.com/dtnitsch/perf-budget/pkg/classifier"
)

// FileEntry is one recorded artifact. Repeated paths are separate entries.
type FileEntry struct {
	File string `json:"file" yaml:"file"`
	Size int64  `json:"size" yaml:"size"`
}

// FileType is the bucket for one category.
type FileType struct {
	Total      int64       `json:"total" yaml:"total"`
	Files      []FileEntry `json:"files" yaml:"files"`
	Percentage int         `json:"percentage" yaml:"percentage"`
}

// Report is the cumulative state of one run and the document that gets persisted.
type Report struct {
	FileTypes       map[string]*FileType    `json:"fileTypes" yaml:"fileTypes"`
	TotalSizes      budget.Totals           `json:"totalSizes" yaml:"totalSizes"`
	Budget          *budget.Budget          `json:"budget,omitempty" yaml:"budget,omitempty"`
	RemainingBudget *budget.RemainingBudget `json:"remainingBudget,omitempty" yaml:"remainingBudget,omitempty"`
}

// New returns an empty report.
func New() *Report {
	return &Report{FileTypes: make(map[string]*FileType)}
}

// SetBudget attaches the resolved budget. Only the first call has any effect.
func (r *Report) SetBudget(b budget.Budget) {
	if r.Budget != nil {
		return
	}
	r.Budget = &b
	r.recompute()
}

// Record adds one artifact of size bytes to its category bucket and the totals.
func (r *Report) Record(category classifier.Category, size int64, path string) {
	ft, ok := r.FileTypes[category]
	if !ok {
		ft = &FileType{Files: []FileEntry{}}
		r.FileTypes[category] = ft
	}
	ft.Total += size
	ft.Files = append(ft.Files, FileEntry{File: path, Size: size})

	r.TotalSizes.TotalSize += size
	switch category {
	case classifier.Stylesheet:
		r.TotalSizes.CSS += size
	case classifier.Image:
		r.TotalSizes.Images += size
	case classifier.Script:
		r.TotalSizes.JS += size
	case classifier.Font:
		r.TotalSizes.Fonts += size
	}

	r.recompute()
}

// recompute refreshes the derived fields after the totals change.
func (r *Report) recompute() {
	for _, ft := range r.FileTypes {
		ft.Percentage = Percentage(ft.Total, r.TotalSizes.TotalSize)
	}
	if r.Budget != nil {
		rem := budget.Remaining(*r.Budget, r.TotalSizes)
		r.RemainingBudget = &rem
	}
}

// Percentage is part/whole as a whole percent, rounding halves up.
// Each category is rounded on its own, so a report's percentages may sum to 99 or 101.
func Percentage(part, whole int64) int {
	if whole <= 0 {
		return 0
	}
	return int((200*part + whole) / (2 * whole))
}

// Categories returns the category keys in sorted order.
func (r *Report) Categories() []string {
	keys := make([]string, 0, len(r.FileTypes))
	for k := range r.FileTypes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FileCount is the number of recorded artifacts across all categories.
func (r *Report) FileCount() int {
	n := 0
	for _, ft := range r.FileTypes {
		n += len(ft.Files)
	}
	return n
}

// Snapshot returns a deep copy that is safe to hand to another goroutine.
func (r *Report) Snapshot() *Report {
	cp := &Report{
		FileTypes:  make(map[string]*FileType, len(r.FileTypes)),
		TotalSizes: r.TotalSizes,
	}
	for k, ft := range r.FileTypes {
		files := make([]FileEntry, len(ft.Files))
		copy(files, ft.Files)
		cp.FileTypes[k] = &FileType{Total: ft.Total, Files: files, Percentage: ft.Percentage}
	}
	if r.Budget != nil {
		b := *r.Budget
		cp.Budget = &b
	}
	if r.RemainingBudget != nil {
		rem := *r.RemainingBudget
		cp.RemainingBudget = &rem
	}
	return cp
}
