package diag

import "sort"

// Bag accumulates diagnostics for one analysis pass. Partial bags from
// parallel per-package analysis are merged; Sort makes the final order
// deterministic regardless of merge order.
type Bag struct {
	items []Diagnostic
}

func NewBag() *Bag {
	return &Bag{}
}

func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Merge appends every diagnostic from other.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

func (b *Bag) Len() int { return len(b.items) }

// HasErrors reports whether any diagnostic is error severity.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= Error {
			return true
		}
	}
	return false
}

// Items returns the underlying slice. Callers must not modify it.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Sort orders by file, offset, severity (descending), then code.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Pos.Filename != dj.Pos.Filename {
			return di.Pos.Filename < dj.Pos.Filename
		}
		if di.Pos.Offset != dj.Pos.Offset {
			return di.Pos.Offset < dj.Pos.Offset
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}

// Dedup keeps the first occurrence of each (code, message) pair. A model
// declared across several fragments produces the same finding once per
// fragment; after Sort, "first" is the earliest declaration location.
func (b *Bag) Dedup() {
	seen := make(map[string]bool, len(b.items))
	kept := b.items[:0]
	for _, d := range b.items {
		key := string(d.Code) + "\x00" + d.Message()
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, d)
	}
	b.items = kept
}
