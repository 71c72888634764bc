package watch

import (
	"cmp"
	"slices"

	"github.com/nateberkopec/jobalert/internal/gateway"
)

// Watermark is the highest notification id displayed so far. The zero value
// is unset.
type Watermark struct {
	value int64
	set   bool
}

// Value returns the watermark and whether it has been set.
func (w Watermark) Value() (int64, bool) {
	return w.value, w.set
}

// Fresh returns the items strictly above the watermark, in ascending id
// order. An unset watermark lets everything through. Duplicate ids within a
// batch are collapsed.
func (w Watermark) Fresh(items []gateway.Item) []gateway.Item {
	out := make([]gateway.Item, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if w.set && item.ID <= w.value {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	slices.SortFunc(out, func(a, b gateway.Item) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Advance raises the watermark to the highest id in the batch. Empty batches
// and batches below the current value leave it untouched.
func (w *Watermark) Advance(items []gateway.Item) bool {
	if len(items) == 0 {
		return false
	}
	highest := items[0].ID
	for _, item := range items[1:] {
		highest = max(highest, item.ID)
	}
	if w.set && highest <= w.value {
		return false
	}
	w.value = highest
	w.set = true
	return true
}
