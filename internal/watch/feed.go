package watch

import (
	"slices"
	"time"

	"github.com/nateberkopec/jobalert/internal/gateway"
)

// Feed keeps the catalog of alerts that the UI renders. Entries live in
// memory only and disappear with the client instance.
type Feed struct {
	activeOrder    []int64
	dismissedOrder []int64
	active         map[int64]*Entry
	dismissed      map[int64]*Entry
	nextLocal      int64
}

// Entry records an alert along with when it was shown.
type Entry struct {
	Item        gateway.Item
	Manual      bool
	Read        bool
	ShownAt     time.Time
	DismissedAt time.Time
}

// Key identifies the entry in the feed. Manual alerts carry no server id and
// get negative keys.
func (e *Entry) Key() int64 {
	return e.Item.ID
}

// NewFeed creates a feed with no entries.
func NewFeed() *Feed {
	return &Feed{
		active:    make(map[int64]*Entry),
		dismissed: make(map[int64]*Entry),
	}
}

// Add stores a displayed alert. It reports whether the entry is new to the
// feed; re-adding an existing id refreshes its content in place.
func (f *Feed) Add(item gateway.Item, shownAt time.Time) bool {
	if existing, ok := f.active[item.ID]; ok {
		existing.Item = item
		return false
	}

	if existing, ok := f.dismissed[item.ID]; ok {
		existing.Item = item
		return false
	}

	f.active[item.ID] = &Entry{Item: item, ShownAt: shownAt}
	f.activeOrder = prependUnique(f.activeOrder, item.ID)
	return true
}

// AddManual stores a locally triggered alert under a synthetic key.
func (f *Feed) AddManual(item gateway.Item, shownAt time.Time) int64 {
	f.nextLocal--
	item.ID = f.nextLocal
	f.active[item.ID] = &Entry{Item: item, Manual: true, ShownAt: shownAt}
	f.activeOrder = prependUnique(f.activeOrder, item.ID)
	return item.ID
}

// MarkRead flags an entry as read. It returns false for unknown keys.
func (f *Feed) MarkRead(key int64) bool {
	if entry, ok := f.active[key]; ok {
		entry.Read = true
		return true
	}
	if entry, ok := f.dismissed[key]; ok {
		entry.Read = true
		return true
	}
	return false
}

// Dismiss moves an entry out of the active list.
func (f *Feed) Dismiss(key int64) bool {
	entry, ok := f.active[key]
	if !ok {
		return false
	}
	delete(f.active, key)
	f.activeOrder = removeID(f.activeOrder, key)
	entry.DismissedAt = time.Now()
	f.dismissed[key] = entry
	f.dismissedOrder = prependUnique(f.dismissedOrder, key)
	return true
}

// Restore moves an entry back to the active list.
func (f *Feed) Restore(key int64) bool {
	entry, ok := f.dismissed[key]
	if !ok {
		return false
	}
	delete(f.dismissed, key)
	f.dismissedOrder = removeID(f.dismissedOrder, key)
	entry.DismissedAt = time.Time{}
	f.active[key] = entry
	f.activeOrder = prependUnique(f.activeOrder, key)
	return true
}

// Visible returns the entries in display order, newest first.
func (f *Feed) Visible(showDismissed bool) []*Entry {
	if showDismissed {
		return collect(f.dismissedOrder, f.dismissed)
	}
	return collect(f.activeOrder, f.active)
}

// Keys returns the keys in display order.
func (f *Feed) Keys(showDismissed bool) []int64 {
	if showDismissed {
		return slices.Clone(f.dismissedOrder)
	}
	return slices.Clone(f.activeOrder)
}

// LenActive exposes the current active count.
func (f *Feed) LenActive() int {
	return len(f.activeOrder)
}

// LenDismissed exposes the dismissed count.
func (f *Feed) LenDismissed() int {
	return len(f.dismissedOrder)
}

func collect(order []int64, lookup map[int64]*Entry) []*Entry {
	items := make([]*Entry, 0, len(order))
	for _, key := range order {
		if entry, ok := lookup[key]; ok {
			items = append(items, entry)
		}
	}
	return items
}

func prependUnique(items []int64, id int64) []int64 {
	items = removeID(items, id)
	return append([]int64{id}, items...)
}

func removeID(items []int64, id int64) []int64 {
	out := items[:0]
	for _, existing := range items {
		if existing == id {
			continue
		}
		out = append(out, existing)
	}
	return out
}
