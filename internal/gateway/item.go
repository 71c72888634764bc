package gateway

import (
	"strings"
	"time"
)

// DefaultLimit is the number of unread notifications fetched per poll.
const DefaultLimit = 5

// Category classifies a notification. It drives the icon and urgency of the
// rendered alert.
type Category string

const (
	CategoryCritical Category = "critical"
	CategoryUrgent   Category = "urgent"
	CategoryNewJob   Category = "new_job"
	CategoryDefault  Category = "default"
)

// ParseCategory normalizes a wire type. Unknown values map to CategoryDefault.
func ParseCategory(raw string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryCritical:
		return CategoryCritical
	case CategoryUrgent:
		return CategoryUrgent
	case CategoryNewJob:
		return CategoryNewJob
	default:
		return CategoryDefault
	}
}

// Item is a single unread notification as served by the tracker.
type Item struct {
	ID        int64
	Title     string
	Body      string
	Category  Category
	JobID     *int64
	Company   string
	Position  string
	Deadline  string
	CreatedAt time.Time
}

// Batch is the result of one FetchUnread call.
type Batch struct {
	Items       []Item
	UnreadCount int
}
