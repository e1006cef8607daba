package model

import "time"

// Priority tiers. 1 is the most urgent, 5 the least.
const (
	PriorityHighest = 1
	PriorityDefault = 3
	PriorityLowest  = 5
)

// Todo is a single to-do item. DisplayOrder controls manual ordering and is
// assigned monotonically at creation; it only changes through Reorder or an
// explicit update.
type Todo struct {
	ID           int64      `json:"id,string"`
	Text         string     `json:"text"`
	Completed    bool       `json:"completed"`
	Starred      bool       `json:"starred"`
	Priority     int        `json:"priority"`
	Tags         []string   `json:"tags"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	DisplayOrder int64      `json:"displayOrder"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// HasAnyTag reports whether the todo carries at least one of the given tags.
// An empty filter matches everything.
func (t *Todo) HasAnyTag(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		for _, have := range t.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}
