package dto

import "time"

type CreateTodoRequest struct {
	Text     string     `json:"text" binding:"required"`
	Starred  *bool      `json:"starred"`
	Priority *int       `json:"priority"`
	Tags     []string   `json:"tags"`
	DueDate  *time.Time `json:"dueDate"`
}

// UpdateTodoRequest is a partial update: absent fields mean "no change".
type UpdateTodoRequest struct {
	Text      *string    `json:"text"`
	Completed *bool      `json:"completed"`
	Starred   *bool      `json:"starred"`
	Priority  *int       `json:"priority"`
	Tags      *[]string  `json:"tags"`
	DueDate   *time.Time `json:"dueDate"`
}

type ToggleStarredRequest struct {
	Starred *bool `json:"starred" binding:"required"`
}

type SetPriorityRequest struct {
	Priority *int `json:"priority" binding:"required"`
}

type SetTagsRequest struct {
	Tags *[]string `json:"tags" binding:"required"`
}

// ReorderRequest carries ids in the desired display order. Ids are decimal
// strings on the wire (int64 ids are not representable as JSON numbers in
// every client).
type ReorderRequest struct {
	OrderedIDs *[]string `json:"orderedIds" binding:"required"`
}
