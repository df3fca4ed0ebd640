package models

import (
	"encoding/json"
	"fmt"
)

// ActivityReport is the document written by the activity collector.
//
//	todos:       project name -> list name    -> [[content, due_on], ...]
//	discussions: project name -> thread title -> [[content, updated_at], ...]
type ActivityReport struct {
	Todos       map[string]map[string][]TodoEntry    `json:"todos"`
	Discussions map[string]map[string][]CommentEntry `json:"discussions"`
}

// NewActivityReport returns an empty report with both top-level maps allocated.
func NewActivityReport() *ActivityReport {
	return &ActivityReport{
		Todos:       make(map[string]map[string][]TodoEntry),
		Discussions: make(map[string]map[string][]CommentEntry),
	}
}

// TodoEntry is serialized as a two-element array: [content, due_on].
type TodoEntry struct {
	Content string
	DueOn   *string
}

// MarshalJSON implements json.Marshaler.
func (e TodoEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Content, e.DueOn})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *TodoEntry) UnmarshalJSON(b []byte) error {
	var pair []*string
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 || pair[0] == nil {
		return fmt.Errorf("todo entry must be [content, due_on], got %s", b)
	}
	e.Content = *pair[0]
	e.DueOn = pair[1]
	return nil
}

// CommentEntry is serialized as a two-element array: [content, updated_at].
type CommentEntry struct {
	Content   string
	UpdatedAt string
}

// MarshalJSON implements json.Marshaler.
func (e CommentEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.Content, e.UpdatedAt})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *CommentEntry) UnmarshalJSON(b []byte) error {
	var pair []string
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("comment entry must be [content, updated_at], got %s", b)
	}
	e.Content, e.UpdatedAt = pair[0], pair[1]
	return nil
}
