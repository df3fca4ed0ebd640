package models

// Project is a project as returned by the project list endpoint.
type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TodoList is a to-do list scoped to a project.
type TodoList struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TodoListDetail is the to-do list detail payload; only remaining items are collected.
type TodoListDetail struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Todos struct {
		Remaining []Todo `json:"remaining"`
	} `json:"todos"`
}

// Todo is a single to-do item. DueOn is nil when the item has no due date.
type Todo struct {
	ID      int64   `json:"id"`
	Content string  `json:"content"`
	DueOn   *string `json:"due_on"`
}
