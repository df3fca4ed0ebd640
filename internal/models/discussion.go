package models

// Topicable types the comment endpoint knows how to address.
const (
	TopicableMessage       = "Message"
	TopicableTodo          = "Todo"
	TopicableUpload        = "Upload"
	TopicableCalendarEvent = "CalendarEvent"
	TopicableDocument      = "Document"
)

// Topic is a discussion thread in a project's topic list.
type Topic struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	UpdatedAt string     `json:"updated_at"`
	Topicable *Topicable `json:"topicable,omitempty"`
}

// Topicable is the resource a topic wraps (message, to-do, upload, ...).
type Topicable struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// Commentable is any payload carrying a comments array.
type Commentable struct {
	Comments []Comment `json:"comments"`
}

// Comment is a single comment on a thread.
type Comment struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	UpdatedAt string `json:"updated_at"`
}
