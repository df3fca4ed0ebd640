package basecamp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/benvon/dashcollect/internal/models"
)

const projectsResource = "projects.json"

// topicableCollections maps a topic's wrapped resource type to its URL collection.
var topicableCollections = map[string]string{
	models.TopicableMessage:       "messages",
	models.TopicableTodo:          "todos",
	models.TopicableUpload:        "uploads",
	models.TopicableCalendarEvent: "calendar_events",
	models.TopicableDocument:      "documents",
}

// Endpoints derives every API URL from the project list URL.
type Endpoints struct {
	base string
}

// NewEndpoints validates a projects URL of the form https://<host>/<account>/api/v1/projects.json.
func NewEndpoints(projectsURL string) (Endpoints, error) {
	u, err := url.Parse(projectsURL)
	if err != nil {
		return Endpoints{}, fmt.Errorf("invalid projects URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Endpoints{}, fmt.Errorf("projects URL must be http(s), got %q", u.Scheme)
	}
	if u.RawQuery != "" || u.Fragment != "" || !strings.HasSuffix(u.Path, "/"+projectsResource) {
		return Endpoints{}, fmt.Errorf("projects URL must end in /%s: %s", projectsResource, projectsURL)
	}
	u.User = nil
	return Endpoints{base: strings.TrimSuffix(u.String(), projectsResource)}, nil
}

// Projects is the project list.
func (e Endpoints) Projects() string {
	return e.base + projectsResource
}

// TodoLists is the to-do list index of a project.
func (e Endpoints) TodoLists(projectID int64) string {
	return fmt.Sprintf("%sprojects/%d/todolists.json", e.base, projectID)
}

// TodoList is a single to-do list with its items.
func (e Endpoints) TodoList(projectID, listID int64) string {
	return fmt.Sprintf("%sprojects/%d/todolists/%d.json", e.base, projectID, listID)
}

// Topics is one page of a project's discussion threads, most recently updated first.
func (e Endpoints) Topics(projectID int64, page int) string {
	return fmt.Sprintf("%sprojects/%d/topics.json?page=%d", e.base, projectID, page)
}

// Comments is the resource carrying a thread's comments. Topics without a known
// topicable fall back to messages/<topic id>.
func (e Endpoints) Comments(projectID int64, topic models.Topic) string {
	collection, id := "messages", topic.ID
	if topic.Topicable != nil {
		if c, ok := topicableCollections[topic.Topicable.Type]; ok && topic.Topicable.ID != 0 {
			collection, id = c, topic.Topicable.ID
		}
	}
	return fmt.Sprintf("%sprojects/%d/%s/%d.json", e.base, projectID, collection, id)
}
