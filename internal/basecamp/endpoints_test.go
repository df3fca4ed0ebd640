package basecamp

import (
	"testing"

	"github.com/benvon/dashcollect/internal/models"
)

const testProjectsURL = "https://basecamp.com/999/api/v1/projects.json"

func TestNewEndpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid", url: testProjectsURL},
		{name: "userinfo stripped", url: "https://u:p@basecamp.com/999/api/v1/projects.json"},
		{name: "wrong resource", url: "https://basecamp.com/999/api/v1/people.json", wantErr: true},
		{name: "query string", url: testProjectsURL + "?page=2", wantErr: true},
		{name: "bad scheme", url: "ftp://basecamp.com/999/api/v1/projects.json", wantErr: true},
		{name: "not a url", url: "://nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, err := NewEndpoints(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEndpoints(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if !tt.wantErr && e.Projects() != testProjectsURL {
				t.Errorf("Expected projects URL %s, got %s", testProjectsURL, e.Projects())
			}
		})
	}
}

func TestEndpoints_Paths(t *testing.T) {
	t.Parallel()

	e, err := NewEndpoints(testProjectsURL)
	if err != nil {
		t.Fatalf("NewEndpoints failed: %v", err)
	}
	base := "https://basecamp.com/999/api/v1/"

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "todolists", got: e.TodoLists(1), want: base + "projects/1/todolists.json"},
		{name: "todolist", got: e.TodoList(1, 7), want: base + "projects/1/todolists/7.json"},
		{name: "topics", got: e.Topics(1, 2), want: base + "projects/1/topics.json?page=2"},
		{
			name: "message comments",
			got:  e.Comments(1, models.Topic{ID: 5, Topicable: &models.Topicable{ID: 50, Type: models.TopicableMessage}}),
			want: base + "projects/1/messages/50.json",
		},
		{
			name: "calendar event comments",
			got:  e.Comments(1, models.Topic{ID: 5, Topicable: &models.Topicable{ID: 51, Type: models.TopicableCalendarEvent}}),
			want: base + "projects/1/calendar_events/51.json",
		},
		{
			name: "todo comments",
			got:  e.Comments(1, models.Topic{ID: 5, Topicable: &models.Topicable{ID: 52, Type: models.TopicableTodo}}),
			want: base + "projects/1/todos/52.json",
		},
		{
			name: "unknown topicable falls back to topic id",
			got:  e.Comments(1, models.Topic{ID: 5, Topicable: &models.Topicable{ID: 53, Type: "Forward"}}),
			want: base + "projects/1/messages/5.json",
		},
		{
			name: "missing topicable",
			got:  e.Comments(1, models.Topic{ID: 6}),
			want: base + "projects/1/messages/6.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}
