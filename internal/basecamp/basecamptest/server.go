// Package basecamptest provides an in-process fake of the Basecamp API for tests.
package basecamptest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/benvon/dashcollect/internal/models"
)

// Account is the account id used in every fake URL.
const Account = "999"

const apiPrefix = "/" + Account + "/api/v1"

// Route names reported by Hits.
const (
	RouteProjects  = "projects"
	RouteTodoLists = "todolists"
	RouteTodoList  = "todolist"
	RouteTopics    = "topics"
	RouteComments  = "comments"
)

// Auth is the credential the fake accepts. A zero Auth accepts every request.
type Auth struct {
	Username string
	Password string
	Token    string
}

type cannedResponse struct {
	status int
	body   string
}

// Server is a fake API backed by in-memory fixtures.
type Server struct {
	*httptest.Server

	// PageSize is the number of topics per page.
	PageSize int

	mu         sync.Mutex
	auth       Auth
	projects   []models.Project
	lists      map[int64][]models.TodoList
	details    map[string]models.TodoListDetail
	topics     map[int64][]models.Topic
	comments   map[string][]models.Comment
	canned     map[string]cannedResponse
	hits       map[string]int
	userAgents []string
	headers    []http.Header
}

// NewServer starts a fake API. Middleware runs around every matched route.
func NewServer(auth Auth, middleware ...mux.MiddlewareFunc) *Server {
	s := &Server{
		PageSize: 50,
		auth:     auth,
		lists:    make(map[int64][]models.TodoList),
		details:  make(map[string]models.TodoListDetail),
		topics:   make(map[int64][]models.Topic),
		comments: make(map[string][]models.Comment),
		canned:   make(map[string]cannedResponse),
		hits:     make(map[string]int),
	}

	r := mux.NewRouter()
	for _, mw := range middleware {
		r.Use(mw)
	}
	r.Use(s.record, s.authenticate, s.cannedMiddleware)

	api := r.PathPrefix(apiPrefix).Subrouter()
	api.HandleFunc("/projects.json", s.handleProjects).Methods(http.MethodGet).Name(RouteProjects)
	api.HandleFunc("/projects/{pid:[0-9]+}/todolists.json", s.handleTodoLists).Methods(http.MethodGet).Name(RouteTodoLists)
	api.HandleFunc("/projects/{pid:[0-9]+}/todolists/{lid:[0-9]+}.json", s.handleTodoList).Methods(http.MethodGet).Name(RouteTodoList)
	api.HandleFunc("/projects/{pid:[0-9]+}/topics.json", s.handleTopics).Methods(http.MethodGet).Name(RouteTopics)
	api.HandleFunc("/projects/{pid:[0-9]+}/{collection}/{id:[0-9]+}.json", s.handleComments).Methods(http.MethodGet).Name(RouteComments)

	s.Server = httptest.NewServer(r)
	return s
}

// ProjectsURL is the URL to configure a client with.
func (s *Server) ProjectsURL() string {
	return s.URL + apiPrefix + "/projects.json"
}

// AddProject registers a project.
func (s *Server) AddProject(p models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append(s.projects, p)
}

// AddTodoList registers a list under a project, served by both the index and detail routes.
func (s *Server) AddTodoList(projectID int64, detail models.TodoListDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[projectID] = append(s.lists[projectID], models.TodoList{ID: detail.ID, Name: detail.Name})
	s.details[listKey(projectID, detail.ID)] = detail
}

// AddTopics appends topics to a project in the order they are served.
func (s *Server) AddTopics(projectID int64, topics ...models.Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[projectID] = append(s.topics[projectID], topics...)
}

// SetComments sets the comments served at projects/<pid>/<collection>/<id>.json.
func (s *Server) SetComments(projectID int64, collection string, id int64, comments ...models.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[commentKey(projectID, collection, strconv.FormatInt(id, 10))] = comments
}

// SetResponse overrides the response for an API path such as "/projects/1/messages/5.json".
func (s *Server) SetResponse(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canned[path] = cannedResponse{status: status, body: body}
}

// Hits returns how many requests reached the named route.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// UserAgents returns the User-Agent of every request in arrival order.
func (s *Server) UserAgents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.userAgents...)
}

// Headers returns the headers of every request in arrival order.
func (s *Server) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Header(nil), s.headers...)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		if route := mux.CurrentRoute(r); route != nil {
			s.hits[route.GetName()]++
		}
		s.userAgents = append(s.userAgents, r.UserAgent())
		s.headers = append(s.headers, r.Header.Clone())
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case s.auth.Token != "":
			if r.Header.Get("Authorization") != "Bearer "+s.auth.Token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		case s.auth.Username != "":
			user, pass, ok := r.BasicAuth()
			if !ok || user != s.auth.Username || pass != s.auth.Password {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) cannedMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		resp, ok := s.canned[strings.TrimPrefix(r.URL.Path, apiPrefix)]
		s.mu.Unlock()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.status)
		_, _ = w.Write([]byte(resp.body))
	})
}

func (s *Server) handleProjects(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, nonNil(s.projects))
}

func (s *Server) handleTodoLists(w http.ResponseWriter, r *http.Request) {
	pid := pathID(r, "pid")
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, nonNil(s.lists[pid]))
}

func (s *Server) handleTodoList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	detail, ok := s.details[listKey(pathID(r, "pid"), pathID(r, "lid"))]
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, detail)
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.topics[pathID(r, "pid")]
	start := (page - 1) * s.PageSize
	if start >= len(all) {
		writeJSON(w, []models.Topic{})
		return
	}
	end := min(start+s.PageSize, len(all))
	writeJSON(w, all[start:end])
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	comments, ok := s.comments[commentKey(pathID(r, "pid"), vars["collection"], vars["id"])]
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, models.Commentable{Comments: nonNil(comments)})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func pathID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id
}

func listKey(projectID, listID int64) string {
	return fmt.Sprintf("%d/%d", projectID, listID)
}

func commentKey(projectID int64, collection, id string) string {
	return fmt.Sprintf("%d/%s/%s", projectID, collection, id)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
