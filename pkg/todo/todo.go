package todo

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/verlofplanner/verlof/internal/event_bus"
	"github.com/verlofplanner/verlof/pkg/storage"
)

const RecordKey = "todos"

type Todo struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

type Service interface {
	List() []Todo
	Add(ctx context.Context, content string) (Todo, bool)
	Remove(ctx context.Context, id string)
	Toggle(ctx context.Context, id string) (Todo, bool)
}

type ServiceImpl struct {
	mu    sync.RWMutex
	todos []Todo
	repo  storage.Repository
	bus   *event_bus.EventBus
	newID func() string
}

func NewService(repo storage.Repository, bus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, bus: bus, newID: uuid.NewString}
}

// Load replaces the in-memory list with the persisted one. A missing or unreadable
// record leaves an empty list.
func (s *ServiceImpl) Load(ctx context.Context) error {
	var todos []Todo
	ok, err := storage.LoadJSON(ctx, s.repo, RecordKey, &todos)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		todos = nil
	}
	s.todos = todos
	return nil
}

func (s *ServiceImpl) List() []Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.todos)
}

// Add appends a todo with the trimmed content. Blank content is ignored.
func (s *ServiceImpl) Add(ctx context.Context, content string) (Todo, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Todo{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t := Todo{ID: s.newID(), Content: content}
	s.todos = append(s.todos, t)
	s.persist(ctx)
	return t, true
}

func (s *ServiceImpl) Remove(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.todos)
	s.todos = slices.DeleteFunc(s.todos, func(t Todo) bool { return t.ID == id })
	if len(s.todos) != before {
		s.persist(ctx)
	}
}

func (s *ServiceImpl) Toggle(ctx context.Context, id string) (Todo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.todos, func(t Todo) bool { return t.ID == id })
	if i < 0 {
		return Todo{}, false
	}
	s.todos[i].Completed = !s.todos[i].Completed
	s.persist(ctx)
	return s.todos[i], true
}

func (s *ServiceImpl) persist(ctx context.Context) {
	todos := s.todos
	if todos == nil {
		todos = []Todo{}
	}
	storage.PublishRecord(ctx, s.bus, RecordKey, todos)
}
