package topicmgr

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Manager is a concurrency safe topic catalogue.
type Manager struct {
	mu     sync.RWMutex
	topics map[string]Topic
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{topics: make(map[string]Topic)}
}

// Register validates and adds a topic.
func (m *Manager) Register(topic Topic) error {
	if err := validate(topic); err != nil {
		name := ""
		if topic != nil {
			name = topic.Name()
		}
		return &TopicError{
			Type:    ErrorValidationFailed,
			Topic:   name,
			Message: "topic validation failed",
			Cause:   err,
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.topics[topic.Name()]; exists {
		return &TopicError{
			Type:    ErrorDuplicateRegistration,
			Topic:   topic.Name(),
			Module:  topic.Module(),
			Message: fmt.Sprintf("topic already registered: %s", topic.Name()),
		}
	}
	m.topics[topic.Name()] = topic
	return nil
}

// MustRegister registers topics and panics on the first failure. Use it for
// package-level topic declarations.
func (m *Manager) MustRegister(topics ...Topic) {
	for _, t := range topics {
		if err := m.Register(t); err != nil {
			panic(err)
		}
	}
}

// Get retrieves a topic by name.
func (m *Manager) Get(name string) (Topic, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.topics[name]
	return t, ok
}

// List returns all topics sorted by name.
func (m *Manager) List() []Topic {
	return m.filter(func(Topic) bool { return true })
}

// ListByModule returns the topics owned by module.
func (m *Manager) ListByModule(module string) []Topic {
	return m.filter(func(t Topic) bool { return t.Module() == module })
}

// ListByScope returns the topics of one scope.
func (m *Manager) ListByScope(scope TopicScope) []Topic {
	return m.filter(func(t Topic) bool { return t.Scope() == scope })
}

// ListTopicsByPrefix returns topics whose name starts with prefix.
func (m *Manager) ListTopicsByPrefix(prefix string) []Topic {
	return m.filter(func(t Topic) bool { return strings.HasPrefix(t.Name(), prefix) })
}

// ListModules returns the distinct owning modules.
func (m *Manager) ListModules() []string {
	var modules []string
	for _, t := range m.ListByScope(ScopeModule) {
		if !slices.Contains(modules, t.Module()) {
			modules = append(modules, t.Module())
		}
	}
	slices.Sort(modules)
	return modules
}

// Count returns the number of registered topics.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.topics)
}

func (m *Manager) filter(keep func(Topic) bool) []Topic {
	m.mu.RLock()
	out := make([]Topic, 0, len(m.topics))
	for _, t := range m.topics {
		if keep(t) {
			out = append(out, t)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b Topic) int { return strings.Compare(a.Name(), b.Name()) })
	return out
}

var defaultManager = NewManager()

// Default returns the process wide manager.
func Default() *Manager {
	return defaultManager
}
