package topicmgr

import "maps"

// Topic is a registered message bus channel.
type Topic interface {
	// Name returns the unique string identifier for this topic
	Name() string

	// Module returns the module that owns this topic (empty for framework topics)
	Module() string

	Description() string
	Pattern() string
	Example() string
	Metadata() map[string]any
	Scope() TopicScope
}

// TopicConfig holds configuration for creating a new topic
type TopicConfig struct {
	Name        string         `json:"name"`
	Module      string         `json:"module"`
	Scope       TopicScope     `json:"scope"`
	Description string         `json:"description"`
	Pattern     string         `json:"pattern"`
	Example     string         `json:"example"`
	Metadata    map[string]any `json:"metadata"`
}

// TopicScope defines whether a topic belongs to framework or module level
type TopicScope string

const (
	ScopeFramework TopicScope = "framework" // Shared infrastructure topics (websocket, server)
	ScopeModule    TopicScope = "module"    // Topics owned by a single module
)

// TopicError represents structured errors in the topic management system
type TopicError struct {
	Type    ErrorType `json:"type"`
	Topic   string    `json:"topic"`
	Module  string    `json:"module"`
	Message string    `json:"message"`
	Cause   error     `json:"cause,omitempty"`
}

// ErrorType defines the type of topic management error
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
)

func (e *TopicError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *TopicError) Unwrap() error {
	return e.Cause
}

type definedTopic struct {
	cfg TopicConfig
}

var _ Topic = (*definedTopic)(nil)

func (t *definedTopic) Name() string        { return t.cfg.Name }
func (t *definedTopic) Module() string      { return t.cfg.Module }
func (t *definedTopic) Description() string { return t.cfg.Description }
func (t *definedTopic) Pattern() string     { return t.cfg.Pattern }
func (t *definedTopic) Example() string     { return t.cfg.Example }
func (t *definedTopic) Scope() TopicScope   { return t.cfg.Scope }
func (t *definedTopic) String() string      { return t.cfg.Name }

// Metadata returns a copy of the topic's metadata.
func (t *definedTopic) Metadata() map[string]any {
	if t.cfg.Metadata == nil {
		return map[string]any{}
	}
	return maps.Clone(t.cfg.Metadata)
}

// DefineFramework creates a topic owned by shared infrastructure.
func DefineFramework(cfg TopicConfig) Topic {
	cfg.Scope = ScopeFramework
	cfg.Module = ""
	if cfg.Pattern == "" {
		cfg.Pattern = cfg.Name
	}
	return &definedTopic{cfg: cfg}
}

// DefineModule creates a topic owned by cfg.Module.
func DefineModule(cfg TopicConfig) Topic {
	cfg.Scope = ScopeModule
	if cfg.Pattern == "" {
		cfg.Pattern = cfg.Name
	}
	return &definedTopic{cfg: cfg}
}
