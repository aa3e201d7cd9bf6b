package topicmgr

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Dot separated segments, each starting with a lowercase letter.
	// Examples: ws.html.broadcast, planspiel.phaseStarted
	namePattern   = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*(\.[a-z][a-zA-Z0-9]*)*$`)
	modulePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

	frameworkPrefixes = []string{"ws.", "server."}
)

// ValidateName checks that name follows the naming convention.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > 100 {
		return fmt.Errorf("name too long (max 100 characters)")
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name must be dot separated segments starting with a lowercase letter")
	}
	return nil
}

func validate(topic Topic) error {
	if topic == nil {
		return fmt.Errorf("topic cannot be nil")
	}
	if err := ValidateName(topic.Name()); err != nil {
		return fmt.Errorf("invalid topic name: %w", err)
	}
	if strings.TrimSpace(topic.Description()) == "" {
		return fmt.Errorf("topic description cannot be empty")
	}

	switch topic.Scope() {
	case ScopeFramework:
		for _, prefix := range frameworkPrefixes {
			if strings.HasPrefix(topic.Name(), prefix) {
				return nil
			}
		}
		return fmt.Errorf("framework topic must start with one of %v", frameworkPrefixes)
	case ScopeModule:
		if !modulePattern.MatchString(topic.Module()) {
			return fmt.Errorf("module name must be lowercase alphanumeric with underscores")
		}
		if !strings.HasPrefix(topic.Name(), topic.Module()+".") {
			return fmt.Errorf("module topic must start with %q", topic.Module()+".")
		}
		return nil
	default:
		return fmt.Errorf("invalid topic scope: %s", topic.Scope())
	}
}
