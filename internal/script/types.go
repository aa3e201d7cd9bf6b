package script

import (
	"time"

	"github.com/d5/tengo/v2"
)

// ScriptSource indicates where a script was loaded from
type ScriptSource string

const (
	SourceEmbedded ScriptSource = "embedded"
	SourceExternal ScriptSource = "external"
)

// ErrorType categorizes different types of script errors
type ErrorType string

const (
	ErrorTypeCompilation   ErrorType = "compilation"
	ErrorTypeExecution     ErrorType = "execution"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeMemoryLimit   ErrorType = "memory_limit"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeInvalidResult ErrorType = "invalid_result"
)

// Script represents a script file with metadata
type Script struct {
	Name         string
	Content      string
	Source       ScriptSource
	LastModified time.Time
	Checksum     string
}

// Output contains the results of script execution
type Output struct {
	Result  interface{}
	Logs    []string
	Metrics ExecutionMetrics
}

// ExecutionMetrics tracks performance and execution data
type ExecutionMetrics struct {
	ExecutionTime time.Duration
	Success       bool
}

// SecurityLimits defines resource constraints for script execution
type SecurityLimits struct {
	MaxExecutionTime time.Duration
	// MaxAllocs caps the number of objects a run may allocate.
	MaxAllocs       int64
	AllowedPackages []string
}

// CompiledScript represents a compiled script ready for execution
type CompiledScript struct {
	Script   *Script
	compiled *tengo.Compiled
	inputs   []string
}

// ScriptError represents script-related errors with context
type ScriptError struct {
	Type       ErrorType
	ScriptName string
	Message    string
	Cause      error
	Timestamp  time.Time
}

func (e *ScriptError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ScriptError) Unwrap() error {
	return e.Cause
}

// NewScriptError creates a new ScriptError with the given parameters
func NewScriptError(errorType ErrorType, scriptName, message string, cause error) *ScriptError {
	return &ScriptError{
		Type:       errorType,
		ScriptName: scriptName,
		Message:    message,
		Cause:      cause,
		Timestamp:  time.Now(),
	}
}

// DefaultSecurityLimits provides safe default constraints for script execution
var DefaultSecurityLimits = SecurityLimits{
	MaxExecutionTime: 2 * time.Second,
	MaxAllocs:        100_000,
	AllowedPackages: []string{
		"fmt",
		"strings",
		"math",
	},
}

// GetDefaultSecurityLimits returns a copy of the default security limits
func GetDefaultSecurityLimits() SecurityLimits {
	limits := DefaultSecurityLimits
	limits.AllowedPackages = append([]string(nil), DefaultSecurityLimits.AllowedPackages...)
	return limits
}
