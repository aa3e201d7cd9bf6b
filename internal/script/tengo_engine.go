package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// TengoEngine compiles and runs Tengo scripts under security limits.
type TengoEngine struct {
	securityLimits SecurityLimits
	logger         *slog.Logger
}

// NewTengoEngine creates a new Tengo engine with default security limits
func NewTengoEngine(logger *slog.Logger) *TengoEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &TengoEngine{
		securityLimits: GetDefaultSecurityLimits(),
		logger:         logger,
	}
}

// SetSecurityLimits configures resource and security constraints
func (e *TengoEngine) SetSecurityLimits(limits SecurityLimits) {
	e.securityLimits = limits
}

// Compile prepares a script for execution. Every name in inputs is declared
// as a variable so it can be set on each run.
func (e *TengoEngine) Compile(script *Script, inputs ...string) (*CompiledScript, error) {
	startTime := time.Now()

	tengoScript := tengo.NewScript([]byte(script.Content))
	tengoScript.SetImports(e.buildModuleMap())
	if e.securityLimits.MaxAllocs > 0 {
		tengoScript.SetMaxAllocs(e.securityLimits.MaxAllocs)
	}

	for _, name := range inputs {
		if err := tengoScript.Add(name, nil); err != nil {
			return nil, NewScriptError(ErrorTypeCompilation, script.Name, "failed to declare input "+name, err)
		}
	}
	if err := tengoScript.Add("log", e.logFunction(script.Name)); err != nil {
		return nil, NewScriptError(ErrorTypeCompilation, script.Name, "failed to add logging function", err)
	}

	compiled, err := tengoScript.Compile()
	if err != nil {
		return nil, NewScriptError(ErrorTypeCompilation, script.Name, "failed to compile Tengo script", err)
	}

	e.logger.Debug("Tengo script compiled successfully",
		"script", script.Name,
		"compilation_time", time.Since(startTime),
	)

	return &CompiledScript{Script: script, compiled: compiled, inputs: inputs}, nil
}

// Execute runs a compiled script with the given input values. Each run works
// on its own copy of the compiled program, so concurrent runs are safe.
func (e *TengoEngine) Execute(ctx context.Context, cs *CompiledScript, vars map[string]interface{}) (*Output, error) {
	startTime := time.Now()
	name := cs.Script.Name

	run := cs.compiled.Clone()
	for key, value := range vars {
		if err := run.Set(key, value); err != nil {
			return nil, NewScriptError(ErrorTypeExecution, name, fmt.Sprintf("failed to set input variable %s", key), err)
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, e.securityLimits.MaxExecutionTime)
	defer cancel()

	if err := run.RunContext(execCtx); err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return nil, NewScriptError(ErrorTypeTimeout, name, "script execution timed out", err)
		case errors.Is(err, tengo.ErrObjectAllocLimit):
			return nil, NewScriptError(ErrorTypeMemoryLimit, name, "script exceeded allocation limit", err)
		default:
			return nil, NewScriptError(ErrorTypeExecution, name, "script execution failed", err)
		}
	}

	return &Output{
		Result: extractResult(run),
		Logs:   extractLogs(run),
		Metrics: ExecutionMetrics{
			ExecutionTime: time.Since(startTime),
			Success:       true,
		},
	}, nil
}

// buildModuleMap creates the allowed modules map based on security limits
func (e *TengoEngine) buildModuleMap() *tengo.ModuleMap {
	modules := tengo.NewModuleMap()
	for _, pkg := range e.securityLimits.AllowedPackages {
		if module, exists := stdlib.BuiltinModules[pkg]; exists {
			modules.AddBuiltinModule(pkg, module)
		}
	}
	return modules
}

// extractResult reads the "result" variable the script is expected to set.
func extractResult(compiled *tengo.Compiled) interface{} {
	if !compiled.IsDefined("result") {
		return nil
	}
	return compiled.Get("result").Value()
}

// extractLogs extracts any log messages from the script execution
func extractLogs(compiled *tengo.Compiled) []string {
	if !compiled.IsDefined("logs") {
		return []string{}
	}
	if logs, ok := compiled.Get("logs").Value().([]interface{}); ok {
		out := make([]string, len(logs))
		for i, l := range logs {
			out[i] = fmt.Sprintf("%v", l)
		}
		return out
	}
	return []string{}
}

// logFunction exposes log(msg) to scripts, writing to the structured logger.
func (e *TengoEngine) logFunction(scriptName string) *tengo.UserFunction {
	return &tengo.UserFunction{
		Name: "log",
		Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) != 1 {
				return nil, tengo.ErrWrongNumArguments
			}
			msg := args[0].String()
			if s, ok := args[0].(*tengo.String); ok {
				msg = s.Value
			}
			e.logger.Info("Script log", "message", msg, "script", scriptName)
			return tengo.UndefinedValue, nil
		},
	}
}
