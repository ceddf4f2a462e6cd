package env

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/snptkdn/htup/packages/builtin"
	"github.com/snptkdn/htup/packages/core/parser"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver expands {{...}} placeholders. A placeholder is one of
//
//	{{name}}            a variable
//	{{$NAME}}           an OS environment variable
//	{{uuid()}}          a builtin function call
//
// Placeholders that cannot be resolved are left in place.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]any
	funcs     *builtin.Registry
	lookupEnv func(string) (string, bool)
	warnFunc  WarnFunc
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]any),
		funcs:     builtin.NewRegistry(),
		lookupEnv: os.LookupEnv,
	}
}

// SetWarnFunc sets a function to be called when warnings occur (e.g., unresolved variables)
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (r *Resolver) SetVariables(vars map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) GetVariable(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variables[name]
	return v, ok
}

func (r *Resolver) HasVariable(name string) bool {
	_, ok := r.GetVariable(name)
	return ok
}

func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		if val, ok := r.resolveExpr(expr); ok {
			return val
		}
		return match
	})
}

func (r *Resolver) resolveExpr(expr string) (string, bool) {
	if name, ok := strings.CutPrefix(expr, "$"); ok {
		if val, found := r.lookupEnv(name); found {
			return val, true
		}
		r.warn("unresolved environment variable: $%s", name)
		return "", false
	}

	if strings.Contains(expr, "(") {
		result, err := r.funcs.Call(expr)
		if err == nil {
			return fmt.Sprintf("%v", result), true
		}
		if !errors.Is(err, builtin.ErrNotACall) {
			r.warn("function %s failed: %v", expr, err)
			return "", false
		}
	}

	if val, ok := r.GetVariable(expr); ok {
		return fmt.Sprintf("%v", val), true
	}

	r.warn("unresolved variable: %s", expr)
	return "", false
}

// ResolveRequest expands every placeholder of a request document.
func (r *Resolver) ResolveRequest(req *parser.Request) *parser.Request {
	return req.Expand(r.Resolve)
}

// GetUnresolvedVariables lists the names of variable placeholders in input
// that have no value, in order of appearance. Function calls and $ENV
// references are not reported.
func (r *Resolver) GetUnresolvedVariables(input string) []string {
	var unresolved []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if strings.HasPrefix(expr, "$") || strings.Contains(expr, "(") {
			continue
		}
		if !r.HasVariable(expr) {
			unresolved = append(unresolved, expr)
		}
	}
	return unresolved
}

// UnresolvedInRequest collects unresolved variable names across the URL,
// header values and body, without duplicates.
func (r *Resolver) UnresolvedInRequest(req *parser.Request) []string {
	parts := []string{req.URL}
	for _, h := range req.Headers {
		parts = append(parts, h.Value)
	}
	parts = append(parts, req.BodyString())

	seen := make(map[string]bool)
	var result []string
	for _, part := range parts {
		for _, name := range r.GetUnresolvedVariables(part) {
			if !seen[name] {
				seen[name] = true
				result = append(result, name)
			}
		}
	}
	return result
}
