package builtin

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotACall        = errors.New("not a function call")
	ErrUnknownFunction = errors.New("unknown function")
)

// Func receives the already unquoted arguments of a call.
type Func func(args []string) (any, error)

type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
	now   func() time.Time
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
		now:   time.Now,
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["uuid"] = func(_ []string) (any, error) { return uuid.NewString(), nil }
	r.funcs["now"] = func(_ []string) (any, error) { return r.now().UTC().Format(time.RFC3339), nil }
	r.funcs["timestamp"] = func(_ []string) (any, error) { return r.now().Unix(), nil }
	r.funcs["timestampMs"] = func(_ []string) (any, error) { return r.now().UnixMilli(), nil }
	r.funcs["date"] = r.funcDate
	r.funcs["randomInt"] = funcRandomInt
	r.funcs["randomString"] = funcRandomString
	r.funcs["base64"] = oneArg(func(s string) any { return base64.StdEncoding.EncodeToString([]byte(s)) })
	r.funcs["urlEncode"] = oneArg(func(s string) any { return url.QueryEscape(s) })
	r.funcs["sha256"] = oneArg(func(s string) any {
		sum := sha256.Sum256([]byte(s))
		return hex.EncodeToString(sum[:])
	})
}

func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Names lists the registered functions.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// Call evaluates an expression such as `randomInt(1, 10)`.
func (r *Registry) Call(expr string) (any, error) {
	matches := funcCallPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if matches == nil {
		return nil, ErrNotACall
	}

	name := matches[1]
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}

	var args []string
	if argsStr := matches[2]; strings.TrimSpace(argsStr) != "" {
		args = parseArgs(argsStr)
	}

	result, err := fn(args)
	if err != nil {
		return nil, fmt.Errorf("%s(): %w", name, err)
	}
	return result, nil
}

// parseArgs splits on commas outside single or double quotes.
func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	var quote byte

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote == 0 && (ch == '"' || ch == '\''):
			quote = ch
		case quote != 0 && ch == quote:
			quote = 0
		case quote == 0 && ch == ',':
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	return append(args, strings.TrimSpace(current.String()))
}

func oneArg(fn func(string) any) Func {
	return func(args []string) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		return fn(args[0]), nil
	}
}

func (r *Registry) funcDate(args []string) (any, error) {
	layout := "2006-01-02"
	if len(args) > 0 && args[0] != "" {
		layout = args[0]
	}
	return r.now().Format(layout), nil
}

func funcRandomInt(args []string) (any, error) {
	lo, hi := 0, 1000
	if len(args) >= 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("min %q is not an integer", args[0])
		}
		lo = v
	}
	if len(args) >= 2 {
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("max %q is not an integer", args[1])
		}
		hi = v
	}
	if hi < lo {
		return nil, fmt.Errorf("max %d is less than min %d", hi, lo)
	}
	return lo + rand.Intn(hi-lo+1), nil
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func funcRandomString(args []string) (any, error) {
	length := 16
	if len(args) >= 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return nil, fmt.Errorf("length %q is not a non-negative integer", args[0])
		}
		length = v
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumeric[rand.Intn(len(alphanumeric))]
	}
	return string(b), nil
}
