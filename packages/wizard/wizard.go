// Package wizard drives the step-by-step creation of a request: name it, pick
// a method, pick a body template, save.
package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/snptkdn/htup/packages/core/parser"
	"github.com/snptkdn/htup/packages/workspace"
)

var (
	ErrInvalidTransition = errors.New("invalid wizard transition")
	ErrEmptyName         = errors.New("request name must not be empty")
	ErrInvalidChoice     = errors.New("invalid choice")
)

type State int

const (
	Idle State = iota
	NamingRequest
	SelectingMethod
	SelectingBodyTemplate
)

func (s State) String() string {
	switch s {
	case NamingRequest:
		return "naming request"
	case SelectingMethod:
		return "selecting method"
	case SelectingBodyTemplate:
		return "selecting body template"
	default:
		return "idle"
	}
}

// Draft is the request being assembled.
type Draft struct {
	Project string
	ID      string
	Method  string
	Body    workspace.BodyKind
}

// Creator persists the finished draft.
type Creator interface {
	CreateRequest(project, id, method string, kind workspace.BodyKind) (*parser.Request, error)
}

type Wizard struct {
	creator Creator
	state   State
	draft   Draft
}

func New(creator Creator) *Wizard {
	return &Wizard{creator: creator}
}

func (w *Wizard) State() State {
	return w.state
}

func (w *Wizard) Draft() Draft {
	return w.draft
}

// Start begins a new draft inside project.
func (w *Wizard) Start(project string) error {
	if w.state != Idle {
		return w.invalid("start")
	}
	if project == "" {
		return fmt.Errorf("%w: no project selected", ErrInvalidTransition)
	}
	w.draft = Draft{Project: project}
	w.state = NamingRequest
	return nil
}

// SubmitName sets the request id. An empty name keeps the wizard waiting.
func (w *Wizard) SubmitName(name string) error {
	if w.state != NamingRequest {
		return w.invalid("submit name")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	w.draft.ID = name
	w.state = SelectingMethod
	return nil
}

func (w *Wizard) SelectMethod(method string) error {
	if w.state != SelectingMethod {
		return w.invalid("select method")
	}
	method = strings.TrimSpace(method)
	if method == "" {
		return fmt.Errorf("%w: empty method", ErrInvalidChoice)
	}
	if err := workspace.ValidateMethod(method); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChoice, err)
	}
	w.draft.Method = method
	w.state = SelectingBodyTemplate
	return nil
}

// SelectBody finishes the draft: the request is saved and the wizard returns
// to Idle. When saving fails the wizard stays on the body step so the user
// can retry or cancel.
func (w *Wizard) SelectBody(kind workspace.BodyKind) (*parser.Request, error) {
	if w.state != SelectingBodyTemplate {
		return nil, w.invalid("select body")
	}
	w.draft.Body = kind

	req, err := w.creator.CreateRequest(w.draft.Project, w.draft.ID, w.draft.Method, kind)
	if err != nil {
		return nil, err
	}
	w.state = Idle
	w.draft = Draft{}
	return req, nil
}

// Cancel abandons the draft from any state.
func (w *Wizard) Cancel() {
	w.state = Idle
	w.draft = Draft{}
}

// Options returns the labels offered in the current state, or nil when the
// state takes free text or nothing at all.
func (w *Wizard) Options() []string {
	switch w.state {
	case SelectingMethod:
		return append([]string(nil), workspace.Methods...)
	case SelectingBodyTemplate:
		labels := make([]string, len(workspace.BodyKinds))
		for i, k := range workspace.BodyKinds {
			labels[i] = k.String()
		}
		return labels
	default:
		return nil
	}
}

// Choose picks Options()[index] in a selection state. Choosing a body
// completes the wizard and returns the saved request.
func (w *Wizard) Choose(index int) (*parser.Request, error) {
	opts := w.Options()
	if opts == nil {
		return nil, w.invalid("choose")
	}
	if index < 0 || index >= len(opts) {
		return nil, fmt.Errorf("%w: %d (expected 1-%d)", ErrInvalidChoice, index+1, len(opts))
	}

	if w.state == SelectingMethod {
		return nil, w.SelectMethod(opts[index])
	}
	return w.SelectBody(workspace.BodyKinds[index])
}

func (w *Wizard) invalid(action string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, action, w.state)
}
