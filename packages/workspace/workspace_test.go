package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/snptkdn/htup/packages/core/parser"
	"github.com/snptkdn/htup/packages/http"
	"github.com/snptkdn/htup/packages/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	got  []*parser.Request
	resp *http.Response
	err  error
}

func (f *fakeSender) Send(_ context.Context, req *parser.Request) (*http.Response, error) {
	f.got = append(f.got, req)
	return f.resp, f.err
}

type fakeEditor struct {
	project store.Project
	id      string
	err     error
}

func (f *fakeEditor) Edit(_ context.Context, p store.Project, id string) error {
	f.project, f.id = p, id
	return f.err
}

type fakeRecorder struct {
	execs []*Execution
	err   error
}

func (f *fakeRecorder) Record(_ context.Context, exec *Execution) error {
	f.execs = append(f.execs, exec)
	return f.err
}

func newFSWorkspace(t *testing.T, opts ...Option) (*Workspace, store.Layout) {
	t.Helper()
	layout := store.NewLayout(t.TempDir())
	return New(store.NewProjectStore(layout), store.NewRequestStore(layout), opts...), layout
}

func TestWorkspace_CreateRequestEmpty(t *testing.T) {
	ws, _ := newFSWorkspace(t)
	require.NoError(t, ws.CreateProject("api"))

	_, err := ws.CreateRequest("api", "r1", "GET", BodyEmpty)
	require.NoError(t, err)

	ids, err := ws.ListRequests("api")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ids)

	req, err := ws.LoadRequest("api", "r1")
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, DefaultURL, req.URL)
	assert.Equal(t, 0, req.Headers.Len())
	assert.Nil(t, req.Body)
}

func TestWorkspace_CreateRequestJSON(t *testing.T) {
	ws, _ := newFSWorkspace(t)

	_, err := ws.CreateRequest("api", "create", "POST", BodyJSON)
	require.NoError(t, err)

	req, err := ws.LoadRequest("api", "create")
	require.NoError(t, err)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, parser.Headers{{Key: "Content-Type", Value: "application/json"}}, req.Headers)
	require.NotNil(t, req.Body)
	assert.Equal(t, JSONPlaceholder, req.Body.Raw)
}

func TestWorkspace_CreateRequestOverwrites(t *testing.T) {
	ws, _ := newFSWorkspace(t)

	_, err := ws.CreateRequest("api", "r", "POST", BodyJSON)
	require.NoError(t, err)
	_, err = ws.CreateRequest("api", "r", "DELETE", BodyEmpty)
	require.NoError(t, err)

	req, err := ws.LoadRequest("api", "r")
	require.NoError(t, err)
	assert.Equal(t, "DELETE", req.Method)
	assert.Nil(t, req.Body)
}

func TestWorkspace_CreateRequestKeepsMethodCase(t *testing.T) {
	ws, _ := newFSWorkspace(t)

	_, err := ws.CreateRequest("api", "r", "options", BodyEmpty)
	require.NoError(t, err)

	req, err := ws.LoadRequest("api", "r")
	require.NoError(t, err)
	assert.Equal(t, "options", req.Method)
	assert.Equal(t, DefaultURL, req.URL)
}

func TestWorkspace_CreateRequestRejectsMultiWordMethod(t *testing.T) {
	ws, layout := newFSWorkspace(t)

	_, err := ws.CreateRequest("api", "r", "GET FOO", BodyEmpty)
	require.ErrorIs(t, err, ErrInvalidMethod)
	assert.NoFileExists(t, layout.RequestPath(store.Project{Name: "api"}, "r"))
}

func TestWorkspace_CreateProjectTwice(t *testing.T) {
	ws, _ := newFSWorkspace(t)
	require.NoError(t, ws.CreateProject("api"))

	err := ws.CreateProject("api")
	assert.True(t, errors.Is(err, store.ErrAlreadyExists))

	projects, err := ws.ListProjects()
	require.NoError(t, err)
	assert.Equal(t, []store.Project{{Name: "api"}}, projects)
}

func TestWorkspace_ExecuteRequestDelegates(t *testing.T) {
	resp := &http.Response{StatusCode: 204, Status: "No Content"}
	sender := &fakeSender{resp: resp}
	ws, _ := newFSWorkspace(t, WithSender(sender))

	req := parser.NewRequest("GET", "https://x")
	got, err := ws.ExecuteRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Same(t, resp, got)
	require.Len(t, sender.got, 1)
	assert.Same(t, req, sender.got[0])
}

func TestWorkspace_ExecuteRequestPropagatesError(t *testing.T) {
	terr := &http.TransportError{Method: "GET", URL: "https://x", Err: errors.New("refused")}
	sender := &fakeSender{err: terr}
	ws, _ := newFSWorkspace(t, WithSender(sender))

	_, err := ws.ExecuteRequest(context.Background(), parser.NewRequest("GET", "https://x"))
	assert.Same(t, terr, err)
	assert.Len(t, sender.got, 1)
}

func TestWorkspace_ExecuteRequestWithoutSender(t *testing.T) {
	ws, _ := newFSWorkspace(t)
	_, err := ws.ExecuteRequest(context.Background(), parser.NewRequest("GET", "https://x"))
	assert.ErrorIs(t, err, ErrNoSender)
}

func TestWorkspace_EditRequest(t *testing.T) {
	editor := &fakeEditor{}
	ws, _ := newFSWorkspace(t, WithEditor(editor))

	require.NoError(t, ws.EditRequest(context.Background(), "api", "new"))
	assert.Equal(t, store.Project{Name: "api"}, editor.project)
	assert.Equal(t, "new", editor.id)

	editor.err = errors.New("boom")
	assert.Error(t, ws.EditRequest(context.Background(), "api", "new"))

	ws, _ = newFSWorkspace(t)
	assert.ErrorIs(t, ws.EditRequest(context.Background(), "api", "new"), ErrNoEditor)
}

func TestWorkspace_RunRequest(t *testing.T) {
	sender := &fakeSender{resp: &http.Response{StatusCode: 200, Status: "OK"}}
	recorder := &fakeRecorder{}
	ws, _ := newFSWorkspace(t, WithSender(sender), WithRecorder(recorder))

	req := parser.NewRequest("GET", "{{base}}/users")
	req.Headers.Set("X-Env", "{{env}}")
	require.NoError(t, ws.SaveRequest("api", "users", req))

	exec, err := ws.RunRequest(context.Background(), "api", "users", RunOptions{
		Expand: func(s string) string {
			switch s {
			case "{{base}}/users":
				return "https://api/users"
			case "{{env}}":
				return "dev"
			}
			return s
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 200, exec.Response.StatusCode)
	assert.Equal(t, "https://api/users", sender.got[0].URL)
	assert.Equal(t, "dev", sender.got[0].Headers[0].Value)
	require.Len(t, recorder.execs, 1)
	assert.Equal(t, "users", recorder.execs[0].ID)

	// the stored document is untouched
	stored, err := ws.LoadRequest("api", "users")
	require.NoError(t, err)
	assert.Equal(t, "{{base}}/users", stored.URL)
}

func TestWorkspace_RunRequestRecordsFailures(t *testing.T) {
	sender := &fakeSender{err: errors.New("refused")}
	recorder := &fakeRecorder{err: errors.New("disk full")}
	ws, _ := newFSWorkspace(t, WithSender(sender), WithRecorder(recorder))
	require.NoError(t, ws.SaveRequest("api", "r", parser.NewRequest("GET", "https://x")))

	exec, err := ws.RunRequest(context.Background(), "api", "r", RunOptions{})
	require.Error(t, err)
	assert.EqualError(t, err, "refused")
	require.NotNil(t, exec)
	require.Len(t, recorder.execs, 1)
	assert.Equal(t, err, recorder.execs[0].Err)
}

func TestWorkspace_RunLoadedDocument(t *testing.T) {
	sender := &fakeSender{resp: &http.Response{StatusCode: 204}}
	recorder := &fakeRecorder{}
	ws, _ := newFSWorkspace(t, WithSender(sender), WithRecorder(recorder))

	// nothing is stored under api/ping; Run sends what it is given
	req := parser.NewRequest("HEAD", "https://x/ping")
	exec, err := ws.Run(context.Background(), "api", "ping", req, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 204, exec.Response.StatusCode)
	assert.Same(t, req, sender.got[0])
	require.Len(t, recorder.execs, 1)
	assert.Equal(t, "api", recorder.execs[0].Project)
	assert.Equal(t, "ping", recorder.execs[0].ID)
}

func TestWorkspace_RunRequestNotFound(t *testing.T) {
	sender := &fakeSender{}
	ws, _ := newFSWorkspace(t, WithSender(sender))

	_, err := ws.RunRequest(context.Background(), "api", "missing", RunOptions{})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, sender.got)
}

func TestParseBodyKind(t *testing.T) {
	tests := []struct {
		in   string
		want BodyKind
	}{
		{"", BodyEmpty},
		{"empty", BodyEmpty},
		{"JSON", BodyJSON},
		{" json ", BodyJSON},
	}
	for _, tt := range tests {
		got, err := ParseBodyKind(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseBodyKind("xml")
	assert.Error(t, err)
}

func TestNewFromTemplate_DefaultMethod(t *testing.T) {
	req := NewFromTemplate("", BodyEmpty)
	assert.Equal(t, DefaultMethod, req.Method)
	assert.Equal(t, "GET https://example.com\n\n", parser.Encode(req))
}
