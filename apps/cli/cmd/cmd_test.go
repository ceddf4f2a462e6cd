package cmd

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/snptkdn/htup/packages/core/parser"
	htuphttp "github.com/snptkdn/htup/packages/http"
	"github.com/snptkdn/htup/packages/store"
	"github.com/snptkdn/htup/packages/wizard"
	"github.com/snptkdn/htup/packages/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores flag variables between command executions, since cobra
// only sets the flags present on the command line.
func resetFlags() {
	rootFlag, configFlag, debugFlag, noColorFlag = "", "", false, false
	envFlag, envFileFlag, varFlags = "", "", nil
	outputFlag, verboseFlag, noHistoryFlag, watchFlag, diffFlag, queryFlag = "console", false, false, false, false, ""
	expectFlags, expectStatusFlag, schemaFlag = nil, 0, ""
	repeatFlag, rateFlag, concurrencyFlag = 1, 0, 1
	newMethodFlag, newBodyFlag, newEditFlag = "", "", false
	importIDFlag, importFileFlag = "", ""
	historyLimitFlag, historyPruneFlag, historyBodyFlag = 20, 0, false
	showResolvedFlag, forceInit = false, false
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeRequest(t *testing.T, root, project, id, content string) {
	t.Helper()
	dir := filepath.Join(root, project)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".http"), []byte(content), 0o644))
}

func userServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":1,"name":"alice","path":%q}`, r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"checks", errChecksFailed, ExitCheckFailure},
		{"usage", usageErrorf("bad"), ExitUsageError},
		{"cobra usage", errors.New(`unknown command "nope" for "htup"`), ExitUsageError},
		{"config", &configError{err: errors.New("bad yaml")}, ExitConfigError},
		{"parse", fmt.Errorf("load: %w", &parser.ParseError{Line: 1, Err: parser.ErrMissingMethod}), ExitParseError},
		{"transport", &htuphttp.TransportError{Method: "GET", URL: "http://x", Err: errors.New("refused")}, ExitNetworkError},
		{"reported transport", &reportedError{err: &htuphttp.TransportError{Err: errors.New("refused")}}, ExitNetworkError},
		{"storage", &store.StorageError{Op: "write", Path: "/x", Err: os.ErrPermission}, ExitStorageError},
		{"not found", fmt.Errorf("a/b: %w", store.ErrNotFound), ExitStorageError},
		{"other", errors.New("boom"), ExitCheckFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("HTUP_TEST_STRING", "value")
	t.Setenv("HTUP_TEST_BOOL", "yes")
	t.Setenv("HTUP_TEST_INT", "42")
	t.Setenv("HTUP_TEST_BAD_INT", "x")

	assert.Equal(t, "value", getEnvString("HTUP_TEST_STRING", "default"))
	assert.Equal(t, "default", getEnvString("HTUP_TEST_UNSET", "default"))
	assert.True(t, getEnvBool("HTUP_TEST_BOOL", false))
	assert.True(t, getEnvBool("HTUP_TEST_UNSET", true))
	assert.Equal(t, 42, getEnvInt("HTUP_TEST_INT", 1))
	assert.Equal(t, 1, getEnvInt("HTUP_TEST_BAD_INT", 1))
}

func TestInitCommand(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")

	stdout, _, err := execute(t, "init", root)
	require.NoError(t, err)
	assert.Contains(t, stdout, "htup workspace initialized")
	assert.FileExists(t, filepath.Join(root, "htup.yaml"))

	req, err := parser.ParseFile(filepath.Join(root, "example", "get-example.http"))
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "{{baseUrl}}/health", req.URL)

	_, _, err = execute(t, "init", root)
	require.Error(t, err)
	assert.Equal(t, ExitStorageError, exitCode(err))
}

func TestProjectAndListCommands(t *testing.T) {
	root := t.TempDir()

	_, _, err := execute(t, "--root", root, "project", "create", "billing")
	require.NoError(t, err)

	_, _, err = execute(t, "--root", root, "project", "create", "billing")
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	writeRequest(t, root, "users", "get-user", "GET https://x/users/1\n")

	stdout, _, err := execute(t, "--root", root, "project", "list")
	require.NoError(t, err)
	assert.Equal(t, "billing\nusers\n", stdout)

	stdout, _, err = execute(t, "--root", root, "list", "users")
	require.NoError(t, err)
	assert.Equal(t, "get-user\n", stdout)

	stdout, _, err = execute(t, "--no-color", "--root", root, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "billing/\n  (empty)")
	assert.Contains(t, stdout, "users/\n  - get-user")
}

func TestNewCommand_NonInteractive(t *testing.T) {
	root := t.TempDir()

	stdout, _, err := execute(t, "--root", root, "new", "api", "create-user", "--method", "post", "--body", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created:")

	data, err := os.ReadFile(filepath.Join(root, "api", "create-user.http"))
	require.NoError(t, err)
	assert.Equal(t, "post https://example.com\nContent-Type: application/json\n\n"+workspace.JSONPlaceholder, string(data))
}

func TestNewCommand_RejectsMultiWordMethod(t *testing.T) {
	root := t.TempDir()

	_, _, err := execute(t, "--root", root, "new", "api", "r", "--method", "get foo")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
	assert.NoFileExists(t, filepath.Join(root, "api", "r.http"))
}

func TestNewCommand_RequiresIDWithoutTerminal(t *testing.T) {
	_, _, err := execute(t, "--root", t.TempDir(), "new", "api")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestNewCommand_UnknownBody(t *testing.T) {
	_, _, err := execute(t, "--root", t.TempDir(), "new", "api", "x", "--body", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, exitCode(err))
}

func TestShowCommand(t *testing.T) {
	root := t.TempDir()
	writeRequest(t, root, "api", "get-user", "GET {{base}}/users/1\nAccept: application/json\n")

	stdout, _, err := execute(t, "--root", root, "show", "api", "get-user")
	require.NoError(t, err)
	assert.Equal(t, "GET {{base}}/users/1\nAccept: application/json\n\n", stdout)

	stdout, _, err = execute(t, "--root", root, "show", "api", "get-user", "--resolved", "--var", "base=https://x")
	require.NoError(t, err)
	assert.Equal(t, "GET https://x/users/1\nAccept: application/json\n\n", stdout)
}

func TestRunCommand(t *testing.T) {
	srv := userServer(t)
	root := t.TempDir()
	writeRequest(t, root, "api", "get-user", "GET {{base}}/users/1\nAccept: application/json\n")

	stdout, _, err := execute(t, "--no-color", "--root", root, "run", "api", "get-user",
		"--no-history",
		"--var", "base="+srv.URL,
		"--expect-status", "200",
		"--expect", "body.name == alice",
	)
	require.NoError(t, err)
	assert.Contains(t, stdout, "200 OK")
	assert.Contains(t, stdout, `"name": "alice"`)
	assert.Contains(t, stdout, "2/2 checks passed")
}

func TestRunCommand_FailedCheck(t *testing.T) {
	srv := userServer(t)
	root := t.TempDir()
	writeRequest(t, root, "api", "get-user", "GET "+srv.URL+"/users/1\n")

	stdout, _, err := execute(t, "--no-color", "--root", root, "run", "api", "get-user",
		"--no-history", "--expect-status", "201")
	require.ErrorIs(t, err, errChecksFailed)
	assert.Equal(t, ExitCheckFailure, exitCode(err))
	assert.Contains(t, stdout, "0/1 checks passed")
}

func TestRunCommand_Query(t *testing.T) {
	srv := userServer(t)
	root := t.TempDir()
	writeRequest(t, root, "api", "get-user", "GET "+srv.URL+"/users/1\n")

	stdout, _, err := execute(t, "--root", root, "run", "api", "get-user", "--no-history", "--query", "body.name")
	require.NoError(t, err)
	assert.Equal(t, "alice\n", stdout)

	stdout, stderr, err := execute(t, "--root", root, "run", "api", "get-user", "--no-history", "--query", "body.missing")
	require.ErrorIs(t, err, errChecksFailed)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "matched nothing")
}

func TestRunCommand_WarnsAboutUnresolvedVariables(t *testing.T) {
	srv := userServer(t)
	root := t.TempDir()
	writeRequest(t, root, "api", "get-user", "GET "+srv.URL+"/users/{{userId}}\n")

	_, stderr, err := execute(t, "--no-color", "--root", root, "run", "api", "get-user", "--no-history")
	require.NoError(t, err)
	assert.Contains(t, stderr, "unresolved variables: userId")
}

func TestRunCommand_Errors(t *testing.T) {
	root := t.TempDir()
	writeRequest(t, root, "api", "broken", "\nno method line\n")
	writeRequest(t, root, "api", "offline", "GET http://127.0.0.1:1/\n")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing request", []string{"run", "api", "nope"}, ExitStorageError},
		{"parse error", []string{"run", "api", "broken"}, ExitParseError},
		{"network error", []string{"run", "api", "offline"}, ExitNetworkError},
		{"bad expect", []string{"run", "api", "offline", "--expect", "status =="}, ExitUsageError},
		{"bad output", []string{"run", "api", "offline", "--output", "xml"}, ExitUsageError},
		{"repeat with checks", []string{"run", "api", "offline", "--repeat", "2", "--expect-status", "200"}, ExitUsageError},
		{"unknown environment", []string{"run", "api", "offline", "--env", "nope"}, ExitConfigError},
		{"missing args", []string{"run", "api"}, ExitUsageError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--no-color", "--root", root}, tt.args...)
			args = append(args, "--no-history")
			_, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, exitCode(err))
		})
	}
}

func TestRunCommand_HistoryAndDiff(t *testing.T) {
	srv := userServer(t)
	root := t.TempDir()
	writeRequest(t, root, "api", "get-user", "GET "+srv.URL+"/users/1\n")

	stdout, stderr, err := execute(t, "--no-color", "--root", root, "run", "api", "get-user", "--diff")
	require.NoError(t, err)
	assert.Contains(t, stdout, "200 OK")
	assert.Contains(t, stderr, "no previous run")

	stdout, _, err = execute(t, "--no-color", "--root", root, "run", "api", "get-user", "--diff")
	require.NoError(t, err)
	assert.Contains(t, stdout, "no changes since the last run")

	stdout, _, err = execute(t, "--no-color", "--root", root, "history", "api", "get-user")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(stdout, "api/get-user"))
	assert.Contains(t, stdout, "200 OK")

	stdout, _, err = execute(t, "--root", root, "history", "--prune", "1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted 1 runs\n", stdout)

	// the history file must not show up as a project
	stdout, _, err = execute(t, "--root", root, "project", "list")
	require.NoError(t, err)
	assert.Equal(t, "api\n", stdout)
}

func TestRunCommand_Bench(t *testing.T) {
	srv := userServer(t)
	root := t.TempDir()
	writeRequest(t, root, "api", "get-user", "GET "+srv.URL+"/users/1\n")

	stdout, _, err := execute(t, "--no-color", "--root", root, "run", "api", "get-user",
		"--repeat", "5", "--concurrency", "2", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"total": 5`)
}

func TestValidateCommand(t *testing.T) {
	root := t.TempDir()
	writeRequest(t, root, "api", "good", "GET https://x\n")

	stdout, _, err := execute(t, "--no-color", "--root", root, "validate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ api/good")

	writeRequest(t, root, "api", "bad", "")
	stdout, _, err = execute(t, "--no-color", "--root", root, "validate", "api")
	require.Error(t, err)
	assert.Equal(t, ExitParseError, exitCode(err))
	assert.Contains(t, stdout, "✗ api/bad")
}

func TestImportCurlCommand(t *testing.T) {
	root := t.TempDir()

	_, _, err := execute(t, "--root", root, "import", "curl", "api", "--",
		"curl", "-X", "POST", "https://api.example.com/users", "-H", "Content-Type: application/json", "-d", `{"a":1}`)
	require.NoError(t, err)

	// a second import of the same endpoint gets a fresh id
	_, _, err = execute(t, "--root", root, "import", "curl", "api", "--", "-X", "POST", "https://api.example.com/users")
	require.NoError(t, err)

	stdout, _, err := execute(t, "--root", root, "list", "api")
	require.NoError(t, err)
	assert.Equal(t, "post_users\npost_users_2\n", stdout)

	req, err := parser.ParseFile(filepath.Join(root, "api", "post_users.http"))
	require.NoError(t, err)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, `{"a":1}`, req.BodyString())
}

func TestImportCurlCommand_ExplicitID(t *testing.T) {
	root := t.TempDir()

	_, _, err := execute(t, "--root", root, "import", "curl", "api", "--id", "list-users", "--", "https://api.example.com/users")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "api", "list-users.http"))
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "htup version")
}

func TestCompletion_ProjectsAndRequests(t *testing.T) {
	root := t.TempDir()
	writeRequest(t, root, "users", "get-user", "GET https://x/users/1\n")
	writeRequest(t, root, "users", "list-users", "GET https://x/users\n")
	writeRequest(t, root, "billing", "get-invoice", "GET https://x/invoices/1\n")

	stdout, _, err := execute(t, "__complete", "show", "--root="+root, "u")
	require.NoError(t, err)
	assert.Contains(t, stdout, "users\n")
	assert.NotContains(t, stdout, "billing")

	stdout, _, err = execute(t, "__complete", "show", "--root="+root, "users", "get")
	require.NoError(t, err)
	assert.Contains(t, stdout, "get-user\n")
	assert.NotContains(t, stdout, "list-users")

	stdout, _, err = execute(t, "__complete", "list", "--root="+root, "users", "")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "get-user")
}

type fakeCreator struct {
	project, id, method string
	kind                workspace.BodyKind
}

func (f *fakeCreator) CreateRequest(project, id, method string, kind workspace.BodyKind) (*parser.Request, error) {
	f.project, f.id, f.method, f.kind = project, id, method, kind
	return workspace.NewFromTemplate(method, kind), nil
}

func TestPrompter(t *testing.T) {
	creator := &fakeCreator{}
	w := wizard.New(creator)
	require.NoError(t, w.Start("api"))

	var out bytes.Buffer
	p := &prompter{
		// blank name and bad choices are asked again
		in:  bufio.NewReader(strings.NewReader("\ncreate-user\nx\n9\n2\n2\n")),
		out: &out,
	}

	require.NoError(t, p.name(w))
	require.NoError(t, p.choose(w, "Method"))
	require.NoError(t, p.choose(w, "Body"))

	assert.Equal(t, "api", creator.project)
	assert.Equal(t, "create-user", creator.id)
	assert.Equal(t, "POST", creator.method)
	assert.Equal(t, workspace.BodyJSON, creator.kind)
	assert.Equal(t, wizard.Idle, w.State())
	assert.Contains(t, out.String(), "enter a number between 1 and 5")
}

func TestPrompter_EOFCancels(t *testing.T) {
	w := wizard.New(&fakeCreator{})
	require.NoError(t, w.Start("api"))

	p := &prompter{in: bufio.NewReader(strings.NewReader("")), out: &bytes.Buffer{}}
	assert.ErrorIs(t, p.name(w), errCancelled)
	assert.Equal(t, wizard.Idle, w.State())
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "  a\n  b", indent("a\nb\n", "  "))
}
