// Package curl turns curl command lines into htup request documents.
package curl

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/snptkdn/htup/packages/core/parser"
	"github.com/snptkdn/htup/packages/store"
)

// Converter converts curl commands to request documents.
type Converter struct{}

// NewConverter creates a new curl converter.
func NewConverter() *Converter {
	return &Converter{}
}

// ParsedCurl represents a parsed curl command.
type ParsedCurl struct {
	Method          string
	URL             string
	Headers         parser.Headers
	Body            string
	BasicAuth       string
	Insecure        bool
	FollowRedirects bool
	// ID is a suggested request id derived from the method and URL path.
	ID string
}

// Imported is one converted command.
type Imported struct {
	ID      string
	Request *parser.Request
}

// ConvertCommand converts a single curl command line.
func (c *Converter) ConvertCommand(curlCmd string) (*Imported, error) {
	parsed, err := c.Parse(curlCmd)
	if err != nil {
		return nil, err
	}
	return &Imported{ID: parsed.ID, Request: c.ToRequest(parsed)}, nil
}

// ConvertArgs converts curl arguments that were already split by a shell,
// e.g. everything after `--` on the htup command line.
func (c *Converter) ConvertArgs(args []string) (*Imported, error) {
	parsed, err := c.ParseArgs(args)
	if err != nil {
		return nil, err
	}
	return &Imported{ID: parsed.ID, Request: c.ToRequest(parsed)}, nil
}

// ConvertFile converts a file with one curl command per line. Lines ending in
// a backslash continue on the next line; blank lines and # comments are
// skipped.
func (c *Converter) ConvertFile(path string) ([]*Imported, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var commands []string
	var currentCmd strings.Builder
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Handle line continuations
		if strings.HasSuffix(line, "\\") {
			currentCmd.WriteString(strings.TrimSuffix(line, "\\"))
			currentCmd.WriteString(" ")
			continue
		}

		currentCmd.WriteString(line)
		commands = append(commands, currentCmd.String())
		currentCmd.Reset()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if currentCmd.Len() > 0 {
		commands = append(commands, currentCmd.String())
	}

	imported := make([]*Imported, 0, len(commands))
	for i, cmd := range commands {
		converted, err := c.ConvertCommand(cmd)
		if err != nil {
			return nil, fmt.Errorf("failed to convert command %d: %w", i+1, err)
		}
		imported = append(imported, converted)
	}

	return imported, nil
}

// Parse parses a curl command string into a ParsedCurl struct.
func (c *Converter) Parse(curlCmd string) (*ParsedCurl, error) {
	curlCmd = strings.TrimSpace(curlCmd)
	if curlCmd == "curl" {
		return nil, fmt.Errorf("no URL specified")
	}
	return c.ParseArgs(tokenize(curlCmd))
}

type parseState struct {
	parsed        *ParsedCurl
	data          []string
	methodFromArg bool
}

// valueFlags take the following token as their value.
var valueFlags = map[string]func(st *parseState, v string){
	"-X":            setMethod,
	"--request":     setMethod,
	"-H":            addHeader,
	"--header":      addHeader,
	"-d":            addData,
	"--data":        addData,
	"--data-raw":    addData,
	"--data-binary": addData,
	"--data-ascii":  addData,
	"--json":        addJSON,
	"-u":            func(st *parseState, v string) { st.parsed.BasicAuth = v },
	"--user":        func(st *parseState, v string) { st.parsed.BasicAuth = v },
	"-A":            headerFlag("User-Agent"),
	"--user-agent":  headerFlag("User-Agent"),
	"-e":            headerFlag("Referer"),
	"--referer":     headerFlag("Referer"),
	"-b":            headerFlag("Cookie"),
	"--cookie":      headerFlag("Cookie"),
	"--url":         func(st *parseState, v string) { st.parsed.URL = v },
}

// switchFlags take no value.
var switchFlags = map[string]func(st *parseState){
	"-I":         setHead,
	"--head":     setHead,
	"-k":         func(st *parseState) { st.parsed.Insecure = true },
	"--insecure": func(st *parseState) { st.parsed.Insecure = true },
	"-L":         func(st *parseState) { st.parsed.FollowRedirects = true },
	"--location": func(st *parseState) { st.parsed.FollowRedirects = true },
}

func setMethod(st *parseState, v string) {
	st.parsed.Method = strings.ToUpper(v)
	st.methodFromArg = true
}

func setHead(st *parseState) {
	st.parsed.Method = "HEAD"
	st.methodFromArg = true
}

func addHeader(st *parseState, v string) {
	if key, val, ok := strings.Cut(v, ":"); ok {
		st.parsed.Headers.Set(strings.TrimSpace(key), strings.TrimSpace(val))
	}
}

func addData(st *parseState, v string) {
	st.data = append(st.data, v)
}

// addJSON is --json: the data plus JSON Content-Type and Accept headers
// unless they were given explicitly.
func addJSON(st *parseState, v string) {
	addData(st, v)
	for _, name := range []string{"Content-Type", "Accept"} {
		if _, ok := st.parsed.Headers.Lookup(name); !ok {
			st.parsed.Headers.Set(name, "application/json")
		}
	}
}

func headerFlag(name string) func(*parseState, string) {
	return func(st *parseState, v string) {
		st.parsed.Headers.Set(name, v)
	}
}

// ParseArgs parses curl arguments. A leading "curl" is ignored. Short value
// options also work attached to their value, as in -XPOST.
func (c *Converter) ParseArgs(tokens []string) (*ParsedCurl, error) {
	st := &parseState{parsed: &ParsedCurl{Method: "GET"}}
	if len(tokens) > 0 && tokens[0] == "curl" {
		tokens = tokens[1:]
	}

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		if set, ok := switchFlags[token]; ok {
			set(st)
			continue
		}
		if apply, ok := valueFlags[token]; ok {
			if i+1 >= len(tokens) {
				return nil, fmt.Errorf("missing value for %s", token)
			}
			i++
			apply(st, tokens[i])
			continue
		}
		if len(token) > 2 && token[0] == '-' && token[1] != '-' {
			if apply, ok := valueFlags[token[:2]]; ok {
				apply(st, token[2:])
				continue
			}
		}

		switch {
		case strings.HasPrefix(token, "-"):
			// unknown flag: skip its value too when one follows
			if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
				i++
			}
		case st.parsed.URL == "" && isURL(token):
			st.parsed.URL = token
		}
	}

	parsed := st.parsed
	if parsed.URL == "" {
		return nil, fmt.Errorf("no URL found in curl command")
	}
	if len(st.data) > 0 {
		// curl joins repeated -d values with '&'
		parsed.Body = strings.Join(st.data, "&")
		if !st.methodFromArg {
			parsed.Method = "POST"
		}
	}

	parsed.ID = store.SuggestID(parsed.Method, parsed.URL)
	return parsed, nil
}

// ToRequest converts a ParsedCurl to a request document. Basic credentials
// become an Authorization header.
func (c *Converter) ToRequest(parsed *ParsedCurl) *parser.Request {
	req := parser.NewRequest(parsed.Method, parsed.URL)
	req.Headers = append(req.Headers, parsed.Headers...)

	if parsed.BasicAuth != "" {
		if _, ok := req.Headers.Lookup("Authorization"); !ok {
			token := base64.StdEncoding.EncodeToString([]byte(parsed.BasicAuth))
			req.Headers.Set("Authorization", "Basic "+token)
		}
	}

	if parsed.Body != "" {
		req.Body = parser.NewBody(parsed.Body)
	}
	return req
}

// tokenize splits a command line the way a POSIX shell would for the quoting
// curl commands use: single quotes are literal, double quotes and a backslash
// outside single quotes protect whitespace.
func tokenize(cmd string) []string {
	var (
		tokens  []string
		current strings.Builder
		quote   rune
		escaped bool
		inToken bool
	)
	flush := func() {
		if inToken {
			tokens = append(tokens, current.String())
			current.Reset()
			inToken = false
		}
	}

	for _, r := range cmd {
		switch {
		case escaped:
			// backslash-newline continues the line
			if r != '\n' {
				current.WriteRune(r)
				inToken = true
			}
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	flush()
	return tokens
}

// isURL checks if a string looks like a URL.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "{{")
}
