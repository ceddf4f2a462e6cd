package store

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var nonIDChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// SuggestID derives a request id such as "get_users_1" from a method and URL.
// It is used when requests are imported or recorded rather than named by hand.
func SuggestID(method, rawURL string) string {
	path := "/"
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}

	path = strings.Trim(path, "/")
	if path == "" {
		path = "root"
	}

	id := sanitizeID(strings.ToLower(method) + "_" + path)
	if id == "" {
		return "request"
	}
	return id
}

// UniqueID appends _2, _3, ... to id until taken reports false.
func UniqueID(id string, taken func(string) bool) string {
	if !taken(id) {
		return id
	}
	for i := 2; ; i++ {
		candidate := id + "_" + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}

func sanitizeID(name string) string {
	result := nonIDChars.ReplaceAllString(name, "_")
	return strings.Trim(result, "_")
}
