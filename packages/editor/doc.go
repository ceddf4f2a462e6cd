// Package editor opens stored request documents in the user's text editor.
package editor
