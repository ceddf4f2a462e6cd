// Package workspace implements htup's use cases on top of the project and
// request stores, the HTTP sender and the editor.
//
// Every collaborator is an interface so the CLI wires the file system and
// network implementations while tests substitute fakes.
package workspace
