// Package store persists projects and request documents on the file system.
//
// The layout under the workspace root is one directory per project holding one
// <id>.http file per request:
//
//	root/
//	  billing/
//	    create-invoice.http
//	    list-invoices.http
//
// Project names and request ids are used verbatim as path segments.
package store
