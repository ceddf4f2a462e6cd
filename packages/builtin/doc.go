// Package builtin provides the functions available inside {{...}} placeholders
// of request documents.
//
// Available functions:
//   - uuid(): random UUID v4
//   - now(): current time, RFC 3339
//   - date(layout): current time in a Go time layout, default 2006-01-02
//   - timestamp(), timestampMs(): Unix time in seconds or milliseconds
//   - randomInt(min, max): random integer in [min, max]
//   - randomString(length): random alphanumeric string
//   - base64(value), urlEncode(value), sha256(value)
package builtin
