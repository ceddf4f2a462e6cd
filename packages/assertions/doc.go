// Package assertions checks responses against expressions such as
//
//	status == 200
//	header Content-Type contains json
//	body.items length 3
//	body.user.email matches /@example\.com$/
//	body schema ./user.schema.json
//
// The subject of a check is a capture query, so the same paths work for
// `htup run --query` and `htup run --expect`.
package assertions
