// Package http sends request documents over the network.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts
//   - Redirect handling
//   - Proxy and TLS verification settings
//   - Default headers applied to every request
//   - Response capture with measured latency
package http
