// Package bench sends one request repeatedly and summarizes the results.
//
// `htup run --repeat N` uses it to report status codes and latency
// percentiles. Requests may be paced with a token bucket (--rate) and run in
// parallel up to a concurrency limit (--concurrency).
package bench
