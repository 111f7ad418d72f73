// Package observability provides structured logging and Prometheus metrics
// for the rep co-pilot backend.
//
// Loggers are zap-based and pick up the chi request ID from the request
// context. Metrics cover compliance decisions, gateway outcomes and LLM
// provider latency, and are served from /metrics.
package observability
