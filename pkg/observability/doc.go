/*
Package observability turns engine lifecycle events into Prometheus metrics and
structured log lines.

Metrics and LogHooks both produce a domain.LifecycleHooks value; Chain merges
several of them so a single Engine option can feed every sink.
*/
package observability
