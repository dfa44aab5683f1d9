// Package forms is the author-side entry point for flow documents.
//
// Manager loads and saves flows through a ports.FlowStore. Saves are gated by
// the graph validator, prune scoring keys that no longer match an option and
// are serialized per form id (locally, and across replicas when a
// ports.DistributedLocker is configured).
package forms
