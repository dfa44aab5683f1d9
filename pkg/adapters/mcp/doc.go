// Package mcp exposes flow validation, navigation, scoring and graph
// derivation as Model Context Protocol tools, so assistants can inspect and
// debug flows.
package mcp
