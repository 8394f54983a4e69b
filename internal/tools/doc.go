// Package tools wraps host command execution for the media server adapters.
//
// Ownership boundary:
// - one-shot command execution with captured output and exit status
//
// - long-running commands whose stdout is consumed as a stream
package tools
