// Package pipewire implements session.Transport on top of the PipeWire
// command-line tools.
//
// Ownership boundary:
// - registry observation through `pw-dump --monitor`
//
// - link creation through `pw-cli create-object link-factory`
package pipewire
