// Package cli defines the Cobra command tree for the membank CLI. Each file
// in this package registers one top-level command with the root command.
// Commands only parse flags, wire the internal packages together and format
// output; the work happens in installer, updater and selfinstall.
package cli
