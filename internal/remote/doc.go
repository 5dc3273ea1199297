// Package remote talks to the repository that hosts the extension files.
// File content comes from the raw content host; directory listings come from
// the GitHub contents API and are checked against an embedded JSON schema
// before use. Every request goes through the retry primitive with a
// per-attempt timeout taken from config.Settings.
package remote
