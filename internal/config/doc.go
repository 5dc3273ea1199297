// Package config manages user-level settings stored at ~/.membank/config.yaml.
// Values are layered defaults < config file < MEMBANK_* environment variables
// and resolved into a validated Settings value that is passed explicitly to
// the network client and sync engine.
package config
