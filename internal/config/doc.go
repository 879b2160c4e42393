// Package config resolves the effective quorum configuration.
//
// Settings merge from four layers, each overriding the ones below it:
// CLI flags, then QUORUM_* environment variables, then the config file
// at $XDG_CONFIG_HOME/quorum/config.json, then built-in defaults.
//
// [Load] produces the merged [Config]. [Save] and [SetField] edit the
// config file, and [LoadRoster] reads a YAML agent roster that replaces
// or extends the built-in reviewer panel.
package config
