// Package config loads contrail's configuration.
//
// # Resolution Order
//
// Each setting is resolved from, highest priority first:
//
//  1. Command-line flags that were set explicitly
//  2. CONTRAIL_* environment variables (CONTRAIL_CAPACITY, CONTRAIL_FORMAT, ...)
//  3. The TOML config file, ~/.config/contrail/config.toml unless a path is given
//  4. Built-in defaults
//
// A missing config file is not an error; contrail works without one.
//
// # TOML Format
//
//	capacity = 16384
//	format = "auto"          # auto, plain, text, json, logcat
//	source_poll = "100ms"
//	check_interval = "25ms"  # clamped to [20ms, 50ms]
//	log_file = "~/.local/state/contrail/contrail.log"
//
//	[[sources]]
//	kind = "dir"
//	path = "/var/log/myapp"
//	pattern = "**/*.log"
//
//	[[sources]]
//	kind = "exec"
//	command = "adb"
//	args = ["logcat", "-v", "long"]
//	record_start = '^\[ \d{2}-\d{2} '
//	retry = true
//
// Durations use Go syntax ("250ms", "1s"). Paths get tilde expansion and are
// made absolute.
//
// # Validation
//
// Load calls Validate, which rejects a non-positive capacity, an unknown
// format, unknown source kinds and sources missing their path or command.
// Everything else is clamped or defaulted by the components that use it.
package config
