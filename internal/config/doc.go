// Package config provides the faultline configuration model.
//
// Configuration is resolved in layers, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment Variables   │  ← FAULTLINE_*, highest priority
//	├─────────────────────────────┤
//	│  2. Config File             │  ← TOML or YAML, chosen by extension
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// A missing config file is not an error; the defaults apply.
//
// # Example
//
//	[display]
//	verbose = true
//
//	[escalation]
//	severities = ["errors", "UserWarning"]
//
//	[[handlers]]
//	id = "audit"
//	type = "jsonl"
//	path = "/var/log/faults.jsonl"
//	priority = 50
//
// # Sub-packages
//
//   - loader: File and environment loading into generic maps
//   - watcher: fsnotify-based change notification for live reload
package config
