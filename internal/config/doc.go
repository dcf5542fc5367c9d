// Package config loads editer's startup configuration.
//
// # Resolution Order
//
// Values are layered, later sources winning:
//
//  1. Built-in defaults
//  2. The TOML file (explicit path, else ~/.config/editer/config.toml)
//  3. EDITER_* environment variables, optionally seeded from a .env file
//     through LoadEnvFile
//
// A missing config file is not an error; editer runs out of the box against
// a document API on localhost.
//
// # Default Values
//
//   - api_url: http://localhost:8000
//   - share_base_url: http://localhost:5173
//   - store: file (one JSON file per key under data_dir)
//   - data_dir: ~/.local/share/editer
//   - redis_url: redis://localhost:6379/0, redis_prefix: "editer:"
//   - autosave_delay: 700ms
//   - log_file: ~/.local/state/editer/editer.log, log_level: info
//
// # TOML Format
//
//	api_url = "http://localhost:8000"
//	share_base_url = "https://editer.example"
//	store = "redis"
//	redis_url = "redis://localhost:6379/0"
//	autosave_delay = "1s"
//	log_level = "debug"
//
// Every field is optional. Tilde expansion is applied to data_dir and
// log_file.
//
// # Error Handling
//
// Load returns errors for unreadable files, invalid TOML, an unknown store
// name and a non-positive or unparseable autosave_delay.
package config
