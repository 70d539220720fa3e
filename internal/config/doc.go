// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for ragchat.
//
// Configuration is layered, later sources winning:
//
//   - Built-in defaults (Default)
//   - ~/.ragchat/config.toml, or the file named by --config
//   - A .env file in the working directory (never overrides variables
//     already present in the environment)
//   - RAGCHAT_* environment variables
//   - Command-line flags, applied by the cli package
//
// # Example config.toml
//
//	[backend]
//	url = "http://localhost:8000"
//	stream_path = "/rag/stream"
//	static_path = "/rag/static/"
//
//	[logging]
//	level = "debug"
//
//	[ui]
//	title = "Epic v. Apple Legal Assistant"
//	theme = "auto"
//
// # Hot reload
//
// Watch observes the config file and hands every successfully parsed
// revision to a callback. The chat UI uses it to pick up a new backend for
// the next turn without restarting.
package config
