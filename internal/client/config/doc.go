// Package config loads runtime configuration for the Thought Board CLI.
//
// Sources, lowest precedence first:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c/-config or the CONFIG variable.
//  3. Environment: THOUGHTBOARD_URL and THOUGHTBOARD_TOKEN.
//  4. Flags: -a (server URL), -token and -timeout.
//
// JSON example:
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "timeout": "5s"
//	}
package config
