// Package config loads runtime configuration for the photosync CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via flags: -c or -config.
//  3. A .env file in the working directory, then the process environment
//     (PHOTOSYNC_* variables).
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   gallery API base URL
//	-d string   album directory
//	-db string  ledger database file
//	-u string   user id
//	-t string   access token
//	-v          verbose (debug) logging
//
// # JSON schema
//
// The JSON loader uses timex.Duration for timeouts, so values can be either
// strings like "30s" or integer nanoseconds:
//
//	{
//	  "server_url": "https://gallery.example.com",
//	  "album_dir": "/home/me/Pictures",
//	  "database_path": "/home/me/.photosync/ledger.db",
//	  "metadata_timeout": "30s",
//	  "transfer_timeout": "5m",
//	  "transfer_attempts": 3,
//	  "max_width": 1920,
//	  "max_height": 1080,
//	  "jpeg_quality": 80,
//	  "concurrency": 4
//	}
//
// Fields absent from the file keep their previous value.
package config
