// Package wpconfig materializes WordPress's wp-config.php at container start.
//
// On every boot the plugin takes either the existing wp-config.php or, on a
// fresh volume, the shipped wp-config-sample.php, and rewrites the database
// credentials, the eight authentication keys and salts and the table prefix
// from WORDPRESS_* environment variables. Everything else in the file is
// preserved byte for byte.
//
// # Fallback Policy
//
// A supplied, non-empty variable always overrides the value in the file.
// When a variable is missing:
//
//   - an existing configuration keeps its current value
//   - a fresh configuration fails for WORDPRESS_DB_HOST, WORDPRESS_DB_USER
//     and WORDPRESS_DB_PASSWORD
//   - a fresh configuration gets "wordpress" for DB_NAME and "wp_" for
//     table_prefix
//   - a fresh configuration gets a random 64 character key or salt
//
// Any variable may instead be given as VAR_FILE pointing at a file, as
// docker secrets are mounted.
//
// # Reverse Proxy Shim
//
// A fresh configuration receives a snippet, placed right before the
// "That's all, stop editing!" marker, that turns on HTTPS when the request
// arrived with X-Forwarded-Proto: https. Existing files are never patched
// again.
//
// # Usage
//
// Pure synthesis:
//
//	s := wpconfig.NewSynthesizer()
//	res, err := s.Synthesize(wpconfig.Template{Content: sample}, wpconfig.Values{
//		"DB_HOST":     "db",
//		"DB_USER":     "wp",
//		"DB_PASSWORD": "secret",
//	})
//
// The whole startup step, with permission fix-up and audit trail:
//
//	p, err := wpconfig.NewPlugin(wpconfig.DefaultOptions(),
//		wpconfig.WithPluginLogger(logger))
//	if err != nil {
//		return err
//	}
//	report, err := p.Run()
//
// # Errors
//
// Every error carries a go-errors code. ErrCodeConfiguration,
// ErrCodeMalformedTemplate and ErrCodeMissingTemplate are the fatal kinds a
// startup framework should surface; SettingName extracts the offending
// variable or statement.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package wpconfig
