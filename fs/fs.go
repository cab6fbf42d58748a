// Package appfs embeds the files the binaries ship with.
package appfs

import "embed"

// FS holds the SQL migrations under `migrations/`.
//go:embed migrations
var FS embed.FS
