// Package ui embeds the panel's templates and static assets.
package ui

import "embed"

// Assets holds web/templates and web/static.
//
//go:embed web
var Assets embed.FS
