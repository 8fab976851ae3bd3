// Package assets holds the browser page served by the daemon.
package assets

import "embed"

//go:embed index.html js
var FS embed.FS
