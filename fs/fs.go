// Package appfs embeds non-Go assets (DB migrations, email templates)
// so built binaries do not depend on the source tree layout.
package appfs

import "embed"

//go:embed migrations templates
var FS embed.FS
