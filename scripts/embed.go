// Package scripts bundles the scanner scripts shipped with metascan.
package scripts

import "embed"

// FS holds the bundled scripts under scanners/.
//
//go:embed scanners/*.risor
var FS embed.FS

// Builtin maps a bundled script name to the store category it writes.
var Builtin = map[string]string{
	"injection": "InjectionPoints",
	"entities":  "Entities",
}
