// Package corpus embeds the reference pages shipped with the binary.
package corpus

import (
	"embed"
	"io/fs"
)

//go:embed pages
var pages embed.FS

// FS returns the embedded page files rooted at the pages directory.
func FS() fs.FS {
	sub, err := fs.Sub(pages, "pages")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return sub
}
