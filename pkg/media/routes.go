// Package media serves chapter audio from the library directory.
package media

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers the file route on a group that already
// requires a login.
func RegisterRoutesWithGroup(g *echo.Group, libraryDir string) {
	h := &handler{libraryDir: libraryDir}

	g.GET("/*", h.serve)
	g.HEAD("/*", h.serve)
}
