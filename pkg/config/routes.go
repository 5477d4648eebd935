package config

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers config routes. Callers attach authentication to
// the group before passing it in.
func RegisterRoutes(g *echo.Group, cfg *Config) {
	h := &handler{configService: NewService(cfg)}

	g.GET("", h.retrieve)
}
