// Package player exposes the playback sessions over HTTP. Every route acts on
// the session of the logged-in user.
package player

import (
	"github.com/audiobookroom/audiobookroom/pkg/auth"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/audiobookroom/audiobookroom/pkg/playback"
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers player routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, manager *playback.Manager, authMiddleware *auth.Middleware) {
	h := &handler{manager: manager}

	write := authMiddleware.RequirePermission(models.ResourceProgress, models.OperationWrite)

	g.GET("", h.retrieve)
	g.DELETE("", h.stop)
	g.POST("/load", h.load, write)
	g.POST("/resume", h.resume, write)
	g.POST("/time", h.timeUpdate, write)
	g.POST("/ended", h.ended, write)
	g.POST("/next", h.next, write)
	g.POST("/previous", h.previous, write)
	g.POST("/pause", h.pause, write)
	g.POST("/play", h.play, write)
	g.POST("/sleep", h.armSleep, write)
	g.DELETE("/sleep", h.cancelSleep, write)
}
