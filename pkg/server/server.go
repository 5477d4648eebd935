package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/audiobookroom/audiobookroom/pkg/auth"
	"github.com/audiobookroom/audiobookroom/pkg/authors"
	"github.com/audiobookroom/audiobookroom/pkg/binder"
	"github.com/audiobookroom/audiobookroom/pkg/books"
	"github.com/audiobookroom/audiobookroom/pkg/chapters"
	"github.com/audiobookroom/audiobookroom/pkg/config"
	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/jobs"
	"github.com/audiobookroom/audiobookroom/pkg/media"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/audiobookroom/audiobookroom/pkg/playback"
	"github.com/audiobookroom/audiobookroom/pkg/player"
	"github.com/audiobookroom/audiobookroom/pkg/progress"
	"github.com/audiobookroom/audiobookroom/pkg/roles"
	"github.com/audiobookroom/audiobookroom/pkg/testutils"
	"github.com/audiobookroom/audiobookroom/pkg/users"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB, manager *playback.Manager) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	_, authMiddleware := auth.RegisterRoutes(e, db, cfg)

	users.RegisterRoutes(e, db, authMiddleware)

	registerProtectedRoutes(e, db, cfg, manager, authMiddleware)

	if cfg.Environment == "test" {
		testutils.RegisterRoutes(e, db)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

// registerProtectedRoutes registers every route that needs a logged-in user.
// Groups require read access; writes are checked per route.
func registerProtectedRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, manager *playback.Manager, authMiddleware *auth.Middleware) {
	group := func(prefix, resource string) *echo.Group {
		g := e.Group(prefix)
		g.Use(authMiddleware.Authenticate)
		g.Use(authMiddleware.RequirePermission(resource, models.OperationRead))
		return g
	}

	authors.RegisterRoutesWithGroup(group("/authors", models.ResourceAuthors), db)
	books.RegisterRoutesWithGroup(group("/books", models.ResourceBooks), db, cfg, authMiddleware)
	chapters.RegisterRoutesWithGroup(group("/chapters", models.ResourceChapters), db)
	progress.RegisterRoutesWithGroup(group("/progress", models.ResourceProgress), db, authMiddleware)
	jobs.RegisterRoutesWithGroup(group("/jobs", models.ResourceJobs), db, authMiddleware)
	roles.RegisterRoutesWithGroup(group("/roles", models.ResourceUsers), db, authMiddleware)
	player.RegisterRoutesWithGroup(group("/player", models.ResourceProgress), manager, authMiddleware)
	config.RegisterRoutes(group("/config", models.ResourceConfig), cfg)

	fetchbook := e.Group("/fetchbook")
	fetchbook.Use(authMiddleware.Authenticate)
	fetchbook.Use(authMiddleware.RequirePermission(models.ResourceChapters, models.OperationRead))
	media.RegisterRoutesWithGroup(fetchbook, cfg.LibraryDir)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
