package media

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	libraryDir string
}

// serve streams a file from the library. Range requests are handled by
// c.File.
func (h *handler) serve(c echo.Context) error {
	full, err := h.resolve(c.Param("*"))
	if err != nil {
		return err
	}

	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return errcodes.NotFound("File")
		}
		return errors.WithStack(err)
	}
	if info.IsDir() {
		return errcodes.NotFound("File")
	}

	mtype, err := mimetype.DetectFile(full)
	if err != nil {
		logger.FromContext(c.Request().Context()).Err(err).Warn("failed to detect content type", logger.Data{"path": full})
	} else {
		c.Response().Header().Set(echo.HeaderContentType, mtype.String())
	}

	return errors.WithStack(c.File(full))
}

// resolve maps the request path to a file inside the library directory.
func (h *handler) resolve(param string) (string, error) {
	p, err := url.PathUnescape(param)
	if err != nil {
		return "", errcodes.NotFound("File")
	}
	if strings.Contains(p, "\x00") {
		return "", errcodes.NotFound("File")
	}

	// Cleaning a rooted path drops any leading "..".
	clean := strings.TrimPrefix(path.Clean("/"+p), "/")
	if clean == "" {
		return "", errcodes.NotFound("File")
	}

	root, err := filepath.Abs(h.libraryDir)
	if err != nil {
		return "", errors.WithStack(err)
	}
	full := filepath.Join(root, filepath.FromSlash(clean))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errcodes.Forbidden("Reading outside the library")
	}

	return full, nil
}
