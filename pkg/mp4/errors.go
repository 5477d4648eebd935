package mp4

import "errors"

// ErrNotMP4 is returned when the file has no movie header.
var ErrNotMP4 = errors.New("not a valid MP4/M4A file")
