// Package mp4 reads the audio properties the library stores for m4a
// chapters.
package mp4

import (
	"bytes"
	"io"
	"os"
	"time"

	gomp4 "github.com/abema/go-mp4"
	"github.com/pkg/errors"
)

// AudioInfo describes the audio track of an MP4 container.
type AudioInfo struct {
	Duration  time.Duration
	Timescale uint32
	// Codec is e.g. "AAC-LC" or "HE-AAC". It is empty when the file has no
	// esds box.
	Codec string
	// Bitrate is the average bitrate in bits per second, or 0 if unknown.
	Bitrate uint32
}

// Seconds returns the duration as fractional seconds.
func (i *AudioInfo) Seconds() float64 {
	return i.Duration.Seconds()
}

func Probe(path string) (*AudioInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	return ProbeReader(f)
}

func ProbeReader(r io.ReadSeeker) (*AudioInfo, error) {
	info := &AudioInfo{}
	var duration uint64

	_, err := gomp4.ReadBoxStructure(r, func(h *gomp4.ReadHandle) (interface{}, error) {
		switch h.BoxInfo.Type {
		case gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(), gomp4.BoxTypeMinf(),
			gomp4.BoxTypeStbl(), gomp4.BoxTypeStsd(), gomp4.BoxTypeMp4a():
			return h.Expand()

		case gomp4.BoxTypeMvhd():
			payload, _, err := h.ReadPayload()
			if err != nil {
				return nil, errors.WithStack(err)
			}
			mvhd, ok := payload.(*gomp4.Mvhd)
			if !ok {
				return nil, nil
			}
			info.Timescale = mvhd.Timescale
			if mvhd.Version == 0 {
				duration = uint64(mvhd.DurationV0)
			} else {
				duration = mvhd.DurationV1
			}
			return nil, nil

		case gomp4.BoxTypeEsds():
			var buf bytes.Buffer
			if _, err := h.ReadData(&buf); err != nil {
				return nil, errors.WithStack(err)
			}
			info.Codec, info.Bitrate = parseEsds(buf.Bytes())
			return nil, nil
		}
		return nil, nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if info.Timescale == 0 {
		return nil, ErrNotMP4
	}

	info.Duration = time.Duration(float64(duration) / float64(info.Timescale) * float64(time.Second))
	return info, nil
}
