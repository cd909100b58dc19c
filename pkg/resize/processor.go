package resize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/yuya-takeyama/strict-resize-sync/pkg/derive"
	"github.com/yuya-takeyama/strict-resize-sync/pkg/store"
)

// DefaultQuality is the JPEG quality used when a variant leaves it at zero.
const DefaultQuality = 85

// Processor renders one derivative per job and hands it to a store.
type Processor struct {
	Filter imaging.ResampleFilter
}

func NewProcessor() *Processor {
	return &Processor{Filter: imaging.Lanczos}
}

// Process renders job and writes it to st. It returns the number of bytes
// written.
func (p *Processor) Process(ctx context.Context, job derive.ResizeJob, st store.Store) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(job.Source)
	if err != nil {
		return 0, fmt.Errorf("failed to read source: %w", err)
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return 0, fmt.Errorf("failed to decode %s: %w", job.Source, err)
	}

	format, err := imaging.FormatFromFilename(job.Destination)
	if err != nil {
		return 0, fmt.Errorf("cannot encode %s: %w", job.Destination, err)
	}

	body, err := p.Encode(src, job.Variant, format)
	if err != nil {
		return 0, err
	}

	err = st.Put(ctx, &store.PutRequest{
		Path:    job.Destination,
		Body:    body,
		ModTime: captureTime(job.Source, data),
	})
	if err != nil {
		return 0, err
	}
	return int64(len(body)), nil
}

// Encode renders src for v and encodes it in format. Quality only applies
// to JPEG.
func (p *Processor) Encode(src image.Image, v derive.SizeVariant, format imaging.Format) ([]byte, error) {
	var opts []imaging.EncodeOption
	if format == imaging.JPEG {
		quality := v.Quality
		if quality == 0 {
			quality = DefaultQuality
		}
		opts = append(opts, imaging.JPEGQuality(quality))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, p.Render(src, v), format, opts...); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", v.Name, err)
	}
	return buf.Bytes(), nil
}

// Render resizes src for v. Fit keeps the aspect ratio inside the bounding
// box and never upscales; a zero dimension leaves that side unbounded. Fill
// crops to exactly Width x Height around the center.
func (p *Processor) Render(src image.Image, v derive.SizeVariant) image.Image {
	filter := p.Filter
	if filter.Kernel == nil {
		filter = imaging.Lanczos
	}

	if v.Mode == derive.ModeFill {
		return imaging.Fill(src, v.Width, v.Height, imaging.Center, filter)
	}

	b := src.Bounds()
	switch {
	case v.Width == 0:
		if b.Dy() <= v.Height {
			return imaging.Clone(src)
		}
		return imaging.Resize(src, 0, v.Height, filter)
	case v.Height == 0:
		if b.Dx() <= v.Width {
			return imaging.Clone(src)
		}
		return imaging.Resize(src, v.Width, 0, filter)
	default:
		return imaging.Fit(src, v.Width, v.Height, filter)
	}
}

// captureTime prefers EXIF DateTimeOriginal and falls back to the source's
// modification time. The zero time means neither was available.
func captureTime(path string, data []byte) time.Time {
	if x, err := exif.Decode(bytes.NewReader(data)); err == nil {
		if t, err := x.DateTime(); err == nil {
			return t
		}
	}
	if info, err := os.Stat(path); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}
