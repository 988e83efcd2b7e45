package diagnostics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"e2e-harness/internal/application/port/output"
	"e2e-harness/internal/domain/entity"

	"github.com/disintegration/imaging"
)

var _ output.SnapshotPort = (*Capturer)(nil)

const (
	DefaultMaxWidth = 1024
	jpegQuality     = 75
)

// Capturer records what the page looked like when a step failed: the
// cleaned DOM and a downscaled JPEG screenshot.
type Capturer struct {
	maxWidth int
	clean    *CleanConfig
}

func NewCapturer(maxWidth int) *Capturer {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	return &Capturer{maxWidth: maxWidth, clean: &DefaultCleanConfig}
}

// Capture collects whatever it can. A snapshot with only the DOM or only the
// screenshot is still returned; an error means neither could be taken.
func (c *Capturer) Capture(ctx context.Context, page output.Page) (*entity.Snapshot, error) {
	snap := &entity.Snapshot{URL: page.URL(), CapturedAt: time.Now()}

	rawHTML, domErr := page.HTML(ctx)
	if domErr == nil {
		snap.DOM = CleanDOM(rawHTML, c.clean)
	}

	shotErr := c.screenshot(ctx, page, snap)

	if domErr != nil && shotErr != nil {
		return nil, errors.Join(domErr, shotErr)
	}
	return snap, nil
}

func (c *Capturer) screenshot(ctx context.Context, page output.Page, snap *entity.Snapshot) error {
	raw, err := page.Screenshot(ctx)
	if err != nil {
		return err
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("image decode failed: %w", err)
	}
	if img.Bounds().Dx() > c.maxWidth {
		img = imaging.Resize(img, c.maxWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("jpeg encode failed: %w", err)
	}

	snap.Screenshot = buf.Bytes()
	snap.Format = "jpeg"
	snap.Width = img.Bounds().Dx()
	snap.Height = img.Bounds().Dy()
	return nil
}

// Write stores the snapshot as <dir>/<name>.html and <dir>/<name>.jpg and
// returns the paths written.
func Write(dir, name string, snap *entity.Snapshot) ([]string, error) {
	if snap == nil {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create artifacts dir: %w", err)
	}

	var written []string
	if snap.DOM != "" {
		p := filepath.Join(dir, name+".html")
		body := fmt.Sprintf("<!-- %s captured %s -->\n%s", snap.URL, snap.CapturedAt.Format(time.RFC3339), snap.DOM)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			return written, fmt.Errorf("write dom snapshot: %w", err)
		}
		written = append(written, p)
	}
	if len(snap.Screenshot) > 0 {
		p := filepath.Join(dir, name+".jpg")
		if err := os.WriteFile(p, snap.Screenshot, 0644); err != nil {
			return written, fmt.Errorf("write screenshot: %w", err)
		}
		written = append(written, p)
	}
	return written, nil
}
