package render

import (
	"fmt"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
)

// FrameWriter dumps numbered PNG frames of a lattice into a directory.
type FrameWriter struct {
	Dir     string
	W, H    int
	Scale   int
	Palette []color.RGBA
	Every   int

	written int
}

// Frames reports how many frames have been written.
func (f *FrameWriter) Frames() int { return f.written }

// Write stores frame tick when it falls on the configured interval.
func (f *FrameWriter) Write(tick int, cells []uint8) error {
	if f.Every > 1 && tick%f.Every != 0 {
		return nil
	}
	img := Scaled(f.W, f.H, max(f.Scale, 1), cells, f.Palette)
	if img == nil {
		return fmt.Errorf("render: %d cells do not fill a %dx%d frame", len(cells), f.W, f.H)
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(f.Dir, fmt.Sprintf("frame_%05d.png", tick))
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("render: encode %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	f.written++
	return nil
}
