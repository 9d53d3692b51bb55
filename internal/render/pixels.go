package render

import (
	"image"
	"image/color"
)

// fillPaletteRGBA converts cell values into RGBA pixels using a palette.
// Values past the end of the palette take its last color; an empty palette
// clears the buffer to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:len(cells)*4])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := min(int(c), last)
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// RGBA paints cells into a w*h image, one pixel per cell. It returns nil
// when the cell count does not match the dimensions.
func RGBA(w, h int, cells []uint8, palette []color.RGBA) *image.RGBA {
	if w <= 0 || h <= 0 || len(cells) != w*h {
		return nil
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fillPaletteRGBA(img.Pix, cells, palette)
	return img
}

// Scaled paints cells with every cell expanded to a scale*scale block.
func Scaled(w, h, scale int, cells []uint8, palette []color.RGBA) *image.RGBA {
	src := RGBA(w, h, cells, palette)
	if src == nil || scale <= 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w*scale, h*scale))
	for y := 0; y < h*scale; y++ {
		row := src.Pix[(y/scale)*src.Stride:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < w*scale; x++ {
			copy(out[x*4:x*4+4], row[(x/scale)*4:(x/scale)*4+4])
		}
	}
	return dst
}
