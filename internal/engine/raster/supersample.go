package raster

import (
	"image"

	"golang.org/x/image/draw"
)

// downsample shrinks a premultiplied frame to w x h with CatmullRom filtering
// and returns it unpremultiplied. Filtering premultiplied color keeps
// transparent edges free of dark halos.
func downsample(src *image.RGBA, w, h int) *image.NRGBA {
	dst := src
	if src.Bounds().Dx() != w || src.Bounds().Dy() != h {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}

	out := image.NewNRGBA(dst.Bounds())
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		a := dst.Pix[i+3]
		out.Pix[i+3] = a
		if a == 0 {
			continue
		}
		if a == 255 {
			copy(out.Pix[i:i+3], dst.Pix[i:i+3])
			continue
		}
		inv := 255 / float32(a)
		out.Pix[i] = clamp8(float32(dst.Pix[i]) * inv)
		out.Pix[i+1] = clamp8(float32(dst.Pix[i+1]) * inv)
		out.Pix[i+2] = clamp8(float32(dst.Pix[i+2]) * inv)
	}
	return out
}

func clamp8(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
