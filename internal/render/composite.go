package render

import (
	"image"

	"github.com/vixalabs/vixa/internal/types"
)

// compositeLayer paints a finished layer scratch onto the frame, applying
// the layer's blend mode and mirror flips. dst is the opaque frame; src is
// premultiplied RGBA with the layer opacity already folded into alpha.
func compositeLayer(dst, src *image.RGBA, blend types.BlendMode, mirrorH, mirrorV bool) {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()

	for y := 0; y < h; y++ {
		sy := y
		if mirrorV {
			sy = h - 1 - y
		}
		drow := dst.Pix[y*dst.Stride:]
		srow := src.Pix[sy*src.Stride:]
		for x := 0; x < w; x++ {
			sx := x
			if mirrorH {
				sx = w - 1 - x
			}
			si := sx * 4
			sa := uint32(srow[si+3])
			if sa == 0 {
				continue
			}
			di := x * 4
			sr := uint32(srow[si])
			sg := uint32(srow[si+1])
			sb := uint32(srow[si+2])
			dr := uint32(drow[di])
			dg := uint32(drow[di+1])
			db := uint32(drow[di+2])

			var or, og, ob uint32
			switch blend {
			case types.BlendAdd:
				or = clamp255(dr + sr)
				og = clamp255(dg + sg)
				ob = clamp255(db + sb)
			case types.BlendMultiply:
				or = blendThrough(dr, sr, sa, func(d, s uint32) uint32 { return d * s / 255 })
				og = blendThrough(dg, sg, sa, func(d, s uint32) uint32 { return d * s / 255 })
				ob = blendThrough(db, sb, sa, func(d, s uint32) uint32 { return d * s / 255 })
			case types.BlendScreen:
				or = blendThrough(dr, sr, sa, func(d, s uint32) uint32 { return 255 - (255-d)*(255-s)/255 })
				og = blendThrough(dg, sg, sa, func(d, s uint32) uint32 { return 255 - (255-d)*(255-s)/255 })
				ob = blendThrough(db, sb, sa, func(d, s uint32) uint32 { return 255 - (255-d)*(255-s)/255 })
			default: // source-over
				or = sr + dr*(255-sa)/255
				og = sg + dg*(255-sa)/255
				ob = sb + db*(255-sa)/255
			}

			drow[di] = uint8(or)
			drow[di+1] = uint8(og)
			drow[di+2] = uint8(ob)
			drow[di+3] = 0xFF
		}
	}
}

// blendThrough applies a separable blend function between the opaque
// destination and the unpremultiplied source color, then interpolates the
// result back over the destination by the source alpha.
func blendThrough(d, sPre, sa uint32, f func(d, s uint32) uint32) uint32 {
	s := sPre * 255 / sa
	if s > 255 {
		s = 255
	}
	blended := f(d, s)
	return (blended*sa + d*(255-sa)) / 255
}

func clamp255(v uint32) uint32 {
	if v > 255 {
		return 255
	}
	return v
}

// clearRGBA zeroes every pixel of the image.
func clearRGBA(img *image.RGBA) {
	for i := range img.Pix {
		img.Pix[i] = 0
	}
}
