package world

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// ImageLoader decodes raster and vector image bytes into a raster
// image.Image the layout engine can place into a frame. Raster decoding
// via disintegration/imaging, vector rasterizing via oksvg+rasterx, and
// content-type sniffing via h2non/filetype — the same trio the teacher
// uses for vignette/cover handling (state/vignettes_svg_rasterize_test.go,
// utils/images/svg.go), repurposed from "decode an FB2 cover image" to
// "decode an image(...) content element's source bytes".
type ImageLoader struct{}

func NewImageLoader() *ImageLoader { return &ImageLoader{} }

// Load decodes data, resizing when w or h is positive: to fit (w, h) if
// both are, else to the one given side with the aspect ratio kept (0 means
// "use the image's own size along that axis", matching the teacher's
// RasterizeSVGToImage sizing rules).
func (l *ImageLoader) Load(data []byte, w, h int) (image.Image, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("sniff image type: %w", err)
	}
	if kind == filetype.Unknown {
		return nil, fmt.Errorf("unrecognized image format")
	}

	if kind.MIME.Value == "image/svg+xml" {
		return l.loadSVG(data, w, h)
	}
	return l.loadRaster(data, w, h)
}

func (l *ImageLoader) loadRaster(data []byte, w, h int) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode raster image: %w", err)
	}
	if w > 0 && h > 0 {
		img = imaging.Fit(img, w, h, imaging.Lanczos)
	} else if w > 0 {
		img = imaging.Resize(img, w, 0, imaging.Lanczos)
	} else if h > 0 {
		img = imaging.Resize(img, 0, h, imaging.Lanczos)
	}
	return img, nil
}

const defaultSVGSize = 2048

// loadSVG rasterizes an SVG to a fixed-size RGBA canvas, adapted from the
// teacher's RasterizeSVGToImage (utils/images/svg.go): same viewBox-driven
// sizing fallback, without the Kindle-specific stroke-width scaling this
// pipeline has no use for.
func (l *ImageLoader) loadSVG(data []byte, targetW, targetH int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	intrW := int(math.Ceil(icon.ViewBox.W))
	intrH := int(math.Ceil(icon.ViewBox.H))
	if intrW <= 0 {
		intrW = defaultSVGSize
	}
	if intrH <= 0 {
		intrH = defaultSVGSize
	}

	w, h := intrW, intrH
	switch {
	case targetW > 0 && targetH > 0:
		scale := math.Min(float64(targetW)/float64(intrW), float64(targetH)/float64(intrH))
		w = int(math.Round(float64(intrW) * scale))
		h = int(math.Round(float64(intrH) * scale))
	case targetW > 0:
		w = targetW
		h = int(math.Round(float64(w) * float64(intrH) / float64(intrW)))
	case targetH > 0:
		h = targetH
		w = int(math.Round(float64(h) * float64(intrW) / float64(intrH)))
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}
