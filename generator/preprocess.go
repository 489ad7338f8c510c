package generator

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/disintegration/gift"
)

// maxDecodePixels bounds what downscale is willing to decode in memory.
const maxDecodePixels = 40_000_000

// downscale shrinks images whose longest side exceeds maxDim, keeping the aspect
// ratio, and re-encodes them as PNG. Anything it cannot or will not decode is
// returned untouched.
func downscale(data []byte, mimeType string, maxDim int) ([]byte, string) {
	if maxDim <= 0 {
		return data, mimeType
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || (cfg.Width <= maxDim && cfg.Height <= maxDim) {
		return data, mimeType
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxDecodePixels {
		return data, mimeType
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, mimeType
	}

	g := gift.New(gift.ResizeToFit(maxDim, maxDim, gift.LanczosResampling))
	dst := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return data, mimeType
	}
	return buf.Bytes(), "image/png"
}
