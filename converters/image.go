/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package converters

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"strconv"
	"strings"

	"github.com/seashell-io/seashell/core"

	"go.trai.ch/zerr"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ThumbWidth is the width of a thumbnail.
const ThumbWidth = 150

// Image resizes images according to the evaluation's parameters, and
// re-encodes them as PNG.
//
// The parameters, in increasing precedence:
//
//	serverSideOptions: "_"-separated options such as "width300_h200"
//	  or "thumb".
//	width, height, w, h: dimensions in pixels.
//	thumb: any value means a thumbnail.
//
// When only one dimension is given, the other keeps the aspect ratio.
type Image struct {
	types  []string
	logger *zap.Logger

	// Scaler does the resizing.
	Scaler draw.Scaler
}

// NewImage makes an Image that handles the "image" type.
func NewImage(logger *zap.Logger) *Image {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Image{
		types:  []string{"image"},
		logger: logger,
		Scaler: draw.CatmullRom,
	}
}

func (c *Image) Types() []string {
	return c.types
}

// atoi ignores what it can't parse.
func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// Dimensions returns the requested width and height.  Zero means
// unspecified.
func Dimensions(params map[string]string) (x, y int) {
	if params == nil {
		return 0, 0
	}

	if opts, have := params["serverSideOptions"]; have {
	options:
		for _, p := range strings.Split(strings.TrimSpace(opts), "_") {
			lower := strings.ToLower(p)
			switch {
			case strings.HasPrefix(lower, "width") && 5 < len(p):
				x = atoi(p[5:])
			case (strings.HasPrefix(lower, "x") || strings.HasPrefix(lower, "w")) && 1 < len(p):
				x = atoi(p[1:])
			case strings.HasPrefix(lower, "height") && 6 < len(p):
				y = atoi(p[6:])
			case (strings.HasPrefix(lower, "y") || strings.HasPrefix(lower, "h")) && 1 < len(p):
				y = atoi(p[1:])
			case lower == "thumb":
				x, y = ThumbWidth, 0
				break options
			}
		}
	}

	for _, k := range []string{"width", "w"} {
		if s, have := params[k]; have {
			x = atoi(s)
		}
	}
	for _, k := range []string{"height", "h"} {
		if s, have := params[k]; have {
			y = atoi(s)
		}
	}
	if _, have := params["thumb"]; have {
		x, y = ThumbWidth, 0
	}

	return x, y
}

// Scale computes the target size for an image of size w by h.
// The boolean is false if no resizing is needed.
func Scale(w, h, x, y int) (int, int, bool) {
	if w < 1 || h < 1 {
		return 0, 0, false
	}
	fw, fh := float64(w), float64(h)
	w1, h1 := fw, fh
	switch {
	case x < 1 && y < 1:
		return w, h, false
	case 0 < x && y < 1:
		w1 = float64(x)
		h1 = float64(x) * (fh / fw)
	case 0 < y && x < 1:
		w1 = float64(y) * (fw / fh)
		h1 = float64(y)
	default:
		w1 = float64(x)
		h1 = float64(y)
	}
	rw, rh := int(math.Round(w1)), int(math.Round(h1))
	if rw < 1 || rh < 1 || (rw == w && rh == h) {
		return w, h, false
	}
	return rw, rh, true
}

// Convert returns ErrSkip when no resizing is requested or needed, or
// when the payload isn't an image it can decode.
func (c *Image) Convert(ctx context.Context, meta *core.EvalMeta, src []byte) ([]byte, error) {
	x, y := Dimensions(meta.Params)
	if x < 1 && y < 1 {
		return nil, core.ErrSkip
	}

	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		c.logger.Debug("image not decoded", zap.String("file", meta.File), zap.Error(err))
		return nil, core.ErrSkip
	}

	b := img.Bounds()
	w1, h1, resize := Scale(b.Dx(), b.Dy(), x, y)
	if !resize {
		return nil, core.ErrSkip
	}

	dst := image.NewRGBA(image.Rect(0, 0, w1, h1))
	c.Scaler.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "image encode failed"), "file", meta.File)
	}

	c.logger.Info("resized image",
		zap.String("file", meta.File),
		zap.String("format", format),
		zap.Int("fromWidth", b.Dx()),
		zap.Int("fromHeight", b.Dy()),
		zap.Int("toWidth", w1),
		zap.Int("toHeight", h1))

	meta.ContentType = "image/png"

	return buf.Bytes(), nil
}
