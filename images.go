package pubsite

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io/fs"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const imageEndpoint = "/_image"

const imageCSP = "default-src 'self'; script-src 'none'; sandbox;"

var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".svg": true,
}

func isImageFile(p string) bool {
	return imageExts[strings.ToLower(path.Ext(p))]
}

// assetName maps a request path to a file name inside the public root.
func assetName(urlPath string) (string, bool) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" || !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}

var errBadImageRequest = errors.New("bad image request")

type imageRequest struct {
	name    string
	width   int
	quality int
}

func (a *App) parseImageRequest(c echo.Context) (imageRequest, error) {
	var req imageRequest
	src := c.QueryParam("url")
	if !strings.HasPrefix(src, "/") || strings.HasPrefix(src, "//") {
		return req, fmt.Errorf("%w: url must be a local path", errBadImageRequest)
	}
	name, ok := assetName(src)
	if !ok || !isImageFile(name) {
		return req, fmt.Errorf("%w: url %q is not an image", errBadImageRequest, src)
	}
	req.name = name

	w, err := strconv.Atoi(c.QueryParam("w"))
	if err != nil || !slices.Contains(a.Config.Images.Widths, w) {
		return req, fmt.Errorf("%w: width %q is not allowed", errBadImageRequest, c.QueryParam("w"))
	}
	req.width = w

	req.quality = a.Config.Images.Quality
	if qs := c.QueryParam("q"); qs != "" {
		q, err := strconv.Atoi(qs)
		if err != nil || q < 1 || q > 100 {
			return req, fmt.Errorf("%w: quality %q out of range 1-100", errBadImageRequest, qs)
		}
		req.quality = q
	}
	return req, nil
}

func (a *App) handleImage(c echo.Context) error {
	req, err := a.parseImageRequest(c)
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	src, err := fs.ReadFile(a.publicFS, req.name)
	if err != nil {
		return echo.ErrNotFound
	}

	h := c.Response().Header()
	h.Set("Content-Security-Policy", imageCSP)
	h.Set("Content-Disposition", "attachment")
	h.Set(echo.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", int(a.Config.Images.MinimumCacheTTL.Seconds())))

	if strings.EqualFold(path.Ext(req.name), ".svg") {
		return c.Blob(http.StatusOK, "image/svg+xml", src)
	}

	sum := sha256.Sum256(src)
	key := fmt.Sprintf("%s?w=%d&q=%d#%s", req.name, req.width, req.quality, hex.EncodeToString(sum[:8]))
	now := time.Now()
	if ctype, data, ok, err := a.Images.Get(key, now); err != nil {
		a.Log.Warn("image cache read", "key", key, "error", err)
	} else if ok {
		a.Log.ImageServed(req.name, req.width, true)
		return c.Blob(http.StatusOK, ctype, data)
	}

	data, ctype, err := resizeImage(src, req.width, req.quality)
	if err != nil {
		return c.String(http.StatusBadRequest, "unsupported image")
	}
	if err := a.Images.Put(key, ctype, data, now.Add(a.Config.Images.MinimumCacheTTL)); err != nil {
		a.Log.Warn("image cache write", "key", key, "error", err)
	}
	a.Log.ImageServed(req.name, req.width, false)
	return c.Blob(http.StatusOK, ctype, data)
}

// resizeImage scales src down to width w. Images narrower than w keep their
// size. PNG stays PNG; everything else is re-encoded as JPEG at quality q.
func resizeImage(src []byte, w, q int) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > w {
		h := bounds.Dy() * w / bounds.Dx()
		if h < 1 {
			h = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if format == "png" {
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	}
	if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: q}); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// flatten composites img onto white so transparent areas survive JPEG.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.White, b.Min, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}
