package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"golang.org/x/image/draw"
)

// TextureLoader decodes PNG and JPEG files into RGBA8 with a full mip
// chain, and forwards DDS payloads as they are.
type TextureLoader struct {
	// SkipMips uploads only the top level of PNG and JPEG images.
	SkipMips bool
}

func (tl TextureLoader) Load(path string) (*metadata.TextureData, error) {
	if strings.EqualFold(filepath.Ext(path), ".dds") {
		return decodeDDS(path)
	}
	return tl.decodeImage(path)
}

func (tl TextureLoader) decodeImage(path string) (*metadata.TextureData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture %s: %w", path, err)
	}

	b := img.Bounds()
	level := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(level, level.Bounds(), img, b.Min, draw.Src)

	data := &metadata.TextureData{
		Name:         path,
		Width:        uint32(b.Dx()),
		Height:       uint32(b.Dy()),
		ArraySize:    1,
		Format:       metadata.FormatR8G8B8A8Unorm,
		Subresources: [][]byte{level.Pix},
	}
	if !tl.SkipMips {
		for _, mip := range generateMips(level) {
			data.Subresources = append(data.Subresources, mip.Pix)
		}
	}
	data.MipLevels = uint16(len(data.Subresources))
	return data, nil
}

// generateMips halves src until both sides reach one texel.
func generateMips(src *image.RGBA) []*image.RGBA {
	var mips []*image.RGBA
	prev := src
	for {
		w, h := prev.Bounds().Dx(), prev.Bounds().Dy()
		if w == 1 && h == 1 {
			return mips
		}
		next := image.NewRGBA(image.Rect(0, 0, max(w/2, 1), max(h/2, 1)))
		draw.BiLinear.Scale(next, next.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		mips = append(mips, next)
		prev = next
	}
}
