package loaders

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

const (
	ddsMagic         = 0x20534444
	ddsCaps2Cubemap  = 0x200
	ddsMiscCube      = 0x4
	ddsPixelFourCC   = 0x4
	fourCCDXT1       = 0x31545844
	fourCCDXT3       = 0x33545844
	fourCCDXT5       = 0x35545844
	fourCCDX10       = 0x30315844
	ddsHeaderSize    = 124
	ddsPixelInfoSize = 32
)

type ddsPixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      uint32
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

type ddsHeader struct {
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       ddsPixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

type ddsHeaderDX10 struct {
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

// decodeDDS reads the header of a DDS file. The payload is kept as one
// blob for the allocator, cube maps report six slices.
func decodeDDS(path string) (*metadata.TextureData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(raw)

	var magic uint32
	var header ddsHeader
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil || magic != ddsMagic {
		return nil, fmt.Errorf("%s is not a DDS file", path)
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read DDS header of %s: %w", path, err)
	}
	if header.Size != ddsHeaderSize || header.PixelFormat.Size != ddsPixelInfoSize {
		return nil, fmt.Errorf("DDS header of %s is corrupt", path)
	}

	data := &metadata.TextureData{
		Name:       path,
		Width:      header.Width,
		Height:     header.Height,
		ArraySize:  1,
		MipLevels:  uint16(max(header.MipMapCount, 1)),
		IsCube:     header.Caps2&ddsCaps2Cubemap != 0,
		Compressed: true,
	}

	pf := header.PixelFormat
	switch {
	case pf.Flags&ddsPixelFourCC != 0 && pf.FourCC == fourCCDX10:
		var ext ddsHeaderDX10
		if err := binary.Read(r, binary.LittleEndian, &ext); err != nil {
			return nil, fmt.Errorf("failed to read DX10 header of %s: %w", path, err)
		}
		data.Format = metadata.Format(ext.DXGIFormat)
		data.ArraySize = uint16(max(ext.ArraySize, 1))
		data.IsCube = data.IsCube || ext.MiscFlag&ddsMiscCube != 0
	case pf.Flags&ddsPixelFourCC != 0:
		switch pf.FourCC {
		case fourCCDXT1:
			data.Format = metadata.FormatBC1Unorm
		case fourCCDXT3:
			data.Format = metadata.FormatBC2Unorm
		case fourCCDXT5:
			data.Format = metadata.FormatBC3Unorm
		default:
			return nil, fmt.Errorf("DDS %s uses unsupported FourCC %#x", path, pf.FourCC)
		}
	case pf.RGBBitCount == 32 && pf.RBitMask == 0xff:
		data.Format = metadata.FormatR8G8B8A8Unorm
	case pf.RGBBitCount == 32 && pf.RBitMask == 0xff0000:
		data.Format = metadata.FormatB8G8R8A8Unorm
	default:
		return nil, fmt.Errorf("DDS %s uses an unsupported pixel format", path)
	}
	if data.IsCube {
		data.ArraySize *= 6
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("DDS %s has no texel data", path)
	}
	data.Subresources = [][]byte{payload}
	return data, nil
}
