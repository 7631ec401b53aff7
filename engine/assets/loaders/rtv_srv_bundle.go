package loaders

import (
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// RtvSrvBundleConfig is a parsed render target descriptor. Screen-sized
// targets leave the size to the allocator.
type RtvSrvBundleConfig struct {
	TexDesc     metadata.ResourceDesc
	RTVDesc     metadata.RenderTargetViewDesc
	ScreenSized bool
}

type RtvSrvBundleLoader struct{}

func (RtvSrvBundleLoader) Load(path string) (*RtvSrvBundleConfig, error) {
	doc, err := readDescriptor(path)
	if err != nil {
		return nil, err
	}

	tex := doc.Object("texDesc")
	cfg := &RtvSrvBundleConfig{
		TexDesc: metadata.ResourceDesc{
			Dimension:        metadata.ResourceDimension(tex.Uint("dimension")),
			DepthOrArraySize: tex.Uint16("depth"),
			Format:           metadata.Format(tex.Uint("format")),
			MipLevels:        tex.Uint16("mipLevels"),
			SampleDesc:       metadata.SampleDesc{Count: tex.Uint("samplerCount")},
		},
	}

	rtv := doc.Object("rtvDesc")
	cfg.RTVDesc = metadata.RenderTargetViewDesc{
		Format:        cfg.TexDesc.Format,
		ViewDimension: metadata.RTVDimension(rtv.Uint("viewDimension")),
		NumElements:   rtv.Uint("numElements"),
	}
	switch cfg.RTVDesc.ViewDimension {
	case metadata.RTVDimensionTexture1DArray, metadata.RTVDimensionTexture2DArray, metadata.RTVDimensionTexture2DMSArray:
		cfg.RTVDesc.ArraySize = cfg.RTVDesc.NumElements
	}

	cfg.ScreenSized = doc.Bool("isScreenSize")
	if !cfg.ScreenSized && doc.Err() == nil {
		cfg.TexDesc.Width = uint64(doc.Uint("width"))
		cfg.TexDesc.Height = doc.Uint("height")
		if doc.Err() == nil && (cfg.TexDesc.Width == 0 || cfg.TexDesc.Height == 0) {
			doc.fail("width", "fixed-size render target needs a non-zero size")
		}
	}

	if err := doc.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}
