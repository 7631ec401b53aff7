package assets

import (
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// releasedBundle is what ReloadAll needs to bring a screen-sized target back.
type releasedBundle struct {
	name     string
	texDesc  metadata.ResourceDesc
	viewDesc metadata.RenderTargetViewDesc
}

// RenderTargetInfo is a read-only view of a registered bundle.
type RenderTargetInfo struct {
	Name        string
	Width       uint32
	Height      uint32
	Format      metadata.Format
	ScreenSized bool
	Persistent  bool
	SRV         metadata.GPUDescriptorHandle
}

// ReleaseScreenSized drops every screen-sized bundle ahead of a resize.
// Names and descriptions are kept so ReloadAll can recreate them.
func (s *Store) ReleaseScreenSized() error {
	if err := s.allocator.WaitForGPU(); err != nil {
		return err
	}
	for _, name := range s.renderTargets.names() {
		b, _ := s.renderTargets.get(name)
		if b == nil || !b.ScreenSized {
			continue
		}
		s.renderTargets.remove(name)
		s.released = append(s.released, releasedBundle{
			name:     name,
			texDesc:  b.TexDesc,
			viewDesc: b.ViewDesc,
		})
		s.allocator.ReleaseResource(b.Texture)
	}
	core.LogDebug("released %d screen-sized render targets", len(s.released))
	return nil
}

// ReloadAll recreates the bundles dropped by ReleaseScreenSized at the
// allocator's current size. Bundles with a descriptor file are reloaded
// from it; registered ones are rebuilt from their previous description.
func (s *Store) ReloadAll() error {
	released := s.released
	s.released = nil
	for i, r := range released {
		bundle, err := s.GetRenderTarget(r.name)
		if err != nil {
			s.released = released[i:]
			return err
		}
		if bundle != nil {
			continue
		}
		bundle, err = s.allocator.CreateRtvSrvBundle(r.name, r.texDesc, r.viewDesc, true)
		if err != nil {
			s.released = released[i:]
			return err
		}
		s.renderTargets.add(r.name, bundle)
	}
	return nil
}

// PendingReload lists the bundles waiting for ReloadAll.
func (s *Store) PendingReload() []string {
	names := make([]string, 0, len(s.released))
	for _, r := range s.released {
		names = append(names, r.name)
	}
	return names
}

// RenderTargetBundles returns every registered bundle sorted by name.
func (s *Store) RenderTargetBundles() []*metadata.RtvSrvBundle {
	names := s.renderTargets.names()
	bundles := make([]*metadata.RtvSrvBundle, 0, len(names))
	for _, name := range names {
		if b, _ := s.renderTargets.get(name); b != nil {
			bundles = append(bundles, b)
		}
	}
	return bundles
}

func (s *Store) RenderTargets() []RenderTargetInfo {
	bundles := s.RenderTargetBundles()
	infos := make([]RenderTargetInfo, 0, len(bundles))
	for _, b := range bundles {
		infos = append(infos, RenderTargetInfo{
			Name:        b.Name,
			Width:       uint32(b.TexDesc.Width),
			Height:      b.TexDesc.Height,
			Format:      b.TexDesc.Format,
			ScreenSized: b.ScreenSized,
			Persistent:  b.Persistent,
			SRV:         b.SRVGPU,
		})
	}
	return infos
}
