package systems

import (
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/scene"
)

type passBuckets struct {
	standard    []*scene.Entity
	pbr         []*scene.Entity
	transparent []*scene.Entity
	refractive  []*scene.Entity
}

func (b passBuckets) len() int {
	return len(b.standard) + len(b.pbr) + len(b.transparent) + len(b.refractive)
}

// classify sorts entities into passes by their pipeline category. An entity
// without a drawable mesh, a complete material or a known category is left
// out and reported once.
func (r *RendererSystem) classify(entities []*scene.Entity) passBuckets {
	var b passBuckets
	for _, e := range entities {
		if e == nil {
			continue
		}
		category := metadata.PipelineCategoryNone
		if e.Mesh != nil && e.Material != nil && e.Material.RootSignature != nil {
			category = e.Material.Category()
		}
		switch category {
		case metadata.PipelineCategoryStandard:
			b.standard = append(b.standard, e)
		case metadata.PipelineCategoryPBR:
			b.pbr = append(b.pbr, e)
		case metadata.PipelineCategoryTransparent:
			b.transparent = append(b.transparent, e)
		case metadata.PipelineCategoryRefractive:
			b.refractive = append(b.refractive, e)
		default:
			if _, seen := r.unmatched[e.ID]; !seen {
				r.unmatched[e.ID] = struct{}{}
				core.LogWarn("entity %q (%s) matches no render pass and is skipped", e.Name, e.ID)
			}
		}
	}
	return b
}
