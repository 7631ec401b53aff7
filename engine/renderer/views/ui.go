package views

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/renderer"
)

// DebugOverlay shows the registered render targets. It never modifies the
// store; widget layout belongs to whatever UI layer consumes Lines.
type DebugOverlay struct {
	Enabled bool

	store *assets.Store
	lines []string
}

func NewDebugOverlay(store *assets.Store, enabled bool) *DebugOverlay {
	return &DebugOverlay{
		Enabled: enabled,
		store:   store,
	}
}

// Lines returns the listing built by the last Render. Render also records
// every line as a debug event, nested in "Debug overlay", so frame captures
// show it.
func (o *DebugOverlay) Lines() []string {
	return o.lines
}

func (o *DebugOverlay) Render(cl renderer.CommandList) {
	if !o.Enabled {
		return
	}
	targets := o.store.RenderTargets()
	o.lines = o.lines[:0]
	for _, rt := range targets {
		line := fmt.Sprintf("%s %dx%d format=%d", rt.Name, rt.Width, rt.Height, rt.Format)
		if rt.ScreenSized {
			line += " screen"
		}
		if rt.Persistent {
			line += " persistent"
		}
		o.lines = append(o.lines, line)
	}
	cl.BeginEvent("Debug overlay")
	for _, line := range o.lines {
		cl.BeginEvent(line)
		cl.EndEvent()
	}
	cl.EndEvent()
}
