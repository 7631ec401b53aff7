package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/assets/loaders"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

type textureLoadParams struct {
	name string
	path string
}

type textureLoadResult struct {
	name string
	data *metadata.TextureData
	err  error
}

// TextureSystem preloads textures: files are decoded on the job system and
// uploaded on the calling goroutine.
type TextureSystem struct {
	jobSystem *JobSystem
	store     *assets.Store
	loader    assets.Loader[*metadata.TextureData]
}

func NewTextureSystem(js *JobSystem, store *assets.Store) (*TextureSystem, error) {
	if js == nil || store == nil {
		return nil, fmt.Errorf("texture system needs a job system and an asset store")
	}
	return &TextureSystem{
		jobSystem: js,
		store:     store,
		loader:    loaders.TextureLoader{},
	}, nil
}

// PreloadTextures loads every named texture that is not registered yet and
// returns how many were added. Names without a file are skipped with a
// warning; the first decode or upload error is returned after all jobs end.
func (ts *TextureSystem) PreloadTextures(names []string) (int, error) {
	results := make(chan textureLoadResult, len(names))
	var pending sync.WaitGroup

	forward := func(c <-chan interface{}) {
		if r, ok := <-c; ok {
			results <- r.(textureLoadResult)
		}
	}
	for _, name := range names {
		if ts.store.HasTexture(name) {
			continue
		}
		path, ok := ts.store.TexturePath(name)
		if !ok {
			core.LogWarn("no texture file for %q", name)
			continue
		}
		pending.Add(1)
		ts.jobSystem.Submit(metadata.JobTask{
			OnStart:              ts.textureLoadJobStart,
			OnComplete:           forward,
			OnFailure:            forward,
			OnCompletionCallback: pending.Done,
			InputParams:          &textureLoadParams{name: name, path: path},
		})
	}
	go func() {
		pending.Wait()
		close(results)
	}()

	loaded := 0
	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to decode texture %q: %w", r.name, r.err)
			}
			continue
		}
		if ts.store.HasTexture(r.name) {
			continue
		}
		if _, err := ts.store.UploadTexture(r.name, r.data); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		loaded++
	}
	core.LogDebug("preloaded %d textures", loaded)
	return loaded, firstErr
}

func (ts *TextureSystem) textureLoadJobStart(params interface{}, resultChan chan<- interface{}) error {
	p := params.(*textureLoadParams)
	data, err := ts.loader.Load(p.path)
	resultChan <- textureLoadResult{name: p.name, data: data, err: err}
	return err
}
