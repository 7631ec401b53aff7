package assets

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/prism/engine/core"
)

// AssetChange names an asset whose file was created or written.
type AssetChange struct {
	Namespace Namespace
	Name      string
}

// Watcher collects changes under the asset root. Events are only queued
// here; the render goroutine applies them with Store.ApplyDescriptorChanges.
type Watcher struct {
	root string

	mutex   sync.Mutex
	pending []AssetChange
	seen    map[AssetChange]struct{}

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	started  bool
	isClosed bool
}

func NewWatcher(root string) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:     root,
		seen:     make(map[AssetChange]struct{}),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		fsnotify: fsWatch,
	}, nil
}

// Start watches root and every directory below it.
func (w *Watcher) Start() error {
	if w.isClosed {
		return errors.New("asset watcher already closed")
	}
	if err := w.watchRecursive(w.root); err != nil {
		return err
	}
	w.started = true
	go w.run()
	return nil
}

func (w *Watcher) run() {
	defer close(w.stopped)
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := w.watchRecursive(e.Name); err != nil {
						core.LogWarn("failed to watch %s: %s", e.Name, err)
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.handleFileEvent(e.Name)
			}
			if e.Op&fsnotify.Remove != 0 {
				// removing a plain file from the watch list fails harmlessly
				_ = w.fsnotify.Remove(e.Name)
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-w.done:
			return
		}
	}
}

// watchRecursive adds every directory under path to the watch list.
func (w *Watcher) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return w.fsnotify.Add(walkPath)
		}
		return nil
	})
}

func (w *Watcher) handleFileEvent(path string) {
	ns, name, ok := namespaceForPath(w.root, path)
	if !ok {
		return
	}
	change := AssetChange{Namespace: ns, Name: name}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	if _, dup := w.seen[change]; dup {
		return
	}
	w.seen[change] = struct{}{}
	w.pending = append(w.pending, change)
}

// Drain returns the queued changes in arrival order and clears the queue.
func (w *Watcher) Drain() []AssetChange {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	changes := w.pending
	w.pending = nil
	w.seen = make(map[AssetChange]struct{})
	return changes
}

func (w *Watcher) Close() error {
	if w.isClosed {
		return nil
	}
	w.isClosed = true
	close(w.done)
	err := w.fsnotify.Close()
	if w.started {
		<-w.stopped
	}
	return err
}

// ApplyDescriptorChanges reloads changed render-target descriptors in place.
// Other namespaces are immutable once cached, so their changes are logged.
// Must run on the render goroutine between frames.
func (s *Store) ApplyDescriptorChanges(changes []AssetChange) error {
	for _, c := range changes {
		name := normalizeName(c.Name)
		if c.Namespace != NamespaceRenderTarget {
			if s.isCached(c.Namespace, name) {
				core.LogWarn("%s %q changed on disk; cached entries are not reloaded", c.Namespace, name)
			}
			continue
		}
		if _, ok := s.renderTargets.get(name); !ok {
			continue
		}
		bundle, found, err := s.loadRenderTarget(name)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		if err := s.ReplaceRenderTarget(name, bundle); err != nil {
			return err
		}
		core.LogInfo("reloaded render target %q", name)
	}
	return nil
}

func (s *Store) isCached(ns Namespace, name string) bool {
	var ok bool
	switch ns {
	case NamespaceMesh:
		_, ok = s.meshes.get(name)
	case NamespaceTexture:
		_, ok = s.textures.get(name)
	case NamespaceMaterial:
		_, ok = s.materials.get(name)
	case NamespaceRootSignature:
		_, ok = s.rootSignatures.get(name)
	case NamespaceSampler:
		_, ok = s.samplers.get(name)
	case NamespacePipelineState:
		_, ok = s.pipelineStates.get(name)
	case NamespaceVertexShader:
		_, ok = s.vertexShaders.get(name)
	case NamespacePixelShader:
		_, ok = s.pixelShaders.get(name)
	case NamespaceRenderTarget:
		_, ok = s.renderTargets.get(name)
	}
	return ok
}
