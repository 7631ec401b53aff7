package testbed

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/views"
	"github.com/spaghettifunk/prism/engine/scene"
	"golang.org/x/exp/rand"
)

const (
	skyCubeMap  = "SkyBoxes/SunnyCubeMap"
	pointLights = 12
	lightSeed   = 42
)

var preloadedTextures = []string{"wood_albedo", "wood_normals", "scratched_albedo", skyCubeMap}

type TestGame struct {
	*engine.Game
}

type gameState struct {
	WorldCamera *components.Camera

	entities []*scene.Entity
	sky      *views.Sky
	lights   []metadata.Light

	width  uint32
	height uint32
}

func NewTestGame() *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			Name:  "Prism testbed",
			State: &gameState{},
		},
	}
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown
	return tg
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")

	if g.SystemManager == nil {
		return fmt.Errorf("the engine is not yet initialized with all the system managers")
	}
	state := g.State.(*gameState)
	store := g.SystemManager.Store()

	if _, err := g.SystemManager.PreloadTextures(preloadedTextures); err != nil {
		return err
	}

	state.WorldCamera = components.NewCamera(16.0 / 9.0)
	state.WorldCamera.SetPosition(mgl32.Vec3{0, 2, 10})

	cube, err := store.GetMesh("cube")
	if err != nil {
		return err
	}
	if cube == nil {
		return fmt.Errorf("mesh %q not found", "cube")
	}
	vertices, indices := sphere(1.2, 32, 16)
	sphereMesh, err := store.CreateMesh("sphere", vertices, indices)
	if err != nil {
		return err
	}
	store.AddMesh("sphere", sphereMesh)
	vertices, indices = helix(1.0, 0.25, 3.0, 3, 32, 8)
	helixMesh, err := store.CreateMesh("helix", vertices, indices)
	if err != nil {
		return err
	}
	store.AddMesh("helix", helixMesh)

	woodMat, err := store.GetMaterial("woodMat")
	if err != nil {
		return err
	}
	scratchMat, err := store.GetMaterial("scratchMat")
	if err != nil {
		return err
	}

	cubeEntity := scene.NewEntity("cube", cube, woodMat)
	cubeEntity.Transform.MoveAbsolute(mgl32.Vec3{-3, 0, 0})
	sphereEntity := scene.NewEntity("sphere", sphereMesh, scratchMat)
	helixEntity := scene.NewEntity("helix", helixMesh, woodMat)
	helixEntity.Transform.MoveAbsolute(mgl32.Vec3{3, -1.5, 0})
	state.entities = []*scene.Entity{cubeEntity, sphereEntity, helixEntity}

	if state.sky, err = g.SystemManager.CreateSky("cube", skyCubeMap); err != nil {
		return err
	}
	state.lights = sceneLights(rand.New(rand.NewSource(lightSeed)))
	return nil
}

// sceneLights returns three directional lights and a ring of randomly
// colored point lights.
func sceneLights(r *rand.Rand) []metadata.Light {
	lights := []metadata.Light{
		{Type: metadata.LightTypeDirectional, Direction: mgl32.Vec3{1, -1, 0.5}.Normalize(), Intensity: 1.0, Color: mgl32.Vec3{1, 0.95, 0.9}},
		{Type: metadata.LightTypeDirectional, Direction: mgl32.Vec3{-1, -0.25, 0}.Normalize(), Intensity: 0.4, Color: mgl32.Vec3{0.6, 0.7, 1}},
		{Type: metadata.LightTypeDirectional, Direction: mgl32.Vec3{0, -1, -1}.Normalize(), Intensity: 0.2, Color: mgl32.Vec3{1, 1, 1}},
	}
	for i := 0; i < pointLights; i++ {
		lights = append(lights, metadata.Light{
			Type: metadata.LightTypePoint,
			Position: mgl32.Vec3{
				r.Float32()*20 - 10,
				r.Float32()*5 - 1,
				r.Float32()*20 - 10,
			},
			Range:     r.Float32()*5 + 5,
			Intensity: r.Float32() + 0.1,
			Color:     mgl32.Vec3{r.Float32(), r.Float32(), r.Float32()},
		})
	}
	return lights
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	spin := mgl32.Vec3{0, float32(0.5 * deltaTime), 0}
	for _, e := range state.entities {
		e.Transform.Rotate(spin)
	}
	return nil
}

func (g *TestGame) Render(deltaTime, totalTime float64) error {
	state := g.State.(*gameState)
	r := g.SystemManager.Renderer()
	r.Update(state.entities, state.sky, state.lights)
	return r.Render(state.WorldCamera, deltaTime, totalTime)
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	if height > 0 {
		state.WorldCamera.UpdateProjection(float32(width) / float32(height))
	}
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	state.entities = nil
	state.sky = nil
	return nil
}
