package scene

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

/** @brief A drawable: one mesh, one material and a transform. */
type Entity struct {
	ID        uuid.UUID
	Name      string
	Mesh      *metadata.Mesh
	Material  *metadata.Material
	Transform Transform
}

func NewEntity(name string, mesh *metadata.Mesh, material *metadata.Material) *Entity {
	return &Entity{
		ID:        uuid.New(),
		Name:      name,
		Mesh:      mesh,
		Material:  material,
		Transform: NewTransform(),
	}
}
