package loaders

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// MeshData is CPU-side geometry ready for upload.
type MeshData struct {
	Vertices []metadata.Vertex
	Indices  []uint32
}

// ModelLoader parses Wavefront OBJ files. Geometry is converted to a
// left-handed frame: z is mirrored, v is flipped and winding reversed.
type ModelLoader struct{}

func (ModelLoader) Load(path string) (*MeshData, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var positions []mgl32.Vec3
	var normals []mgl32.Vec3
	var uvs []mgl32.Vec2
	mesh := &MeshData{}

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
			positions = append(positions, mgl32.Vec3{v[0], v[1], -v[2]})
		case "vn":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
			normals = append(normals, mgl32.Vec3{v[0], v[1], -v[2]})
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
			uvs = append(uvs, mgl32.Vec2{v[0], 1 - v[1]})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%s:%d: face needs at least 3 vertices", path, lineNo)
			}
			corners := make([]metadata.Vertex, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				v, err := resolveCorner(ref, positions, uvs, normals)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
				}
				corners = append(corners, v)
			}
			// triangle fan with reversed winding
			for i := 1; i+1 < len(corners); i++ {
				base := uint32(len(mesh.Vertices))
				mesh.Vertices = append(mesh.Vertices, corners[0], corners[i+1], corners[i])
				mesh.Indices = append(mesh.Indices, base, base+1, base+2)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(mesh.Indices) == 0 {
		return nil, fmt.Errorf("%s contains no faces", path)
	}

	calculateTangents(mesh)
	return mesh, nil
}

func parseFloats(fields []string, count int) ([]float32, error) {
	if len(fields) < count {
		return nil, fmt.Errorf("expected %d values, got %d", count, len(fields))
	}
	out := make([]float32, count)
	for i := 0; i < count; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", fields[i])
		}
		out[i] = float32(f)
	}
	return out, nil
}

// resolveCorner turns "p", "p/t", "p//n" or "p/t/n" into a vertex.
// Negative indices count back from the end of each list.
func resolveCorner(ref string, positions []mgl32.Vec3, uvs []mgl32.Vec2, normals []mgl32.Vec3) (metadata.Vertex, error) {
	parts := strings.Split(ref, "/")
	var v metadata.Vertex

	pi, err := objIndex(parts[0], len(positions))
	if err != nil {
		return v, err
	}
	v.Position = positions[pi]

	if len(parts) > 1 && parts[1] != "" {
		ti, err := objIndex(parts[1], len(uvs))
		if err != nil {
			return v, err
		}
		v.UV = uvs[ti]
	}
	if len(parts) > 2 && parts[2] != "" {
		ni, err := objIndex(parts[2], len(normals))
		if err != nil {
			return v, err
		}
		v.Normal = normals[ni]
	}
	return v, nil
}

func objIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	if i < 0 {
		i = n + i
	} else {
		i--
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %s out of range (%d entries)", s, n)
	}
	return i, nil
}

func calculateTangents(mesh *MeshData) {
	for i := 0; i+2 < len(mesh.Indices); i += 3 {
		i0, i1, i2 := mesh.Indices[i], mesh.Indices[i+1], mesh.Indices[i+2]
		v0, v1, v2 := &mesh.Vertices[i0], &mesh.Vertices[i1], &mesh.Vertices[i2]

		e1 := v1.Position.Sub(v0.Position)
		e2 := v2.Position.Sub(v0.Position)
		du1, dv1 := v1.UV.X()-v0.UV.X(), v1.UV.Y()-v0.UV.Y()
		du2, dv2 := v2.UV.X()-v0.UV.X(), v2.UV.Y()-v0.UV.Y()

		det := du1*dv2 - du2*dv1
		if det == 0 {
			continue
		}
		t := e1.Mul(dv2).Sub(e2.Mul(dv1)).Mul(1 / det)
		v0.Tangent = v0.Tangent.Add(t)
		v1.Tangent = v1.Tangent.Add(t)
		v2.Tangent = v2.Tangent.Add(t)
	}

	for i := range mesh.Vertices {
		v := &mesh.Vertices[i]
		// Gram-Schmidt against the normal
		t := v.Tangent.Sub(v.Normal.Mul(v.Normal.Dot(v.Tangent)))
		if t.Len() > 0 {
			v.Tangent = t.Normalize()
		}
	}
}
