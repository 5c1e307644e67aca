package sightline

import (
	"fmt"
	"maps"
	"slices"

	"github.com/gekko3d/sightline/occlusion"
	"github.com/google/uuid"
)

type AssetId string

// MaterialAsset is a named set of scalar shader properties. Instances are
// copies made from a source material; they share its name with a suffix
// and can be released independently.
type MaterialAsset struct {
	version uint
	name    string
	source  AssetId
	scalars map[string]float32
}

type AssetServer struct {
	materials map[AssetId]*MaterialAsset
	byName    map[string]AssetId
}

// RendererComponent is the material an entity is drawn with.
type RendererComponent struct {
	Material AssetId
}

func NewAssetServer() *AssetServer {
	return &AssetServer{
		materials: make(map[AssetId]*MaterialAsset),
		byName:    make(map[string]AssetId),
	}
}

// CreateMaterial registers a material under name. Names are unique; creating
// an existing name replaces its scalars and keeps the id.
func (server *AssetServer) CreateMaterial(name string, scalars map[string]float32) AssetId {
	if id, ok := server.byName[name]; ok {
		mat := server.materials[id]
		mat.scalars = cloneScalars(scalars)
		mat.version++
		return id
	}

	id := makeAssetId()
	server.materials[id] = &MaterialAsset{
		name:    name,
		scalars: cloneScalars(scalars),
	}
	server.byName[name] = id
	return id
}

func (server *AssetServer) MaterialByName(name string) (AssetId, bool) {
	id, ok := server.byName[name]
	return id, ok
}

func (server *AssetServer) MaterialName(id AssetId) string {
	if mat, ok := server.materials[id]; ok {
		return mat.name
	}
	return ""
}

// Version counts the changes made to a material since it was created. A
// renderer re-uploads the material's uniforms when it moves.
func (server *AssetServer) Version(id AssetId) uint {
	if mat, ok := server.materials[id]; ok {
		return mat.version
	}
	return 0
}

func (server *AssetServer) HasMaterial(id AssetId) bool {
	_, ok := server.materials[id]
	return ok
}

// Instantiate copies src into a new anonymous material.
func (server *AssetServer) Instantiate(src AssetId) (AssetId, error) {
	mat, ok := server.materials[src]
	if !ok {
		return "", fmt.Errorf("instantiate %s: %w", src, occlusion.ErrNoMaterial)
	}

	id := makeAssetId()
	server.materials[id] = &MaterialAsset{
		name:    mat.name + " (Instance)",
		source:  src,
		scalars: cloneScalars(mat.scalars),
	}
	return id, nil
}

// Release frees an instance. Named materials are never released.
func (server *AssetServer) Release(id AssetId) {
	if mat, ok := server.materials[id]; ok && mat.source != "" {
		delete(server.materials, id)
	}
}

func (server *AssetServer) InstanceOf(id AssetId) (AssetId, bool) {
	mat, ok := server.materials[id]
	if !ok || mat.source == "" {
		return "", false
	}
	return mat.source, true
}

func (server *AssetServer) Scalar(id AssetId, property string) (float32, error) {
	mat, ok := server.materials[id]
	if !ok {
		return 0, fmt.Errorf("material %s: %w", id, occlusion.ErrNoMaterial)
	}
	v, ok := mat.scalars[property]
	if !ok {
		return 0, fmt.Errorf("material %q property %q: %w", mat.name, property, occlusion.ErrNoProperty)
	}
	return v, nil
}

// SetScalar writes an existing property. Unknown properties are an error,
// the way a shader without the uniform would reject it.
func (server *AssetServer) SetScalar(id AssetId, property string, value float32) error {
	mat, ok := server.materials[id]
	if !ok {
		return fmt.Errorf("material %s: %w", id, occlusion.ErrNoMaterial)
	}
	if _, ok := mat.scalars[property]; !ok {
		return fmt.Errorf("material %q property %q: %w", mat.name, property, occlusion.ErrNoProperty)
	}
	mat.scalars[property] = value
	mat.version++
	return nil
}

// InstanceCount is the number of live instances, for leak checks.
func (server *AssetServer) InstanceCount() int {
	n := 0
	for _, mat := range server.materials {
		if mat.source != "" {
			n++
		}
	}
	return n
}

func (server *AssetServer) MaterialNames() []string {
	return slices.Sorted(maps.Keys(server.byName))
}

func cloneScalars(scalars map[string]float32) map[string]float32 {
	if scalars == nil {
		return make(map[string]float32)
	}
	return maps.Clone(scalars)
}

// MaterialDef describes a material created at install time.
type MaterialDef struct {
	Name    string             `yaml:"name" toml:"name"`
	Scalars map[string]float32 `yaml:"scalars" toml:"scalars"`
}

type AssetServerModule struct {
	Materials []MaterialDef
}

func (mod AssetServerModule) Install(app *App, cmd *Commands) {
	server := NewAssetServer()
	for _, def := range mod.Materials {
		server.CreateMaterial(def.Name, def.Scalars)
	}
	cmd.AddResources(server)
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
