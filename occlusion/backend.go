package occlusion

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// ObjectID is a stable handle to a scene object. The manager never owns the
// object it refers to.
type ObjectID uint64

// MaterialID is a handle to a material known to the Materials backend.
type MaterialID string

// LayerMask selects collider layers, one bit per layer.
type LayerMask uint32

const AllLayers LayerMask = ^LayerMask(0)

func (m LayerMask) Has(layer uint8) bool {
	if layer >= 32 {
		return false
	}
	return m&(1<<layer) != 0
}

// Hit is one intersection of a ray with a collider.
type Hit struct {
	Object   ObjectID // object owning the struck collider
	Collider ObjectID
	Root     ObjectID // top of Object's transform hierarchy
	Distance float32
	Point    mgl32.Vec3
}

var (
	ErrNoRenderer = errors.New("object has no renderer")
	ErrNoMaterial = errors.New("material not found")
	ErrNoProperty = errors.New("material has no such property")
	ErrObjectGone = errors.New("object no longer exists")
)

// Scene answers ray queries against the physics representation of the scene.
type Scene interface {
	// RaycastAll returns every collider hit along the segment that starts at
	// origin and runs maxDistance along dir. Order is unspecified and the same
	// object may appear more than once.
	RaycastAll(origin, dir mgl32.Vec3, maxDistance float32, mask LayerMask) []Hit
}

// Hierarchy is optionally implemented by a Scene to let the manager exclude
// every descendant of the watch target, not only those whose root it is.
type Hierarchy interface {
	Parent(obj ObjectID) (ObjectID, bool)
}

// Materials is the rendering-facing side of the manager.
type Materials interface {
	Material(obj ObjectID) (MaterialID, error)
	SetMaterial(obj ObjectID, mat MaterialID) error

	// Instantiate makes a private copy of src that can be given its own
	// scalar values.
	Instantiate(src MaterialID) (MaterialID, error)
	Release(mat MaterialID)
	InstanceOf(mat MaterialID) (MaterialID, bool)

	Scalar(mat MaterialID, name string) (float32, error)
	SetScalar(mat MaterialID, name string, value float32) error
}

// Logger is the subset of the engine logger the manager writes to.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}
