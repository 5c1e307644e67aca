package occlusion

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type fakeScene struct {
	hits    []Hit
	parents map[ObjectID]ObjectID
	casts   int
}

func (s *fakeScene) RaycastAll(origin, dir mgl32.Vec3, maxDistance float32, mask LayerMask) []Hit {
	s.casts++
	return append([]Hit(nil), s.hits...)
}

func (s *fakeScene) Parent(obj ObjectID) (ObjectID, bool) {
	p, ok := s.parents[obj]
	return p, ok
}

func (s *fakeScene) hit(objs ...ObjectID) {
	s.hits = s.hits[:0]
	for i, obj := range objs {
		s.hits = append(s.hits, Hit{Object: obj, Collider: obj, Root: obj, Distance: float32(i + 1)})
	}
}

// flatScene has no Hierarchy implementation.
type flatScene struct{ hits []Hit }

func (s *flatScene) RaycastAll(mgl32.Vec3, mgl32.Vec3, float32, LayerMask) []Hit { return s.hits }

type fakeMaterial struct {
	source  MaterialID
	scalars map[string]float32
}

type fakeMaterials struct {
	assigned  map[ObjectID]MaterialID
	mats      map[MaterialID]*fakeMaterial
	gone      map[ObjectID]bool
	failWrite map[MaterialID]bool
	failSet   map[ObjectID]bool
	next      int
}

func newFakeMaterials() *fakeMaterials {
	return &fakeMaterials{
		assigned:  make(map[ObjectID]MaterialID),
		mats:      make(map[MaterialID]*fakeMaterial),
		gone:      make(map[ObjectID]bool),
		failWrite: make(map[MaterialID]bool),
		failSet:   make(map[ObjectID]bool),
	}
}

func (f *fakeMaterials) define(id MaterialID, scalars map[string]float32) {
	f.mats[id] = &fakeMaterial{scalars: scalars}
}

func (f *fakeMaterials) Material(obj ObjectID) (MaterialID, error) {
	if f.gone[obj] {
		return "", ErrObjectGone
	}
	mat, ok := f.assigned[obj]
	if !ok {
		return "", ErrNoRenderer
	}
	return mat, nil
}

func (f *fakeMaterials) SetMaterial(obj ObjectID, mat MaterialID) error {
	if f.gone[obj] {
		return ErrObjectGone
	}
	if f.failSet[obj] {
		return errors.New("renderer busy")
	}
	if _, ok := f.assigned[obj]; !ok {
		return ErrNoRenderer
	}
	if _, ok := f.mats[mat]; !ok {
		return ErrNoMaterial
	}
	f.assigned[obj] = mat
	return nil
}

func (f *fakeMaterials) Instantiate(src MaterialID) (MaterialID, error) {
	m, ok := f.mats[src]
	if !ok {
		return "", ErrNoMaterial
	}
	f.next++
	id := MaterialID(fmt.Sprintf("%s#%d", src, f.next))
	scalars := make(map[string]float32, len(m.scalars))
	for k, v := range m.scalars {
		scalars[k] = v
	}
	f.mats[id] = &fakeMaterial{source: src, scalars: scalars}
	return id, nil
}

func (f *fakeMaterials) Release(mat MaterialID) {
	delete(f.mats, mat)
}

func (f *fakeMaterials) InstanceOf(mat MaterialID) (MaterialID, bool) {
	m, ok := f.mats[mat]
	if !ok || m.source == "" {
		return "", false
	}
	return m.source, true
}

func (f *fakeMaterials) Scalar(mat MaterialID, name string) (float32, error) {
	m, ok := f.mats[mat]
	if !ok {
		return 0, ErrNoMaterial
	}
	v, ok := m.scalars[name]
	if !ok {
		return 0, ErrNoProperty
	}
	return v, nil
}

func (f *fakeMaterials) SetScalar(mat MaterialID, name string, value float32) error {
	if f.failWrite[mat] {
		return errors.New("gpu lost")
	}
	m, ok := f.mats[mat]
	if !ok {
		return ErrNoMaterial
	}
	if _, ok := m.scalars[name]; !ok {
		return ErrNoProperty
	}
	m.scalars[name] = value
	return nil
}

// showsOverride reports whether obj currently displays an instance of the
// override material.
func (f *fakeMaterials) showsOverride(obj ObjectID, override MaterialID) bool {
	src, ok := f.InstanceOf(f.assigned[obj])
	return ok && src == override
}
