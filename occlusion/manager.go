package occlusion

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
)

// Frame is the per-frame input of Manager.Update.
type Frame struct {
	Camera mgl32.Vec3
	Player mgl32.Vec3
	Dt     float32 // seconds since the previous frame
}

// TrackedOccluder is an object currently displaying an instance of the
// override material.
type TrackedOccluder struct {
	Object       ObjectID
	Original     MaterialID
	Instance     MaterialID
	Transparency float32
}

type Stats struct {
	Frames   uint64
	Captures uint64
	Restores uint64
	Skipped  uint64 // capture or write-back attempts that failed and were retried later
}

// Manager keeps the camera's view of a watch target clear by fading out
// whatever lies on the camera-to-target segment.
//
// A Manager is not safe for concurrent use; it is meant to be stepped once per
// frame by its owner.
type Manager struct {
	scene     Scene
	materials Materials
	log       Logger

	cfg    Config
	target ObjectID

	tracked *orderedmap.OrderedMap[ObjectID, *TrackedOccluder]
	stats   Stats
}

func NewManager(scene Scene, materials Materials, target ObjectID, cfg Config, log Logger) (*Manager, error) {
	if scene == nil || materials == nil {
		return nil, errors.New("occlusion: scene and materials are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = nopLogger{}
	}
	return &Manager{
		scene:     scene,
		materials: materials,
		log:       log,
		cfg:       cfg,
		target:    target,
		tracked:   orderedmap.NewOrderedMap[ObjectID, *TrackedOccluder](),
	}, nil
}

func (m *Manager) Config() Config { return m.cfg }

// SetConfig swaps the tunables. Tracked objects keep their current values and
// continue from there under the new rates and bounds.
func (m *Manager) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Override != m.cfg.Override {
		// Instances of the old override would break the tracked <=> swapped
		// relation, so start over with the new material.
		m.RestoreAll()
	}
	m.cfg = cfg
	return nil
}

func (m *Manager) WatchTarget() ObjectID { return m.target }

func (m *Manager) SetWatchTarget(target ObjectID) {
	m.target = target
	m.Restore(target)
}

func (m *Manager) Stats() Stats { return m.stats }

func (m *Manager) Len() int { return m.tracked.Len() }

func (m *Manager) IsTracked(obj ObjectID) bool {
	_, ok := m.tracked.Get(obj)
	return ok
}

// Tracked returns a copy of the tracked set in capture order.
func (m *Manager) Tracked() []TrackedOccluder {
	res := make([]TrackedOccluder, 0, m.tracked.Len())
	for el := m.tracked.Front(); el != nil; el = el.Next() {
		res = append(res, *el.Value)
	}
	return res
}

// Update runs one frame of occlusion tracking.
func (m *Manager) Update(frame Frame) {
	m.stats.Frames++

	dt := frame.Dt
	if dt < 0 || math32.IsNaN(dt) {
		dt = 0
	}

	hit := m.collectHits(frame)

	for _, obj := range m.tracked.Keys() {
		entry, ok := m.tracked.Get(obj)
		if !ok {
			continue
		}
		if _, occluding := hit[obj]; occluding {
			m.reveal(entry, dt)
		} else {
			m.fadeBack(entry, dt)
		}
	}
}

// collectHits casts the sight segment and returns the set of objects that
// occlude the target this frame, capturing the ones not tracked yet.
func (m *Manager) collectHits(frame Frame) map[ObjectID]struct{} {
	hit := make(map[ObjectID]struct{})

	toPlayer := frame.Player.Sub(frame.Camera)
	dist := toPlayer.Len()
	if dist < 1e-5 || math32.IsNaN(dist) {
		return hit
	}
	dir := toPlayer.Mul(1 / dist)

	for _, h := range m.scene.RaycastAll(frame.Camera, dir, dist, m.cfg.Mask) {
		if _, seen := hit[h.Object]; seen {
			continue
		}
		if m.IsTracked(h.Object) {
			hit[h.Object] = struct{}{}
			continue
		}
		if m.isWatchTarget(h) {
			continue
		}
		if err := m.capture(h.Object); err != nil {
			m.stats.Skipped++
			m.log.Debugf("occlusion: skipping object %d this frame: %v", h.Object, err)
			continue
		}
		hit[h.Object] = struct{}{}
	}
	return hit
}

func (m *Manager) isWatchTarget(h Hit) bool {
	if h.Object == m.target || h.Root == m.target {
		return true
	}
	hier, ok := m.scene.(Hierarchy)
	if !ok {
		return false
	}
	// Bounded walk so a malformed hierarchy cannot hang the frame.
	obj := h.Object
	for depth := 0; depth < 256; depth++ {
		parent, ok := hier.Parent(obj)
		if !ok {
			return false
		}
		if parent == m.target {
			return true
		}
		obj = parent
	}
	return false
}

func (m *Manager) capture(obj ObjectID) error {
	original, err := m.materials.Material(obj)
	if err != nil {
		return err
	}
	instance, err := m.materials.Instantiate(m.cfg.Override)
	if err != nil {
		return err
	}
	if err := m.materials.SetScalar(instance, m.cfg.Property, m.cfg.Initial); err != nil {
		m.materials.Release(instance)
		return err
	}
	if err := m.materials.SetMaterial(obj, instance); err != nil {
		m.materials.Release(instance)
		return err
	}

	m.tracked.Set(obj, &TrackedOccluder{
		Object:       obj,
		Original:     original,
		Instance:     instance,
		Transparency: m.cfg.Initial,
	})
	m.stats.Captures++
	m.log.Debugf("occlusion: captured object %d (original material %s)", obj, original)
	return nil
}

// reveal moves a still-occluding object toward the floor.
func (m *Manager) reveal(entry *TrackedOccluder, dt float32) {
	next := math32.Max(m.cfg.Floor, entry.Transparency-m.cfg.RevealRate*dt)
	m.write(entry, next)
}

// fadeBack moves an object that stopped occluding toward the ceiling and
// restores it once there.
func (m *Manager) fadeBack(entry *TrackedOccluder, dt float32) {
	next := entry.Transparency + m.cfg.RestoreRate*dt
	if !m.write(entry, next) {
		return
	}
	if next >= m.cfg.Ceiling {
		m.restore(entry)
	}
}

func (m *Manager) write(entry *TrackedOccluder, value float32) bool {
	if err := m.materials.SetScalar(entry.Instance, m.cfg.Property, value); err != nil {
		m.stats.Skipped++
		m.log.Debugf("occlusion: write-back failed for object %d: %v", entry.Object, err)
		return false
	}
	entry.Transparency = value
	return true
}

// Restore reinstates the original material of obj right away and reports
// whether obj left the tracked set. Restoring an untracked object is a no-op.
func (m *Manager) Restore(obj ObjectID) bool {
	entry, ok := m.tracked.Get(obj)
	if !ok {
		return false
	}
	return m.restore(entry)
}

// RestoreAll restores every tracked object, e.g. when the watch target goes
// away. Objects whose restore fails stay tracked.
func (m *Manager) RestoreAll() {
	for _, obj := range m.tracked.Keys() {
		m.Restore(obj)
	}
}

func (m *Manager) restore(entry *TrackedOccluder) bool {
	err := m.materials.SetMaterial(entry.Object, entry.Original)
	switch {
	case err == nil:
	case errors.Is(err, ErrObjectGone):
		m.log.Debugf("occlusion: object %d vanished while tracked", entry.Object)
	default:
		m.stats.Skipped++
		m.log.Warnf("occlusion: restoring object %d failed, retrying next frame: %v", entry.Object, err)
		return false
	}

	m.materials.Release(entry.Instance)
	m.tracked.Delete(entry.Object)
	m.stats.Restores++
	m.log.Debugf("occlusion: restored object %d", entry.Object)
	return true
}
