package sightline

import (
	"fmt"

	"github.com/gekko3d/sightline/occlusion"
	"github.com/go-gl/mathgl/mgl32"
)

// OcclusionStage runs after PostUpdate, once movement, the camera, the
// transform hierarchy and the collider boxes are final for the frame.
var OcclusionStage = Stage{Name: "Occlusion"}

// OcclusionComponent owns the occlusion manager of one watched entity,
// usually the player. TargetOffset moves the sight segment's end from the
// entity's origin, e.g. from the feet up to the chest.
type OcclusionComponent struct {
	Manager      *occlusion.Manager
	TargetOffset mgl32.Vec3
}

// occlusionBackend exposes the ECS scene and the asset server to the
// occlusion manager. Entity ids are object ids and asset ids are material
// ids.
type occlusionBackend struct {
	app *App
}

var (
	_ occlusion.Scene     = (*occlusionBackend)(nil)
	_ occlusion.Hierarchy = (*occlusionBackend)(nil)
	_ occlusion.Materials = (*occlusionBackend)(nil)
)

func (b *occlusionBackend) cmd() *Commands {
	return b.app.Commands()
}

func (b *occlusionBackend) assets() (*AssetServer, error) {
	assets, ok := Resource[AssetServer](b.app)
	if !ok {
		return nil, fmt.Errorf("asset server not installed: %w", occlusion.ErrNoMaterial)
	}
	return assets, nil
}

func (b *occlusionBackend) RaycastAll(origin, dir mgl32.Vec3, maxDistance float32, mask occlusion.LayerMask) []occlusion.Hit {
	grid, ok := Resource[SpatialHashGrid](b.app)
	if !ok {
		return nil
	}
	hits := RaycastAll(b.cmd(), grid, origin, dir, maxDistance, mask)
	res := make([]occlusion.Hit, len(hits))
	for i, h := range hits {
		res[i] = occlusion.Hit{
			Object:   occlusion.ObjectID(h.Entity),
			Collider: occlusion.ObjectID(h.Entity),
			Root:     occlusion.ObjectID(h.Root),
			Distance: h.Distance,
			Point:    h.Point,
		}
	}
	return res
}

func (b *occlusionBackend) Parent(obj occlusion.ObjectID) (occlusion.ObjectID, bool) {
	p, ok := ParentOf(b.cmd(), EntityId(obj))
	return occlusion.ObjectID(p), ok
}

func (b *occlusionBackend) renderer(obj occlusion.ObjectID) (*RendererComponent, error) {
	cmd := b.cmd()
	if !cmd.HasEntity(EntityId(obj)) {
		return nil, fmt.Errorf("entity %d: %w", obj, occlusion.ErrObjectGone)
	}
	r, ok := GetComponent[RendererComponent](cmd, EntityId(obj))
	if !ok {
		return nil, fmt.Errorf("entity %d: %w", obj, occlusion.ErrNoRenderer)
	}
	return r, nil
}

func (b *occlusionBackend) Material(obj occlusion.ObjectID) (occlusion.MaterialID, error) {
	r, err := b.renderer(obj)
	if err != nil {
		return "", err
	}
	if r.Material == "" {
		return "", fmt.Errorf("entity %d renderer: %w", obj, occlusion.ErrNoMaterial)
	}
	return occlusion.MaterialID(r.Material), nil
}

func (b *occlusionBackend) SetMaterial(obj occlusion.ObjectID, mat occlusion.MaterialID) error {
	r, err := b.renderer(obj)
	if err != nil {
		return err
	}
	assets, err := b.assets()
	if err != nil {
		return err
	}
	if !assets.HasMaterial(AssetId(mat)) {
		return fmt.Errorf("set material %s: %w", mat, occlusion.ErrNoMaterial)
	}
	r.Material = AssetId(mat)
	return nil
}

func (b *occlusionBackend) Instantiate(src occlusion.MaterialID) (occlusion.MaterialID, error) {
	assets, err := b.assets()
	if err != nil {
		return "", err
	}
	id, err := assets.Instantiate(AssetId(src))
	return occlusion.MaterialID(id), err
}

func (b *occlusionBackend) Release(mat occlusion.MaterialID) {
	if assets, err := b.assets(); err == nil {
		assets.Release(AssetId(mat))
	}
}

func (b *occlusionBackend) InstanceOf(mat occlusion.MaterialID) (occlusion.MaterialID, bool) {
	assets, err := b.assets()
	if err != nil {
		return "", false
	}
	src, ok := assets.InstanceOf(AssetId(mat))
	return occlusion.MaterialID(src), ok
}

func (b *occlusionBackend) Scalar(mat occlusion.MaterialID, name string) (float32, error) {
	assets, err := b.assets()
	if err != nil {
		return 0, err
	}
	return assets.Scalar(AssetId(mat), name)
}

func (b *occlusionBackend) SetScalar(mat occlusion.MaterialID, name string, value float32) error {
	assets, err := b.assets()
	if err != nil {
		return err
	}
	return assets.SetScalar(AssetId(mat), name, value)
}

// OcclusionSettings is the config file form of occlusion.Config: the
// override material is referenced by name.
type OcclusionSettings struct {
	Mask         occlusion.LayerMask `yaml:"mask" toml:"mask"`
	Override     string              `yaml:"override" toml:"override"`
	Property     string              `yaml:"property" toml:"property"`
	Initial      float32             `yaml:"initial" toml:"initial"`
	Floor        float32             `yaml:"floor" toml:"floor"`
	Ceiling      float32             `yaml:"ceiling" toml:"ceiling"`
	RevealRate   float32             `yaml:"reveal_rate" toml:"reveal_rate"`
	RestoreRate  float32             `yaml:"restore_rate" toml:"restore_rate"`
	TargetOffset [3]float32          `yaml:"target_offset" toml:"target_offset"`
}

func DefaultOcclusionSettings() OcclusionSettings {
	def := occlusion.DefaultConfig("")
	return OcclusionSettings{
		Mask:         def.Mask,
		Override:     "Hider",
		Property:     def.Property,
		Initial:      def.Initial,
		Floor:        def.Floor,
		Ceiling:      def.Ceiling,
		RevealRate:   def.RevealRate,
		RestoreRate:  def.RestoreRate,
		TargetOffset: [3]float32{0, 1, 0},
	}
}

// Resolve looks the override material up by name and returns the manager
// config.
func (s OcclusionSettings) Resolve(assets *AssetServer) (occlusion.Config, error) {
	id, ok := assets.MaterialByName(s.Override)
	if !ok {
		return occlusion.Config{}, fmt.Errorf("occlusion override material %q: %w", s.Override, occlusion.ErrNoMaterial)
	}
	cfg := occlusion.Config{
		Mask:        s.Mask,
		Override:    occlusion.MaterialID(id),
		Property:    s.Property,
		Initial:     s.Initial,
		Floor:       s.Floor,
		Ceiling:     s.Ceiling,
		RevealRate:  s.RevealRate,
		RestoreRate: s.RestoreRate,
	}
	if err := cfg.Validate(); err != nil {
		return occlusion.Config{}, fmt.Errorf("occlusion settings: %w", err)
	}
	return cfg, nil
}

// occlusionRegistry remembers every manager handed out, so that tracked
// occluders are restored when their owner disappears.
type occlusionRegistry struct {
	backend  *occlusionBackend
	managers map[EntityId]*occlusion.Manager
	// live holds owners seen by the occlusion system at least once.
	live map[EntityId]bool
}

type OcclusionModule struct{}

func (OcclusionModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(&occlusionRegistry{
		backend:  &occlusionBackend{app: app},
		managers: make(map[EntityId]*occlusion.Manager),
		live:     make(map[EntityId]bool),
	})
	if _, exists := app.systems[OcclusionStage.Name]; !exists {
		app.UseStage(OcclusionStage, AfterStage(PostUpdate))
	}
	app.UseSystem(
		System(occlusionSystem).InStage(OcclusionStage),
	)
}

// AttachOcclusion gives target an occlusion manager. The component appears
// at the next command flush.
func AttachOcclusion(cmd *Commands, target EntityId, settings OcclusionSettings) (*occlusion.Manager, error) {
	registry, ok := Resource[occlusionRegistry](cmd.app)
	if !ok {
		return nil, fmt.Errorf("attach occlusion: OcclusionModule not installed")
	}
	assets, ok := Resource[AssetServer](cmd.app)
	if !ok {
		return nil, fmt.Errorf("attach occlusion: %w", occlusion.ErrNoMaterial)
	}
	cfg, err := settings.Resolve(assets)
	if err != nil {
		return nil, fmt.Errorf("attach occlusion: %w", err)
	}

	if old, ok := registry.managers[target]; ok {
		old.RestoreAll()
	}
	manager, err := occlusion.NewManager(registry.backend, registry.backend, occlusion.ObjectID(target), cfg, cmd.Logger())
	if err != nil {
		return nil, fmt.Errorf("attach occlusion: %w", err)
	}
	registry.managers[target] = manager

	cmd.AddComponents(target, &OcclusionComponent{
		Manager:      manager,
		TargetOffset: mgl32.Vec3(settings.TargetOffset),
	})
	return manager, nil
}

// DetachOcclusion restores everything target's manager is hiding and removes
// the component.
func DetachOcclusion(cmd *Commands, target EntityId) {
	registry, ok := Resource[occlusionRegistry](cmd.app)
	if !ok {
		return
	}
	if m, ok := registry.managers[target]; ok {
		m.RestoreAll()
		delete(registry.managers, target)
		delete(registry.live, target)
	}
	cmd.RemoveComponents(target, OcclusionComponent{})
}

// ApplyOcclusionSettings pushes new tunables to every live manager.
func ApplyOcclusionSettings(cmd *Commands, settings OcclusionSettings) error {
	registry, ok := Resource[occlusionRegistry](cmd.app)
	if !ok {
		return nil
	}
	assets, ok := Resource[AssetServer](cmd.app)
	if !ok {
		return fmt.Errorf("apply occlusion settings: %w", occlusion.ErrNoMaterial)
	}
	cfg, err := settings.Resolve(assets)
	if err != nil {
		return err
	}
	for eid, m := range registry.managers {
		if err := m.SetConfig(cfg); err != nil {
			return err
		}
		if oc, ok := GetComponent[OcclusionComponent](cmd, eid); ok {
			oc.TargetOffset = mgl32.Vec3(settings.TargetOffset)
		}
	}
	return nil
}

func occlusionSystem(cmd *Commands, time *Time, registry *occlusionRegistry, dd *DebugDraw) {
	_, cam, hasCamera := MainCamera(cmd)

	seen := make(map[EntityId]struct{}, len(registry.managers))
	MakeQuery2[TransformComponent, OcclusionComponent](cmd).Map(func(eid EntityId, tr *TransformComponent, oc *OcclusionComponent) bool {
		seen[eid] = struct{}{}
		registry.live[eid] = true
		if !hasCamera || oc.Manager == nil {
			return true
		}

		target := tr.Position.Add(oc.TargetOffset)
		oc.Manager.Update(occlusion.Frame{
			Camera: cam.Position,
			Player: target,
			Dt:     time.DeltaSeconds(),
		})

		if dd.Enabled {
			dd.DrawLine(cam.Position, target, ColorSightLine, 0)
			for _, t := range oc.Manager.Tracked() {
				if aabb, ok := GetComponent[AABBComponent](cmd, EntityId(t.Object)); ok {
					dd.DrawBox(aabb.Min, aabb.Max, ColorOccluder, 0)
				}
			}
		}
		return true
	})

	for eid, m := range registry.managers {
		if _, ok := seen[eid]; ok {
			continue
		}
		if !registry.live[eid] {
			// Attached but not flushed yet.
			continue
		}
		cmd.Logger().Debugf("occlusion: owner %v gone, restoring %d occluders", eid, m.Len())
		m.RestoreAll()
		delete(registry.managers, eid)
		delete(registry.live, eid)
	}
}

// OcclusionManagerOf returns the manager attached to eid.
func OcclusionManagerOf(cmd *Commands, eid EntityId) (*occlusion.Manager, bool) {
	registry, ok := Resource[occlusionRegistry](cmd.app)
	if !ok {
		return nil, false
	}
	m, ok := registry.managers[eid]
	return m, ok
}
