package occlusion

import (
	"fmt"

	"github.com/chewxy/math32"
)

const DefaultProperty = "_Transparency"

// Config holds the tunables of a Manager.
type Config struct {
	Mask     LayerMask
	Override MaterialID
	Property string

	Initial float32 // written when an object is captured
	Floor   float32 // lowest value while the object still occludes
	Ceiling float32 // reaching it while unoccluded restores the original material

	RevealRate  float32 // units per second toward Floor
	RestoreRate float32 // units per second toward Ceiling
}

func DefaultConfig(override MaterialID) Config {
	return Config{
		Mask:        AllLayers,
		Override:    override,
		Property:    DefaultProperty,
		Initial:     0.49,
		Floor:       0.1,
		Ceiling:     0.5,
		RevealRate:  4.0,
		RestoreRate: 2.0,
	}
}

func (c Config) Validate() error {
	if c.Override == "" {
		return fmt.Errorf("occlusion: override material is required")
	}
	if c.Property == "" {
		return fmt.Errorf("occlusion: property name is required")
	}
	for name, v := range map[string]float32{
		"initial":      c.Initial,
		"floor":        c.Floor,
		"ceiling":      c.Ceiling,
		"reveal rate":  c.RevealRate,
		"restore rate": c.RestoreRate,
	} {
		if math32.IsNaN(v) || math32.IsInf(v, 0) {
			return fmt.Errorf("occlusion: %s must be finite, got %v", name, v)
		}
	}
	if c.Floor > c.Initial {
		return fmt.Errorf("occlusion: floor %.3f above initial %.3f", c.Floor, c.Initial)
	}
	if c.Initial >= c.Ceiling {
		return fmt.Errorf("occlusion: initial %.3f must stay below ceiling %.3f", c.Initial, c.Ceiling)
	}
	if c.RevealRate <= 0 || c.RestoreRate <= 0 {
		return fmt.Errorf("occlusion: fade rates must be positive (reveal %.3f, restore %.3f)", c.RevealRate, c.RestoreRate)
	}
	return nil
}

// FramesToRestore is the number of frames of length dt an unoccluded object
// with transparency value needs before it is restored.
func (c Config) FramesToRestore(value, dt float32) int {
	if value >= c.Ceiling {
		return 1
	}
	if dt <= 0 {
		return -1
	}
	return int(math32.Ceil((c.Ceiling - value) / (c.RestoreRate * dt)))
}
