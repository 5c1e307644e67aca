package sightline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var ErrUnknownConfigFormat = errors.New("unknown config format")

// Config is everything tunable from a config file. Sections left out of the
// file keep their defaults.
type Config struct {
	Logging   LoggingConfig     `yaml:"logging" toml:"logging"`
	Occlusion OcclusionSettings `yaml:"occlusion" toml:"occlusion"`
	Movement  MovementSettings  `yaml:"movement" toml:"movement"`
	Camera    CameraSettings    `yaml:"camera" toml:"camera"`
	Aim       AimSettings       `yaml:"aim" toml:"aim"`
	Materials []MaterialDef     `yaml:"materials" toml:"materials"`
}

func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Occlusion: DefaultOcclusionSettings(),
		Movement:  DefaultMovementSettings(),
		Camera:    DefaultCameraSettings(),
		Aim:       DefaultAimSettings(),
	}
}

// Validate checks what can be checked without a material server. The
// occlusion override is resolved by name later, against the assets.
func (c Config) Validate() error {
	var errs []error

	if c.Occlusion.Override == "" {
		errs = append(errs, errors.New("occlusion.override: material name required"))
	}
	if c.Occlusion.Property == "" {
		errs = append(errs, errors.New("occlusion.property: required"))
	}
	if c.Occlusion.Floor > c.Occlusion.Initial || c.Occlusion.Initial >= c.Occlusion.Ceiling {
		errs = append(errs, fmt.Errorf("occlusion: need floor <= initial < ceiling, got %v, %v, %v",
			c.Occlusion.Floor, c.Occlusion.Initial, c.Occlusion.Ceiling))
	}
	if c.Occlusion.RevealRate <= 0 || c.Occlusion.RestoreRate <= 0 {
		errs = append(errs, errors.New("occlusion: rates must be positive"))
	}
	if c.Movement.WalkSpeed <= 0 || c.Movement.RunSpeed <= 0 {
		errs = append(errs, errors.New("movement: speeds must be positive"))
	}
	if c.Movement.AimAngleMax <= 0 {
		errs = append(errs, errors.New("movement.aim_angle_max: must be positive"))
	}
	if c.Camera.FollowSpeed < 0 {
		errs = append(errs, errors.New("camera.follow_speed: must not be negative"))
	}
	if c.Aim.MaxDistance <= 0 {
		errs = append(errs, errors.New("aim.max_distance: must be positive"))
	}
	for i, m := range c.Materials {
		if m.Name == "" {
			errs = append(errs, fmt.Errorf("materials[%d]: name required", i))
		}
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML (.yaml, .yml) or TOML (.toml) file over the
// defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg, err := DecodeConfig(bytes.NewReader(data), filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// DecodeConfig decodes r in the format named by ext over the defaults.
// Unknown keys are rejected so that typos do not pass silently.
func DecodeConfig(r io.Reader, ext string) (Config, error) {
	cfg := DefaultConfig()

	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		decoder := yaml.NewDecoder(r)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("decode yaml: %w", err)
		}
	case "toml":
		decoder := toml.NewDecoder(r).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode toml: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("%q: %w", ext, ErrUnknownConfigFormat)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
