package camera

import "sort"

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetLow     = "low"
	Preset720p    = "720p"
	PresetNight   = "night"
	PresetRear    = "rear"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetLow:     LowPowerConfig(),
		Preset720p:    HD720Config(),
		PresetNight:   NightConfig(),
		PresetRear:    RearConfig(),
	}
}

// PresetNames returns the sorted list of available preset names.
func PresetNames() []string {
	names := make([]string, 0, 5)
	for name := range Presets() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// LowPowerConfig trades resolution and rate for battery life.
func LowPowerConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.Framerate = 15
	return cfg
}

// HD720Config returns 720p. Better landmarks beyond 60 cm, higher locator cost.
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	return cfg
}

// NightConfig brightens the image for dark cabins.
func NightConfig() Config {
	cfg := DefaultConfig()
	cfg.Framerate = 15 // Longer exposure per frame
	cfg.Brightness = 0.3
	cfg.ExposureValue = 1.0
	return cfg
}

// RearConfig opens the world-facing camera.
func RearConfig() Config {
	cfg := DefaultConfig()
	cfg.Facing = Back
	return cfg
}
