// Package config loads the YAML runtime configuration for the violation
// core, splitting raw file contents from a derived RuntimeConfig that
// fills in defaults.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// RuntimeConfig wraps the loaded Config and fills in defaults that the YAML
// file is allowed to omit.
type RuntimeConfig struct {
	All Config
}

// Load reads and parses a YAML config file, applying defaults for anything
// left zero-valued.
func Load(path string) (*RuntimeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return NewRuntimeConfig(c), nil
}

// NewRuntimeConfig applies defaults on top of a parsed Config.
func NewRuntimeConfig(c Config) *RuntimeConfig {
	def := DefaultThresholds()
	if c.Thresholds.TrajectoryWindowMs == 0 {
		c.Thresholds.TrajectoryWindowMs = def.TrajectoryWindowMs
	}
	if c.Thresholds.EnteringLookbackMs == 0 {
		c.Thresholds.EnteringLookbackMs = def.EnteringLookbackMs
	}
	if c.Thresholds.WrongWayInThresholdPx == 0 {
		c.Thresholds.WrongWayInThresholdPx = def.WrongWayInThresholdPx
	}
	if c.Thresholds.WrongWayOutThresholdPx == 0 {
		c.Thresholds.WrongWayOutThresholdPx = def.WrongWayOutThresholdPx
	}
	if c.Thresholds.SolidLineProximityPx == 0 {
		c.Thresholds.SolidLineProximityPx = def.SolidLineProximityPx
	}
	if c.Thresholds.CooldownMs == 0 {
		c.Thresholds.CooldownMs = def.CooldownMs
	}
	if c.Thresholds.VehicleIdleTimeoutMs == 0 {
		c.Thresholds.VehicleIdleTimeoutMs = def.VehicleIdleTimeoutMs
	}
	if c.Signal.Mode == "" {
		c.Signal.Mode = "AUTO"
	}
	if c.Signal.SyncInterval == 0 {
		c.Signal.SyncInterval = 2 * time.Second
	}
	if c.Signal.UpstreamTimeout == 0 {
		c.Signal.UpstreamTimeout = 3 * time.Second
	}
	if c.Records.UploadTimeout == 0 {
		c.Records.UploadTimeout = 5 * time.Second
	}
	if c.Records.SubmitTimeout == 0 {
		c.Records.SubmitTimeout = 3 * time.Second
	}
	if c.Records.QueueSize == 0 {
		c.Records.QueueSize = 256
	}
	if c.Records.MaxRetries == 0 {
		c.Records.MaxRetries = 3
	}
	if c.Records.DrainGrace == 0 {
		c.Records.DrainGrace = 2 * time.Second
	}
	if c.Evidence.ScreenshotDir == "" {
		c.Evidence.ScreenshotDir = "./violations"
	}
	if c.Evidence.ExpandRatio == 0 {
		c.Evidence.ExpandRatio = 0.35
	}
	if c.Evidence.MinCanvasSide == 0 {
		c.Evidence.MinCanvasSide = 200
	}
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = ":8088"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return &RuntimeConfig{All: c}
}
