package config

import "time"

// ROI points to the intersection geometry file consumed by internal/roiconfig.
type ROI struct {
	Path string `yaml:"path"`
}

// Thresholds collects the tunable geometric/temporal constants the rule
// engine and vehicle store are parameterized over.
type Thresholds struct {
	TrajectoryWindowMs     int64   `yaml:"trajectory_window_ms"`
	MotionMinPx            float64 `yaml:"motion_min_px"`
	EnteringLookbackMs     int64   `yaml:"entering_lookback_ms"`
	WrongWayInThresholdPx  float64 `yaml:"wrong_way_in_threshold_px"`
	WrongWayOutThresholdPx float64 `yaml:"wrong_way_out_threshold_px"`
	SolidLineProximityPx   float64 `yaml:"solid_line_proximity_px"`
	CooldownMs             int64   `yaml:"cooldown_ms"`
	VehicleIdleTimeoutMs   int64   `yaml:"vehicle_idle_timeout_ms"`
}

// DefaultThresholds returns conservative defaults for a typical intersection.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TrajectoryWindowMs:     2000,
		MotionMinPx:            0,
		EnteringLookbackMs:     500,
		WrongWayInThresholdPx:  10,
		WrongWayOutThresholdPx: 8,
		SolidLineProximityPx:   15,
		CooldownMs:             10000,
		VehicleIdleTimeoutMs:   10000,
	}
}

// Signal configures the signal-source supervisor.
type Signal struct {
	Mode           string        `yaml:"mode"` // AUTO | AUTHORITATIVE | SIMULATION | MANUAL
	SyncInterval   time.Duration `yaml:"sync_interval"`
	UpstreamURL    string        `yaml:"upstream_url"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
}

// RecordsService configures the out-of-process backend the reporter submits to.
type RecordsService struct {
	BaseURL        string        `yaml:"base_url"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	UploadTimeout  time.Duration `yaml:"upload_timeout"`
	SubmitTimeout  time.Duration `yaml:"submit_timeout"`
	QueueSize      int           `yaml:"queue_size"`
	MaxRetries     int           `yaml:"max_retries"`
	DrainGrace     time.Duration `yaml:"drain_grace"`
}

// Evidence configures snapshot capture.
type Evidence struct {
	ScreenshotDir  string  `yaml:"screenshot_dir"`
	ExpandRatio    float64 `yaml:"expand_ratio"`
	MinCanvasSide  int     `yaml:"min_canvas_side"`
}

// HTTP configures the thin operational façade.
type HTTP struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the YAML root, split between raw file contents and a derived
// RuntimeConfig.
type Config struct {
	IntersectionID int            `yaml:"intersection_id"`
	ROI            ROI            `yaml:"roi"`
	Thresholds     Thresholds     `yaml:"thresholds"`
	Signal         Signal         `yaml:"signal"`
	Records        RecordsService `yaml:"records"`
	Evidence       Evidence       `yaml:"evidence"`
	HTTP           HTTP           `yaml:"http"`
	LogLevel       string         `yaml:"log_level"`
}
