// Package config loads the daemon's full configuration from an optional
// YAML file, overridable by command-line flags for a subset of fields. It
// covers the analyser's window, tempo range, confidence thresholds,
// band-pass cutoffs, search radius and gate floors plus the
// deployment-level settings; the drop-detector, smoother and
// octave-correction thresholds are not exposed and keep bpm's defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/doismellburning/bpmsyncd/internal/bpm"
	"github.com/doismellburning/bpmsyncd/internal/gain"
)

// Daemon is the full configuration for cmd/bpmsyncd.
type Daemon struct {
	// Capture
	CaptureDevice string `yaml:"capture_device"`
	SampleRate    int    `yaml:"sample_rate"`
	FrameSize     int    `yaml:"frame_size"`

	// Analyser thresholds
	WindowSeconds     float64 `yaml:"window_seconds"`
	BPMMin            float64 `yaml:"bpm_min"`
	BPMMax            float64 `yaml:"bpm_max"`
	FineConfidence    float64 `yaml:"fine_confidence"`
	CoarseConfidence  float64 `yaml:"coarse_confidence"`
	HighPassHz        float64 `yaml:"high_pass_hz"`
	LowPassHz         float64 `yaml:"low_pass_hz"`
	SearchRadius      int     `yaml:"search_radius"`
	NoiseGateFloor    float64 `yaml:"noise_gate_floor"`
	CoarseEnergyFloor float64 `yaml:"coarse_energy_floor"`

	// Gain regulator
	GainSetpoint float64 `yaml:"gain_setpoint"`
	GainKp       float64 `yaml:"gain_kp"`
	GainKi       float64 `yaml:"gain_ki"`
	GainKd       float64 `yaml:"gain_kd"`

	// Tempo broadcast
	DeviceID      uint32 `yaml:"device_id"`
	DeviceName    string `yaml:"device_name"`
	MulticastAddr string `yaml:"multicast_addr"`

	// Event log
	EventLogPath string `yaml:"event_log_path"`

	// LogLevel controls the verbosity of the daemon's structured logger
	// ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level"`
}

// Default returns the daemon's baseline configuration, matching
// bpm.DefaultConfig at the default 44100 Hz input rate.
func Default() Daemon {
	bc := bpm.DefaultConfig(44100)
	gc := gain.DefaultConfig()
	return Daemon{
		SampleRate:        bc.InputRate,
		FrameSize:         2048,
		WindowSeconds:     bc.WindowDuration.Seconds(),
		BPMMin:            bc.BPMRange.Min,
		BPMMax:            bc.BPMRange.Max,
		FineConfidence:    bc.Thresholds.Fine,
		CoarseConfidence:  bc.Thresholds.Coarse,
		HighPassHz:        bc.HighPassHz,
		LowPassHz:         bc.LowPassHz,
		SearchRadius:      bc.SearchRadius,
		NoiseGateFloor:    bc.NoiseGateFloor,
		CoarseEnergyFloor: bc.CoarseEnergyFloor,
		GainSetpoint:      0.2,
		GainKp:            gc.Kp,
		GainKi:            gc.Ki,
		GainKd:            gc.Kd,
		DeviceName:        "bpmsyncd",
		MulticastAddr:     "239.0.1.10:51234",
		EventLogPath:      "bpmsyncd-events.csv",
		LogLevel:          "info",
	}
}

// Load reads path (if non-empty) as YAML over the default configuration,
// then layers flagSet's parsed values on top. A non-empty path that cannot
// be read is an error. flagSet must already have been parsed by the caller.
func Load(path string, flagSet *pflag.FlagSet) (Daemon, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Daemon{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Daemon{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if flagSet != nil {
		applyFlagOverrides(&cfg, flagSet)
	}

	return cfg, nil
}

// BindFlags registers the daemon's CLI flags on flagSet, pre-populated
// with the current default so an unset flag leaves the YAML value (or
// built-in default) untouched after Load.
func BindFlags(flagSet *pflag.FlagSet) {
	d := Default()
	flagSet.String("capture-device", d.CaptureDevice, "input device name substring (empty = system default)")
	flagSet.Int("sample-rate", d.SampleRate, "capture sample rate in Hz")
	flagSet.Int("frame-size", d.FrameSize, "capture frame size in samples")
	flagSet.Float64("bpm-min", d.BPMMin, "minimum tempo considered, BPM")
	flagSet.Float64("bpm-max", d.BPMMax, "maximum tempo considered, BPM")
	flagSet.Uint32("device-id", d.DeviceID, "numeric device identifier for tempo broadcast")
	flagSet.String("device-name", d.DeviceName, "human-readable device name")
	flagSet.String("multicast-addr", d.MulticastAddr, "tempo broadcast multicast group:port")
	flagSet.String("event-log", d.EventLogPath, "path to the CSV event log")
	flagSet.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
}

func applyFlagOverrides(cfg *Daemon, flagSet *pflag.FlagSet) {
	if flagSet.Changed("capture-device") {
		cfg.CaptureDevice, _ = flagSet.GetString("capture-device")
	}
	if flagSet.Changed("sample-rate") {
		cfg.SampleRate, _ = flagSet.GetInt("sample-rate")
	}
	if flagSet.Changed("frame-size") {
		cfg.FrameSize, _ = flagSet.GetInt("frame-size")
	}
	if flagSet.Changed("bpm-min") {
		cfg.BPMMin, _ = flagSet.GetFloat64("bpm-min")
	}
	if flagSet.Changed("bpm-max") {
		cfg.BPMMax, _ = flagSet.GetFloat64("bpm-max")
	}
	if flagSet.Changed("device-id") {
		cfg.DeviceID, _ = flagSet.GetUint32("device-id")
	}
	if flagSet.Changed("device-name") {
		cfg.DeviceName, _ = flagSet.GetString("device-name")
	}
	if flagSet.Changed("multicast-addr") {
		cfg.MulticastAddr, _ = flagSet.GetString("multicast-addr")
	}
	if flagSet.Changed("event-log") {
		cfg.EventLogPath, _ = flagSet.GetString("event-log")
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel, _ = flagSet.GetString("log-level")
	}
}

// BPMConfig builds the analyser's bpm.Config from the daemon configuration.
func (d Daemon) BPMConfig() bpm.Config {
	c := bpm.DefaultConfig(d.SampleRate)
	c.WindowDuration = time.Duration(d.WindowSeconds * float64(time.Second))
	c.BPMRange = bpm.BPMRange{Min: d.BPMMin, Max: d.BPMMax}
	c.Thresholds = bpm.ConfidenceThresholds{Fine: d.FineConfidence, Coarse: d.CoarseConfidence}
	c.HighPassHz = d.HighPassHz
	c.LowPassHz = d.LowPassHz
	c.SearchRadius = d.SearchRadius
	c.NoiseGateFloor = d.NoiseGateFloor
	c.CoarseEnergyFloor = d.CoarseEnergyFloor
	return c
}

// GainConfig builds the gain regulator's configuration from the daemon
// configuration.
func (d Daemon) GainConfig() gain.Config {
	c := gain.DefaultConfig()
	c.Kp, c.Ki, c.Kd = d.GainKp, d.GainKi, d.GainKd
	return c
}
