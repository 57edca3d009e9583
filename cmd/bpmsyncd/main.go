// Command bpmsyncd captures audio from a local input device, estimates its
// tempo in real time, and broadcasts accepted estimates to peers on a
// multicast group.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/doismellburning/bpmsyncd/internal/bpm"
	"github.com/doismellburning/bpmsyncd/internal/capture"
	"github.com/doismellburning/bpmsyncd/internal/config"
	"github.com/doismellburning/bpmsyncd/internal/eventlog"
	"github.com/doismellburning/bpmsyncd/internal/gain"
	syncclock "github.com/doismellburning/bpmsyncd/internal/sync"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bpmsyncd:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.String("config", "", "path to a YAML config file")
	config.BindFlags(pflag.CommandLine)
	pflag.Parse()

	cfg, err := config.Load(*configPath, pflag.CommandLine)
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("bpmsyncd: bad log level %q: %w", cfg.LogLevel, err)
	}
	logger.SetLevel(level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	events, err := eventlog.Open(cfg.EventLogPath)
	if err != nil {
		return err
	}
	defer events.Close()

	clock, err := syncclock.NewUDPClock(ctx, syncclock.Config{
		DeviceID:      cfg.DeviceID,
		MulticastAddr: cfg.MulticastAddr,
	})
	if err != nil {
		return err
	}
	defer clock.Close()

	src := &capture.PortAudioSource{
		DeviceName: cfg.CaptureDevice,
		SampleRate: float64(cfg.SampleRate),
		FrameSize:  cfg.FrameSize,
		Logger:     logger.WithPrefix("capture"),
	}
	messages, err := src.Run(ctx)
	if err != nil {
		return err
	}

	gainCtl := gain.New(cfg.GainConfig())

	return processLoop(ctx, loopDeps{
		messages:     messages,
		bpmConfig:    cfg.BPMConfig,
		gain:         gainCtl,
		gainSetpoint: cfg.GainSetpoint,
		clock:        clock,
		events:       events,
		logger:       logger.WithPrefix("analyser"),
	})
}

type loopDeps struct {
	messages     <-chan capture.Message
	bpmConfig    func() bpm.Config
	gain         *gain.Controller
	gainSetpoint float64
	clock        syncclock.Clock
	events       *eventlog.Logger
	logger       *log.Logger
}

// processLoop owns the bpm.Analyser and calls the broadcast clock and event
// log inline for each accepted result; there is no separate broadcast
// goroutine. Both are best-effort side effects: their failures are ignored
// or logged and never stop the loop.
func processLoop(ctx context.Context, deps loopDeps) error {
	analyser, err := bpm.New(deps.bpmConfig())
	if err != nil {
		return fmt.Errorf("bpmsyncd: construct analyser: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-deps.messages:
			if !ok {
				return nil
			}
			switch m := msg.(type) {
			case capture.Samples:
				deps.gain.Update(deps.gainSetpoint, m.Data)
				deps.gain.Apply(m.Data)
				if res, ok := analyser.Process(m.Data); ok {
					deps.clock.UpdateTempo(res.BPM, res.IsDrop, res.BeatOffset)
					if err := deps.events.Write(time.Now(), res); err != nil {
						deps.logger.Warn("event log write failed", "err", err)
					}
					deps.logger.Info("estimate", "bpm", res.BPM, "confidence", res.Confidence, "is_drop", res.IsDrop)
				}
			case capture.Reset:
				analyser.Reset()
				deps.gain.Reset()
				deps.logger.Warn("capture reset, clearing tempo lock")
			case capture.SampleRateChanged:
				newCfg := deps.bpmConfig()
				newCfg.InputRate = m.Rate
				a, err := bpm.New(newCfg)
				if err != nil {
					return fmt.Errorf("bpmsyncd: rebuild analyser at %d Hz: %w", m.Rate, err)
				}
				analyser = a
				deps.logger.Info("sample rate changed, analyser rebuilt", "rate", m.Rate)
			}
		}
	}
}
