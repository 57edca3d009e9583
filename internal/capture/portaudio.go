package capture

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
)

// PortAudioSource captures mono audio from a local input device.
type PortAudioSource struct {
	// DeviceName selects an input device by (substring) name; empty uses
	// the host API's default input device.
	DeviceName string
	SampleRate float64
	FrameSize  int
	Logger     *log.Logger
}

// Run opens the device and streams Samples until ctx is cancelled. The
// channel is closed, and the stream and PortAudio session torn down, before
// Run's goroutine exits.
func (s *PortAudioSource) Run(ctx context.Context) (<-chan Message, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("capture: portaudio init: %w", err)
	}

	device, err := s.resolveDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	in := make([]float32, s.FrameSize)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      s.SampleRate,
		FramesPerBuffer: s.FrameSize,
	}
	stream, err := portaudio.OpenStream(params, in)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("capture: open stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("capture: start stream: %w", err)
	}

	out := make(chan Message, 8)
	go func() {
		defer close(out)
		defer portaudio.Terminate()
		defer stream.Close()
		defer stream.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if err := stream.Read(); err != nil {
				if s.Logger != nil {
					s.Logger.Warn("capture read failed, resetting", "err", err)
				}
				sendDropOldest(ctx, out, Reset{})
				continue
			}
			batch := make([]float32, len(in))
			copy(batch, in)
			sendDropOldest(ctx, out, Samples{Data: batch})
		}
	}()

	return out, nil
}

// sendDropOldest pushes msg onto out without ever blocking the real-time
// read loop: if the buffered channel is full, it evicts the oldest queued
// message before enqueuing msg (spec.md §5's drop-oldest queue policy),
// rather than stalling until the processing goroutine catches up.
func sendDropOldest(ctx context.Context, out chan Message, msg Message) {
	for {
		select {
		case out <- msg:
			return
		case <-ctx.Done():
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}

func (s *PortAudioSource) resolveDevice() (*portaudio.DeviceInfo, error) {
	if s.DeviceName == "" {
		dev, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("capture: default input device: %w", err)
		}
		return dev, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("capture: enumerate devices: %w", err)
	}
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), strings.ToLower(s.DeviceName)) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("capture: no input device matching %q", s.DeviceName)
}
