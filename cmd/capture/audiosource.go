package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/attenditechnology/attendi-capture-core/recorder"
	"github.com/gen2brain/malgo"
)

// micAudioSource is a recorder.AudioSource backed by a capture-only
// malgo device, mirroring the teacher's duplex device setup in
// cmd/agent/main.go but capture-only and PCM16 mono as recorder.Config
// requires.
type micAudioSource struct {
	mctx *malgo.AllocatedContext

	mu        sync.Mutex
	device    *malgo.Device
	recording bool
}

func newMicAudioSource() (*micAudioSource, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("capture: init audio context: %w", err)
	}
	return &micAudioSource{mctx: mctx}, nil
}

func (m *micAudioSource) Close() {
	m.StopRecording()
	m.mctx.Uninit()
}

func (m *micAudioSource) IsRecording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recording
}

func (m *micAudioSource) StartRecording(ctx context.Context, cfg recorder.Config, onAudio func(recorder.Frame)) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recording {
		return recorder.ErrAlreadyRecording
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	onSamples := func(_, pInput []byte, frameCount uint32) {
		samples := make([]int16, len(pInput)/2)
		for i := range samples {
			samples[i] = int16(pInput[2*i]) | int16(pInput[2*i+1])<<8
		}
		onAudio(recorder.Frame{Samples: samples, SampleRate: cfg.SampleRate})
	}

	device, err := malgo.InitDevice(m.mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		return fmt.Errorf("capture: init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("capture: start device: %w", err)
	}

	m.device = device
	m.recording = true
	return nil
}

func (m *micAudioSource) StopRecording() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device != nil {
		m.device.Uninit()
		m.device = nil
	}
	m.recording = false
}
