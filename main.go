// SPDX-License-Identifier: MIT
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"audiovis/cmd"
	"audiovis/internal/analyzer"
	"audiovis/internal/capture"
	"audiovis/internal/config"
	"audiovis/internal/dsp"
	applog "audiovis/internal/log"
	"audiovis/internal/transport"
	"audiovis/pkg/build"
	"audiovis/pkg/ring"
)

// main wires the pipeline:
//
//	capture source -> ring buffer -> analyzer ticks -> transports
//
// The program flow has three phases:
//
//  1. Startup (cold path): build info, CLI and config resolution, PortAudio
//     or WAV source setup, transform and analyzer construction.
//  2. Frame loop (hot path): a ticker drives Analyzer.Tick at the configured
//     frame rate and fans each snapshot out to the transports.
//  3. Shutdown (cold path): signal-driven teardown of the source and
//     transports, then a capture stats report.
func main() {
	// ==================== STARTUP PHASE ====================

	build.Initialize()

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if cfg == nil {
		// --help or --version; cobra already produced the output.
		return
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}
	applog.Infof("%s starting", build.Get())

	sampleRate := cfg.Audio.SampleRate
	queue := ring.New[float32](capture.RingCapacity(sampleRate, cfg.Audio.RingSeconds))

	// Source: a WAV file when given, otherwise the default capture device.
	var (
		device  *capture.Device
		wavSrc  *capture.WAVFile
		stopSrc func()
	)
	if cfg.Audio.WAVFile != "" {
		wavSrc, err = capture.NewWAVFile(cfg.Audio.WAVFile, queue)
		if err != nil {
			applog.Fatalf("%v", err)
		}

		// The file dictates the rate; the transform must agree with it.
		if wavSrc.SampleRate() != sampleRate {
			sampleRate = wavSrc.SampleRate()
			applog.Infof("Using WAV sample rate %.0f Hz", sampleRate)
		}
		stopSrc = func() { wavSrc.Close() }
	} else {
		if err := capture.Initialize(); err != nil {
			applog.Fatalf("%v", err)
		}
		defer capture.Terminate()

		device, err = capture.NewDevice(capture.Config{
			SampleRate:      sampleRate,
			FramesPerBuffer: cfg.Audio.FramesPerBuffer,
			Channels:        cfg.Audio.Channels,
		}, queue)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		defer device.Close()
		stopSrc = func() { device.Stop() }
	}

	windowKind, ok := dsp.ParseWindow(cfg.FFT.Window)
	if !ok {
		applog.Fatalf("unknown window function %q", cfg.FFT.Window)
	}

	processor, err := dsp.NewFFTProcessor(dsp.Config{
		Size:      cfg.FFT.Size,
		Window:    windowKind,
		UseDB:     cfg.FFT.UseDB,
		DBFloor:   cfg.FFT.DBFloor,
		DBCeiling: cfg.FFT.DBCeiling,
	}, sampleRate)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	an, err := analyzer.New(queue, processor, sampleRate, analyzer.Config{
		NumBands:        cfg.Analyzer.Bands,
		MinFrequency:    cfg.Analyzer.MinFrequency,
		MaxFrequency:    cfg.Analyzer.MaxFrequency,
		SmoothingFactor: cfg.Analyzer.Smoothing,
		PeakDecayRate:   cfg.Analyzer.PeakDecay,
		LogFrequency:    cfg.Analyzer.LogFrequency,
	})
	if err != nil {
		applog.Fatalf("%v", err)
	}

	transports, err := buildTransports(cfg.Transport)
	if err != nil {
		applog.Fatalf("%v", err)
	}
	defer func() {
		for _, t := range transports {
			if err := t.Close(); err != nil {
				applog.Warnf("Transport close: %v", err)
			}
		}
	}()

	// ==================== FRAME LOOP ====================

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	if device != nil {
		if err := device.Start(); err != nil {
			applog.Fatalf("%v", err)
		}
	} else {
		wavSrc.Start()
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.Analyzer.FrameRate))
	defer ticker.Stop()

	applog.Infof("Analyzing %d bands at %d fps (FFT %d, %s window)",
		cfg.Analyzer.Bands, cfg.Analyzer.FrameRate, cfg.FFT.Size, windowKind)

	for running := true; running; {
		select {
		case <-done:
			running = false
		case <-ticker.C:
			snap := an.Tick()
			for _, t := range transports {
				if err := t.Send(snap); err != nil {
					applog.Debugf("Transport send: %v", err)
				}
			}
		}
	}

	// ==================== SHUTDOWN PHASE ====================

	stopSrc()

	if device != nil {
		stats := device.Stats()
		applog.Infof("Captured %d frames in %d callbacks (%d overruns, peak %.3f)",
			stats.FramesCaptured, stats.Callbacks, stats.Overruns, stats.PeakAmplitude)
	}
}

// buildTransports constructs the enabled snapshot transports. An empty slice
// is valid; the analyzer still runs, which is useful with --log-snapshots
// or when profiling.
func buildTransports(cfg config.TransportConfig) ([]transport.Transport, error) {
	var out []transport.Transport

	if cfg.WebSocketEnabled {
		ws, err := transport.NewWebSocket(cfg.WebSocketAddr)
		if err != nil {
			closeAll(out)
			return nil, err
		}
		applog.Infof("WebSocket transport on %s", ws.Addr())
		out = append(out, ws)
	}
	if cfg.UDPEnabled {
		udp, err := transport.NewUDP(cfg.UDPTargetAddress)
		if err != nil {
			closeAll(out)
			return nil, err
		}
		applog.Infof("UDP transport to %s", cfg.UDPTargetAddress)
		out = append(out, udp)
	}
	if cfg.LogSnapshots {
		out = append(out, transport.NewLogging())
	}
	return out, nil
}

func closeAll(transports []transport.Transport) {
	for _, t := range transports {
		t.Close()
	}
}
