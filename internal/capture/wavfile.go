// SPDX-License-Identifier: MIT
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "audiovis/internal/log"
	"audiovis/pkg/ring"
)

// wavChunkFrames is how many frames each pacing interval pushes.
const wavChunkFrames = 512

// WAVFile streams a WAV file into the ring at the file's own sample rate,
// standing in for a capture device. Samples beyond ring capacity overwrite
// the oldest history, matching how a visualizer treats stale audio.
type WAVFile struct {
	path    string
	queue   *ring.Buffer[float32]
	decoder *wav.Decoder
	file    *os.File

	sampleRate float64
	channels   int
	fullScale  float32 // 1 << (bitDepth-1)

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	framesRead atomic.Uint64
}

// NewWAVFile opens and validates the file. Streaming starts with Start.
func NewWAVFile(path string, queue *ring.Buffer[float32]) (*WAVFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%q is not a valid WAV file", path)
	}
	if dec.NumChans < 1 || dec.SampleRate == 0 || dec.BitDepth == 0 {
		f.Close()
		return nil, fmt.Errorf("%q has an unusable format (%d ch, %d Hz, %d bit)",
			path, dec.NumChans, dec.SampleRate, dec.BitDepth)
	}

	w := &WAVFile{
		path:       path,
		queue:      queue,
		decoder:    dec,
		file:       f,
		sampleRate: float64(dec.SampleRate),
		channels:   int(dec.NumChans),
		fullScale:  float32(int(1) << (dec.BitDepth - 1)),
		done:       make(chan struct{}),
	}

	applog.Infof("Capture: WAV source %q (%.0f Hz, %d ch, %d bit)",
		path, w.sampleRate, w.channels, dec.BitDepth)
	return w, nil
}

// SampleRate returns the file's sample rate; the analysis pipeline must be
// configured to match.
func (w *WAVFile) SampleRate() float64 { return w.sampleRate }

// Start launches the streaming goroutine. Pushes are paced so the file
// plays out in real time rather than flooding the ring.
func (w *WAVFile) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *WAVFile) run() {
	defer w.wg.Done()

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: w.channels,
			SampleRate:  int(w.sampleRate),
		},
		Data: make([]int, wavChunkFrames*w.channels),
	}
	chunk := make([]float32, wavChunkFrames)
	interval := pace(wavChunkFrames, w.sampleRate)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := w.decoder.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			applog.Errorf("Capture: WAV read: %v", err)
			return
		}
		if n == 0 {
			applog.Infof("Capture: WAV source %q finished", w.path)
			return
		}

		frames := n / w.channels
		for i := range frames {
			chunk[i] = float32(buf.Data[i*w.channels]) / w.fullScale
		}
		for _, s := range chunk[:frames] {
			w.queue.PushOverwrite(s)
		}
		w.framesRead.Add(uint64(frames))

		select {
		case <-w.done:
			return
		case <-ticker.C:
		}
	}
}

// FramesRead returns the number of frames pushed so far.
func (w *WAVFile) FramesRead() uint64 { return w.framesRead.Load() }

// Close stops streaming and closes the file. Safe to call more than once.
func (w *WAVFile) Close() error {
	w.stopOnce.Do(func() { close(w.done) })
	w.wg.Wait()
	return w.file.Close()
}
