// Package testsig generates reference signals for analysis tests.
package testsig

import "math"

// Sine returns a full-scale sine wave at the given frequency.
func Sine(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2 * math.Pi * frequency * t)
	}
	return buffer
}

// SineAmplitude returns a sine wave scaled to the given amplitude.
func SineAmplitude(size int, sampleRate, frequency, amplitude float64) []float64 {
	buffer := Sine(size, sampleRate, frequency)
	for i := range buffer {
		buffer[i] *= amplitude
	}
	return buffer
}

// Harmonics returns a 440 Hz fundamental with two harmonics, useful as an
// arbitrary broadband-ish test signal.
func Harmonics(size int, sampleRate float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
	}
	return buffer
}

// FindPeakBin returns the index of the largest magnitude in [startBin, endBin].
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}
