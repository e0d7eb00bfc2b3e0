// SPDX-License-Identifier: MIT
package dsp

import "math"

// Band is a half-open range [Lo, Hi) of FFT bin indices aggregated into one
// display band.
type Band struct {
	Lo int
	Hi int
}

// Width returns the number of bins covered by the band.
func (b Band) Width() int { return b.Hi - b.Lo }

// ComputeLogBands partitions the FFT bins into numBands ranges whose edges
// are equally spaced in log10 frequency between minFreq and maxFreq. Every
// band covers at least one bin; degenerate ranges at low band counts are
// widened to Lo+1. The mapping is pure: identical inputs always give an
// identical partition.
//
// Edge frequencies are truncated to bin indices rather than rounded. That
// intentionally differs from FFTProcessor.FrequencyToBin and shifts some
// band edges by one bin.
func ComputeLogBands(binCount, numBands int, minFreq, maxFreq, sampleRate float64, fftSize int) []Band {
	bands := make([]Band, 0, numBands)

	logMin := math.Log10(minFreq)
	logStep := (math.Log10(maxFreq) - logMin) / float64(numBands)

	freqToBin := func(freq float64) int {
		bin := int(freq * float64(fftSize) / sampleRate)
		if bin < 0 {
			bin = 0
		}
		if bin > binCount-1 {
			bin = binCount - 1
		}
		return bin
	}

	for i := range numBands {
		freqLo := math.Pow(10, logMin+logStep*float64(i))
		freqHi := math.Pow(10, logMin+logStep*float64(i+1))

		lo := freqToBin(freqLo)
		hi := freqToBin(freqHi)

		if hi <= lo {
			hi = lo + 1
		}
		if hi > binCount {
			hi = binCount
		}

		bands = append(bands, Band{Lo: lo, Hi: hi})
	}
	return bands
}

// ComputeLinearBands partitions [0, binCount) into numBands contiguous
// equal-width ranges; the final range absorbs any remainder up to binCount.
func ComputeLinearBands(binCount, numBands int) []Band {
	bands := make([]Band, 0, numBands)
	perBand := binCount / numBands

	for i := range numBands {
		lo := i * perBand
		hi := lo + perBand
		if i == numBands-1 {
			hi = binCount
		}
		if hi <= lo {
			hi = lo + 1
		}
		bands = append(bands, Band{Lo: lo, Hi: hi})
	}
	return bands
}
