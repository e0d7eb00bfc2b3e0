// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"strings"
)

// Window selects the analysis window applied before the forward transform.
// The window trades frequency resolution against spectral leakage.
type Window int

const (
	Rectangular Window = iota // No weighting - max resolution, max leakage
	Hann                      // Good general purpose default
	Hamming                   // Hann variant with different sidelobe behavior
	Blackman                  // Low leakage at the cost of resolution
	FlatTop                   // Accurate amplitude, poor resolution
)

// String returns the window name as used in configuration files.
func (w Window) String() string {
	switch w {
	case Rectangular:
		return "Rectangular"
	case Hann:
		return "Hann"
	case Hamming:
		return "Hamming"
	case Blackman:
		return "Blackman"
	case FlatTop:
		return "FlatTop"
	default:
		return "Unknown"
	}
}

// ParseWindow converts a window name (case-insensitive) to a Window.
// Returns Hann and false if the name is not recognized.
func ParseWindow(name string) (Window, bool) {
	switch strings.ToLower(name) {
	case "rectangular", "rect", "none":
		return Rectangular, true
	case "hann":
		return Hann, true
	case "hamming":
		return Hamming, true
	case "blackman":
		return Blackman, true
	case "flattop":
		return FlatTop, true
	default:
		return Hann, false
	}
}

// makeWindow computes the coefficient table for the given window kind.
// Coefficients are a pure function of (size, kind); positions are normalized
// as x = i/(size-1) over [0, 1].
func makeWindow(size int, kind Window) []float64 {
	coeffs := make([]float64, size)

	if kind == Rectangular || size == 1 {
		for i := range coeffs {
			coeffs[i] = 1.0
		}
		return coeffs
	}

	for i := range coeffs {
		x := float64(i) / float64(size-1)
		switch kind {
		case Hann:
			coeffs[i] = 0.5 * (1 - math.Cos(2*math.Pi*x))
		case Hamming:
			coeffs[i] = 0.54 - 0.46*math.Cos(2*math.Pi*x)
		case Blackman:
			coeffs[i] = 0.42 - 0.5*math.Cos(2*math.Pi*x) + 0.08*math.Cos(4*math.Pi*x)
		case FlatTop:
			coeffs[i] = 0.21557895 -
				0.41663158*math.Cos(2*math.Pi*x) +
				0.27726316*math.Cos(4*math.Pi*x) -
				0.08357895*math.Cos(6*math.Pi*x) +
				0.00694737*math.Cos(8*math.Pi*x)
		}
	}
	return coeffs
}
