package chroma

import (
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/mixkey/algorithms/spectral"
)

// ChromaCQT computes chromagrams using a Constant-Q Transform.
//
// The CQT uses logarithmic frequency spacing, f_k = f_min * 2^(k/bins_per_octave),
// which matches musical note spacing where each octave doubles in frequency.
// That gives higher resolution at low frequencies and cleanly separates the
// harmonics that matter for key detection, at a higher computational cost
// than an STFT-based chromagram.
type ChromaCQT struct {
	sampleRate    int
	fft           *spectral.FFT
	minFreq       float64 // Minimum frequency (typically C2 ≈ 65.4 Hz)
	maxFreq       float64 // Maximum frequency
	binsPerOctave int     // Number of CQT bins per octave
	qFactor       float64 // Quality factor (frequency/bandwidth)
	tuningFreq    float64 // A4 frequency (default 440 Hz)

	// Pre-computed CQT kernel
	cqtKernel      [][]complex128 // CQT transformation matrix (frequency domain)
	freqBins       []float64      // CQT frequency bins
	kernelComputed bool
}

// NewChromaCQT creates a new CQT-based chromagram calculator
func NewChromaCQT(sampleRate int, minFreq, maxFreq float64, binsPerOctave int, qFactor, tuningFreq float64) *ChromaCQT {
	return &ChromaCQT{
		sampleRate:    sampleRate,
		fft:           spectral.NewFFT(),
		minFreq:       minFreq,
		maxFreq:       maxFreq,
		binsPerOctave: binsPerOctave,
		qFactor:       qFactor,
		tuningFreq:    tuningFreq,
	}
}

// NewChromaCQTDefault creates a CQT chromagram calculator with standard musical settings
func NewChromaCQTDefault(sampleRate int) *ChromaCQT {
	return NewChromaCQT(
		sampleRate,
		65.4,   // C2 frequency
		2093.0, // C7 frequency (5 octaves)
		12,     // semitone resolution
		25.0,   // Quality factor
		440.0,  // A4 = 440 Hz
	)
}

// Compute computes a CQT-based chromagram from an audio signal.
// The result has one row per pitch class and one column per hop of hopSize
// samples. An empty signal yields an empty chromagram, not an error.
func (cqt *ChromaCQT) Compute(signal []float64, hopSize int) (*Chromagram, error) {
	if len(signal) == 0 || hopSize <= 0 {
		return &Chromagram{}, nil
	}

	if !cqt.kernelComputed {
		if err := cqt.computeCQTKernel(); err != nil {
			return nil, err
		}
	}

	cqtSpectrogram := cqt.computeCQTSpectrogram(signal, hopSize)

	return cqt.foldToChroma(cqtSpectrogram), nil
}

// computeCQTKernel pre-computes the CQT transformation kernel
func (cqt *ChromaCQT) computeCQTKernel() error {
	numOctaves := math.Log2(cqt.maxFreq / cqt.minFreq)
	totalBins := int(numOctaves * float64(cqt.binsPerOctave))

	cqt.freqBins = make([]float64, totalBins)
	for k := 0; k < totalBins; k++ {
		cqt.freqBins[k] = cqt.minFreq * math.Pow(2.0, float64(k)/float64(cqt.binsPerOctave))
	}

	// FFT size: next power of 2 that accommodates the longest kernel,
	// zero-padded for circular convolution. The lowest frequency has the
	// longest kernel.
	maxKernelLength := cqt.kernelLength(cqt.freqBins[0])
	fftSize := nextPowerOfTwo(maxKernelLength * 2)

	cqt.cqtKernel = make([][]complex128, totalBins)

	for k, freq := range cqt.freqBins {
		kernelLength := cqt.kernelLength(freq)

		// Time-domain kernel: complex exponential under a Gaussian window
		kernel := make([]float64, fftSize)
		phases := make([]float64, fftSize)

		bandwidth := freq / cqt.qFactor
		sigma := float64(cqt.sampleRate) / (2.0 * math.Pi * bandwidth)

		center := kernelLength / 2
		for n := 0; n < kernelLength; n++ {
			t := float64(n - center)
			window := math.Exp(-(t * t) / (2.0 * sigma * sigma))
			phase := 2.0 * math.Pi * freq * t / float64(cqt.sampleRate)

			kernel[n] = window * math.Cos(phase)
			phases[n] = window * math.Sin(phase)
		}

		// Frequency-domain kernel for pointwise multiplication per frame
		realPart := cqt.fft.Compute(kernel)
		imagPart := cqt.fft.Compute(phases)

		bins := make([]complex128, len(realPart))
		for i := range bins {
			bins[i] = realPart[i] + complex(0, 1)*imagPart[i]
		}
		cqt.cqtKernel[k] = bins
	}

	cqt.kernelComputed = true
	return nil
}

// kernelLength calculates the CQT kernel length for a given frequency.
// Length is inversely proportional to frequency (Q = f/bandwidth).
func (cqt *ChromaCQT) kernelLength(frequency float64) int {
	kernelLength := int(cqt.qFactor * float64(cqt.sampleRate) / frequency)

	// Odd length keeps the kernel symmetric around its center
	if kernelLength%2 == 0 {
		kernelLength++
	}

	if kernelLength < 3 {
		kernelLength = 3
	}
	if kernelLength > cqt.sampleRate/2 {
		kernelLength = cqt.sampleRate / 2
	}

	return kernelLength
}

// computeCQTSpectrogram applies the kernel to overlapping frames
func (cqt *ChromaCQT) computeCQTSpectrogram(signal []float64, hopSize int) [][]float64 {
	numFrames := len(signal) / hopSize
	if numFrames <= 0 {
		numFrames = 1
	}

	fftSize := 0
	if len(cqt.cqtKernel) > 0 {
		fftSize = len(cqt.cqtKernel[0])
	}

	spectrogram := make([][]float64, numFrames)

	for frameIdx := 0; frameIdx < numFrames; frameIdx++ {
		startIdx := frameIdx * hopSize

		// Extract frame, zero-padded at the tail
		frame := make([]float64, fftSize)
		for i := 0; i < fftSize; i++ {
			if startIdx+i < len(signal) {
				frame[i] = signal[startIdx+i]
			}
		}

		frameFFT := cqt.fft.Compute(frame)

		// Pointwise multiplication in the frequency domain is convolution
		// with the kernel in time
		cqtFrame := make([]float64, len(cqt.freqBins))
		for k := range cqt.freqBins {
			cqtBin := complex(0, 0)
			for n := 0; n < len(frameFFT) && n < len(cqt.cqtKernel[k]); n++ {
				cqtBin += frameFFT[n] * cmplx.Conj(cqt.cqtKernel[k][n])
			}
			cqtFrame[k] = cmplx.Abs(cqtBin)
		}

		spectrogram[frameIdx] = cqtFrame
	}

	return spectrogram
}

// foldToChroma folds the CQT spectrogram across octaves into 12 pitch classes
func (cqt *ChromaCQT) foldToChroma(cqtSpectrogram [][]float64) *Chromagram {
	numFrames := len(cqtSpectrogram)
	energies := make([][]float64, NumPitchClasses)
	for pc := range energies {
		energies[pc] = make([]float64, numFrames)
	}

	for t := range cqtSpectrogram {
		for k, freq := range cqt.freqBins {
			midiNote := cqt.frequencyToMIDI(freq)
			pc := int(math.Round(midiNote)) % NumPitchClasses
			if pc < 0 {
				pc += NumPitchClasses
			}

			// Magnitude squared, so rows accumulate energy
			magnitude := cqtSpectrogram[t][k]
			energies[pc][t] += magnitude * magnitude
		}

		cqt.normalizeFrame(energies, t)
	}

	return &Chromagram{Energies: energies, Frames: numFrames}
}

// normalizeFrame normalizes one time column to unit energy sum
func (cqt *ChromaCQT) normalizeFrame(energies [][]float64, t int) {
	totalEnergy := 0.0
	for pc := range energies {
		totalEnergy += energies[pc][t]
	}

	if totalEnergy > 1e-10 {
		for pc := range energies {
			energies[pc][t] /= totalEnergy
		}
	}
}

// frequencyToMIDI converts frequency to MIDI note number: 69 + 12*log2(f/A4)
func (cqt *ChromaCQT) frequencyToMIDI(frequency float64) float64 {
	if frequency <= 0 {
		return 0
	}
	return 69.0 + 12.0*math.Log2(frequency/cqt.tuningFreq)
}

// nextPowerOfTwo finds the next power of 2 >= n
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}

	power := 1
	for power < n {
		power <<= 1
	}
	return power
}
