package pitch

const (
	defaultVoice1Semitones = 4.0
	defaultVoice2Semitones = 7.0
	defaultVoice1Level     = 0.7
	defaultVoice2Level     = 0.5
)

// Harmonizer sums two pitch-shifted voices of the input. The output carries
// no dry signal.
type Harmonizer struct {
	voices [2]*PitchShifter
	levels [2]float64
}

// NewHarmonizer creates a harmonizer with a major third and a fifth.
func NewHarmonizer(sampleRate float64) (*Harmonizer, error) {
	if err := validateSampleRate("harmonizer", sampleRate); err != nil {
		return nil, err
	}
	h := &Harmonizer{levels: [2]float64{defaultVoice1Level, defaultVoice2Level}}
	intervals := [2]float64{defaultVoice1Semitones, defaultVoice2Semitones}
	for i := range h.voices {
		v, err := NewPitchShifter(sampleRate)
		if err != nil {
			return nil, err
		}
		if err := v.SetSemitones(intervals[i]); err != nil {
			return nil, err
		}
		h.voices[i] = v
	}
	return h, nil
}

// SetSampleRate resizes both voices.
func (h *Harmonizer) SetSampleRate(sampleRate float64) error {
	for _, v := range h.voices {
		if err := v.SetSampleRate(sampleRate); err != nil {
			return err
		}
	}
	return nil
}

// SetVoice sets interval and level (in [0, 1]) of voice 0 or 1.
func (h *Harmonizer) SetVoice(i int, semitones, level float64) error {
	if i < 0 || i >= len(h.voices) {
		return validateRange("harmonizer voice", float64(i), 0, float64(len(h.voices)-1))
	}
	if err := validateRange("harmonizer level", level, 0, 1); err != nil {
		return err
	}
	if err := h.voices[i].SetSemitones(semitones); err != nil {
		return err
	}
	h.levels[i] = level
	return nil
}

// SetGrainMs sets the grain of both voices.
func (h *Harmonizer) SetGrainMs(ms float64) error {
	for _, v := range h.voices {
		if err := v.SetGrainMs(ms); err != nil {
			return err
		}
	}
	return nil
}

// Voice returns interval and level of voice i.
func (h *Harmonizer) Voice(i int) (semitones, level float64) {
	return h.voices[i].Semitones(), h.levels[i]
}

// SampleRate returns the sample rate.
func (h *Harmonizer) SampleRate() float64 { return h.voices[0].SampleRate() }

// Latency returns the voice latency in samples.
func (h *Harmonizer) Latency() float64 { return h.voices[0].Latency() }

// Reset clears both voices.
func (h *Harmonizer) Reset() {
	for _, v := range h.voices {
		v.Reset()
	}
}

// ProcessSample processes one sample.
func (h *Harmonizer) ProcessSample(input float64) float64 {
	return h.levels[0]*h.voices[0].ProcessSample(input) +
		h.levels[1]*h.voices[1].ProcessSample(input)
}

// ProcessInPlace harmonizes buf in place.
func (h *Harmonizer) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = h.ProcessSample(buf[i])
	}
}
