package sensor

import "errors"

// ErrNoSamples is returned by the fakes when no samples are scripted.
var ErrNoSamples = errors.New("no samples configured")

// ClimateSample is one scripted climate reading.
type ClimateSample struct {
	Temperature float64
	Humidity    float64
	Err         error
}

// FakeClimate returns scripted climate samples. Once the script is exhausted
// the last sample repeats.
type FakeClimate struct {
	Samples []ClimateSample
	Calls   int
	index   int
}

// NewFakeClimate creates a FakeClimate with the given samples.
func NewFakeClimate(samples ...ClimateSample) *FakeClimate {
	return &FakeClimate{Samples: samples}
}

// Sample returns the next scripted sample.
func (f *FakeClimate) Sample() (float64, float64, error) {
	f.Calls++
	if len(f.Samples) == 0 {
		return 0, 0, ErrNoSamples
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s.Temperature, s.Humidity, s.Err
}

// Push appends samples to the script and moves the cursor to the first of
// them.
func (f *FakeClimate) Push(samples ...ClimateSample) {
	if len(samples) == 0 {
		return
	}
	f.Samples = append(f.Samples, samples...)
	f.index = len(f.Samples) - len(samples)
}

// FakeMotion returns a settable motion level.
type FakeMotion struct {
	Level bool
	Err   error
}

// Motion returns the current level.
func (f *FakeMotion) Motion() (bool, error) {
	return f.Level, f.Err
}

// FakeGas returns a settable raw sample.
type FakeGas struct {
	Value int
	Err   error
}

// Raw returns the current value.
func (f *FakeGas) Raw() (int, error) {
	return f.Value, f.Err
}
