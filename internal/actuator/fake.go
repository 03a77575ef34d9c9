package actuator

// FakeDigital records writes to a digital output.
type FakeDigital struct {
	On     bool
	Writes []bool
	Err    error
}

// Set records the write.
func (f *FakeDigital) Set(on bool) error {
	f.Writes = append(f.Writes, on)
	if f.Err != nil {
		return f.Err
	}
	f.On = on
	return nil
}

// FakePosition records writes to a positional output.
type FakePosition struct {
	Degrees int
	Writes  []int
	Err     error
}

// Write records the write.
func (f *FakePosition) Write(degrees int) error {
	f.Writes = append(f.Writes, degrees)
	if f.Err != nil {
		return f.Err
	}
	f.Degrees = degrees
	return nil
}
