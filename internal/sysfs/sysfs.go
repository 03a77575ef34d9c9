// Package sysfs reads the climate sensor and gas ADC through the Linux IIO
// interface and drives servos through the PWM class interface.
package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func readInt(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}

func writeString(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}

// Climate reads a DHT11/DHT22 bound to the kernel dht11 IIO driver. Values
// are reported in thousandths.
type Climate struct {
	dir string
}

// NewClimate returns a Climate for an IIO device directory such as
// /sys/bus/iio/devices/iio:device0.
func NewClimate(dir string) *Climate {
	return &Climate{dir: dir}
}

// Sample reads temperature (°C) and relative humidity (%). The driver fails
// reads with EIO when the sensor's checksum is bad; that error is returned.
func (c *Climate) Sample() (temperature, humidity float64, err error) {
	t, err := readInt(filepath.Join(c.dir, "in_temp_input"))
	if err != nil {
		return 0, 0, fmt.Errorf("read temperature: %w", err)
	}
	h, err := readInt(filepath.Join(c.dir, "in_humidityrelative_input"))
	if err != nil {
		return 0, 0, fmt.Errorf("read humidity: %w", err)
	}
	return float64(t) / 1000, float64(h) / 1000, nil
}

// ADC reads one raw channel of an IIO ADC.
type ADC struct {
	path string
}

// NewADC returns an ADC reading in_voltage<channel>_raw under dir.
func NewADC(dir string, channel int) *ADC {
	return &ADC{path: filepath.Join(dir, fmt.Sprintf("in_voltage%d_raw", channel))}
}

// Raw returns the current conversion result.
func (a *ADC) Raw() (int, error) {
	v, err := readInt(a.path)
	if err != nil {
		return 0, fmt.Errorf("read adc: %w", err)
	}
	return v, nil
}
