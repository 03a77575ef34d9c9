package sysfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Standard hobby servo timing.
const (
	ServoPeriod   = 20 * time.Millisecond
	ServoMinPulse = 544 * time.Microsecond
	ServoMaxPulse = 2400 * time.Microsecond
)

// Servo drives a hobby servo from a PWM channel directory such as
// /sys/class/pwm/pwmchip0/pwm0. The channel is exported and enabled on the
// first write.
type Servo struct {
	dir      string
	minPulse time.Duration
	maxPulse time.Duration
	enabled  bool
}

// NewServo returns a Servo using the standard pulse range.
func NewServo(dir string) *Servo {
	return &Servo{dir: dir, minPulse: ServoMinPulse, maxPulse: ServoMaxPulse}
}

// Pulse returns the pulse width for an angle in [0, 180].
func (s *Servo) Pulse(degrees int) time.Duration {
	span := s.maxPulse - s.minPulse
	return s.minPulse + span*time.Duration(degrees)/180
}

// Write sets the servo angle.
func (s *Servo) Write(degrees int) error {
	if degrees < 0 || degrees > 180 {
		return fmt.Errorf("servo angle %d out of range", degrees)
	}
	if !s.enabled {
		if err := s.enable(); err != nil {
			return err
		}
	}
	duty := strconv.FormatInt(s.Pulse(degrees).Nanoseconds(), 10)
	if err := writeString(filepath.Join(s.dir, "duty_cycle"), duty); err != nil {
		return fmt.Errorf("set duty cycle: %w", err)
	}
	return nil
}

func (s *Servo) enable() error {
	if _, err := os.Stat(s.dir); errors.Is(err, os.ErrNotExist) {
		channel := strings.TrimPrefix(filepath.Base(s.dir), "pwm")
		if err := writeString(filepath.Join(filepath.Dir(s.dir), "export"), channel); err != nil {
			return fmt.Errorf("export pwm channel %s: %w", channel, err)
		}
	}
	period := strconv.FormatInt(ServoPeriod.Nanoseconds(), 10)
	if err := writeString(filepath.Join(s.dir, "period"), period); err != nil {
		return fmt.Errorf("set period: %w", err)
	}
	if err := writeString(filepath.Join(s.dir, "enable"), "1"); err != nil {
		return fmt.Errorf("enable pwm: %w", err)
	}
	s.enabled = true
	return nil
}

// Disable stops the PWM output.
func (s *Servo) Disable() error {
	if !s.enabled {
		return nil
	}
	s.enabled = false
	return writeString(filepath.Join(s.dir, "enable"), "0")
}
