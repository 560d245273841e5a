// Package config loads the ctlsim run configuration. Every field is
// optional; the defaults reproduce the fixed endpoints, channel sets and
// timings the tool has always used.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/showcontroller/ctlsim/cc"
	"github.com/showcontroller/ctlsim/producer"
)

// Default endpoints.
const (
	DefaultOSCTarget = "127.0.0.1:5007"
	DefaultCCTarget  = "localhost:5005"
)

// Transports accepted for OSC traffic.
const (
	TransportUDP = "udp"
	TransportTCP = "tcp"
)

// Config is the root of the configuration file.
type Config struct {
	OSC  OSC    `yaml:"osc"`
	CC   CC     `yaml:"cc"`
	PCAP string `yaml:"pcap"`
}

// OSC configures the OSC producers.
type OSC struct {
	Target    string        `yaml:"target"`
	Transport string        `yaml:"transport"`
	Channels  []string      `yaml:"channels"`
	Rounds    int           `yaml:"rounds"`
	Interval  time.Duration `yaml:"interval"`
	Max       int           `yaml:"max"`
	Bundle    Bundle        `yaml:"bundle"`
}

// Bundle configures the one-shot bundle.
type Bundle struct {
	Channels []string `yaml:"channels"`
	Value    int32    `yaml:"value"`
	NestCopy bool     `yaml:"nest_copy"`
}

// CC configures the control-change simulator.
type CC struct {
	Target string `yaml:"target"`
	Serial string `yaml:"serial"`
	Baud   int    `yaml:"baud"`
	Warmup bool   `yaml:"warmup"`
	Show   Show   `yaml:"show"`
}

// Show configures the control-change show.
type Show struct {
	Channels int           `yaml:"channels"`
	Steps    int           `yaml:"steps"`
	Max      int           `yaml:"max"`
	Interval time.Duration `yaml:"interval"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OSC: OSC{
			Target:    DefaultOSCTarget,
			Transport: TransportUDP,
			Channels:  append([]string(nil), producer.DefaultChannels...),
			Rounds:    producer.DefaultRounds,
			Interval:  producer.DefaultInterval,
			Max:       producer.DefaultMax,
			Bundle: Bundle{
				Channels: append([]string(nil), producer.DefaultBundleChannels...),
				Value:    producer.DefaultBundleValue,
			},
		},
		CC: CC{
			Target: DefaultCCTarget,
			Baud:   115200,
			Warmup: true,
			Show: Show{
				Channels: cc.DefaultShowChannels,
				Steps:    cc.DefaultShowSteps,
				Max:      cc.DefaultShowMax,
				Interval: cc.DefaultShowInterval,
			},
		},
	}
}

// Load reads the configuration at path on top of the defaults. An empty path
// yields the defaults; a path that cannot be read is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values no producer can use.
func (c *Config) Validate() error {
	if c.OSC.Target == "" {
		return errors.New("osc.target is empty")
	}
	if c.OSC.Transport != TransportUDP && c.OSC.Transport != TransportTCP {
		return fmt.Errorf("osc.transport %q: want %q or %q", c.OSC.Transport, TransportUDP, TransportTCP)
	}
	if err := c.Stream().Validate(); err != nil {
		return fmt.Errorf("osc: %w", err)
	}
	if len(c.OSC.Bundle.Channels) == 0 {
		return errors.New("osc.bundle.channels is empty")
	}
	if c.CC.Target == "" && c.CC.Serial == "" {
		return errors.New("cc.target and cc.serial are both empty")
	}
	if c.CC.Baud < 0 {
		return fmt.Errorf("cc.baud %d is negative", c.CC.Baud)
	}
	if err := c.Show().Validate(); err != nil {
		return fmt.Errorf("cc.show: %w", err)
	}
	return nil
}

// Stream returns the configured OSC message stream.
func (c *Config) Stream() producer.Stream {
	return producer.Stream{
		Channels: c.OSC.Channels,
		Rounds:   c.OSC.Rounds,
		Interval: c.OSC.Interval,
		Max:      c.OSC.Max,
	}
}

// Burst returns the configured OSC bundle.
func (c *Config) Burst() producer.Burst {
	return producer.Burst{
		Channels: c.OSC.Bundle.Channels,
		Value:    c.OSC.Bundle.Value,
		NestCopy: c.OSC.Bundle.NestCopy,
	}
}

// Show returns the configured control-change show.
func (c *Config) Show() cc.Show {
	return cc.Show{
		Channels: c.CC.Show.Channels,
		Steps:    c.CC.Show.Steps,
		Max:      c.CC.Show.Max,
		Interval: c.CC.Show.Interval,
	}
}
