// Package config loads the ledclock YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/ledclock/internal/logic"
)

// DefaultPath is where the service looks for its configuration.
const DefaultPath = "/etc/ledclock.yaml"

// ErrNoSlots is returned by Validate when no slot is configured.
var ErrNoSlots = errors.New("no slots configured")

// Config is the on-disk configuration. Flags override individual fields
// after loading.
type Config struct {
	Broker    string        `yaml:"broker"`
	HTTP      string        `yaml:"http"`
	Poll      time.Duration `yaml:"poll"`
	Debounce  time.Duration `yaml:"debounce"`
	Heartbeat time.Duration `yaml:"heartbeat"`
	Location  string        `yaml:"location"`
	RestartAt string        `yaml:"restart_at"`

	GPIO       GPIO        `yaml:"gpio"`
	Controller *Controller `yaml:"controller"`
	Timings    Timings     `yaml:"timings"`
	Slots      []Slot      `yaml:"slots"`
}

// GPIO selects the chip and the shared disable input.
type GPIO struct {
	Chip       string `yaml:"chip"`
	DisablePin int    `yaml:"disable_pin"` // -1: not wired
}

// Controller places the four controller variables.
type Controller struct {
	BaseVar int `yaml:"base_var"`
}

// Timing is one occasion kind's re-arm window and display duration.
type Timing struct {
	PeriodMin time.Duration `yaml:"period_min"`
	PeriodMax time.Duration `yaml:"period_max"`
	Duration  time.Duration `yaml:"duration"`
}

// Timings mirrors logic.Timings.
type Timings struct {
	Dated              Timing        `yaml:"dated"`
	Daily              Timing        `yaml:"daily"`
	FirstDisplay       time.Duration `yaml:"first_display"`
	FirstDisplayJitter time.Duration `yaml:"first_display_jitter"`
	ControllerDelay    time.Duration `yaml:"controller_delay"`
}

// Slot configures one catalog and its trigger input.
type Slot struct {
	Name          string `yaml:"name"`
	Dates         string `yaml:"dates"`
	BaseVar       int    `yaml:"base_var"`
	TriggerPin    int    `yaml:"trigger_pin"` // -1: no manual trigger
	Capacity      int    `yaml:"capacity"`
	DisabledValue bool   `yaml:"disabled_value"`
}

// Default returns a configuration with every field except Slots filled in.
func Default() Config {
	t := logic.DefaultTimings()
	return Config{
		Broker:    "tcp://192.168.1.200:1883",
		HTTP:      ":80",
		Poll:      100 * time.Millisecond,
		Debounce:  50 * time.Millisecond,
		Heartbeat: 15 * time.Minute,
		Location:  "Europe/Berlin",
		GPIO: GPIO{
			Chip:       "gpiochip0",
			DisablePin: unwired,
		},
		Timings: Timings{
			Dated:              Timing(t.Dated),
			Daily:              Timing(t.Daily),
			FirstDisplay:       t.FirstDisplay,
			FirstDisplayJitter: t.FirstDisplayJitter,
			ControllerDelay:    t.ControllerDelay,
		},
	}
}

// Load reads path on top of Default. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping fields the document omits.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// UnmarshalYAML leaves the trigger input unwired unless trigger_pin is set.
func (s *Slot) UnmarshalYAML(n *yaml.Node) error {
	type plain Slot
	p := plain{TriggerPin: unwired}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*s = Slot(p)
	return nil
}

// Validate reports every problem found, joined into one error.
func (c Config) Validate() error {
	var errs []error
	if len(c.Slots) == 0 {
		errs = append(errs, ErrNoSlots)
	}
	if c.Poll <= 0 {
		errs = append(errs, fmt.Errorf("poll must be positive, got %v", c.Poll))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce must not be negative, got %v", c.Debounce))
	}
	if c.Heartbeat < 0 {
		errs = append(errs, fmt.Errorf("heartbeat must not be negative, got %v", c.Heartbeat))
	}
	for _, k := range []struct {
		name string
		t    Timing
	}{{"dated", c.Timings.Dated}, {"daily", c.Timings.Daily}} {
		if k.t.PeriodMin < 0 || k.t.PeriodMax < k.t.PeriodMin {
			errs = append(errs, fmt.Errorf("timings.%s: invalid period %v..%v", k.name, k.t.PeriodMin, k.t.PeriodMax))
		}
		if k.t.Duration <= 0 {
			errs = append(errs, fmt.Errorf("timings.%s: duration must be positive, got %v", k.name, k.t.Duration))
		}
		errs = appendTooLong(errs, "timings."+k.name+".period_max", k.t.PeriodMax)
		errs = appendTooLong(errs, "timings."+k.name+".duration", k.t.Duration)
	}
	for _, d := range []struct {
		name string
		v    time.Duration
	}{
		{"first_display", c.Timings.FirstDisplay},
		{"first_display_jitter", c.Timings.FirstDisplayJitter},
		{"controller_delay", c.Timings.ControllerDelay},
	} {
		if d.v < 0 {
			errs = append(errs, fmt.Errorf("timings.%s must not be negative, got %v", d.name, d.v))
		}
		errs = appendTooLong(errs, "timings."+d.name, d.v)
	}

	names := make(map[string]bool)
	for i, s := range c.Slots {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("slot %d: name is required", i))
		} else if names[s.Name] {
			errs = append(errs, fmt.Errorf("slot %d: duplicate name %q", i, s.Name))
		}
		names[s.Name] = true
		if s.BaseVar < 0 {
			errs = append(errs, fmt.Errorf("slot %q: base_var must not be negative", s.Name))
		}
		if s.TriggerPin < unwired {
			errs = append(errs, fmt.Errorf("slot %q: trigger_pin must be -1 (unwired) or a line offset, got %d", s.Name, s.TriggerPin))
		}
	}
	if c.GPIO.DisablePin < unwired {
		errs = append(errs, fmt.Errorf("gpio.disable_pin must be -1 (unwired) or a line offset, got %d", c.GPIO.DisablePin))
	}
	if c.Controller != nil && c.Controller.BaseVar < 0 {
		errs = append(errs, errors.New("controller: base_var must not be negative"))
	}
	return errors.Join(errs...)
}

// unwired marks a pin with nothing connected.
const unwired = -1

// MaxTiming bounds every scheduling duration; deadlines are compared on a
// wrapping millisecond counter that only orders spans below 2^31 ms.
const MaxTiming = 24 * time.Hour

func appendTooLong(errs []error, name string, d time.Duration) []error {
	if d >= MaxTiming {
		return append(errs, fmt.Errorf("%s must be below %v, got %v", name, MaxTiming, d))
	}
	return errs
}

// Overlaps returns a description of every pair of variable ranges that
// share an index. Overlapping ranges are allowed but their outputs are
// undefined, so callers log them.
func (c Config) Overlaps() []string {
	type span struct {
		name     string
		from, to int // inclusive
	}
	var spans []span
	for _, s := range c.Slots {
		_, n := logic.SlotCatalog(s.Dates, s.Capacity)
		if n == 0 {
			continue
		}
		spans = append(spans, span{s.Name, s.BaseVar, s.BaseVar + n - 1})
	}
	if c.Controller != nil {
		spans = append(spans, span{"controller", c.Controller.BaseVar, c.Controller.BaseVar + logic.ControllerVars - 1})
	}

	var out []string
	for i := range spans {
		for j := i + 1; j < len(spans); j++ {
			a, b := spans[i], spans[j]
			if a.from <= b.to && b.from <= a.to {
				out = append(out, fmt.Sprintf("%s [%d..%d] overlaps %s [%d..%d]", a.name, a.from, a.to, b.name, b.from, b.to))
			}
		}
	}
	return out
}

// EngineConfig converts to the scheduler's configuration.
func (c Config) EngineConfig() logic.EngineConfig {
	ec := logic.EngineConfig{
		Timings: logic.Timings{
			Dated:              logic.Timing(c.Timings.Dated),
			Daily:              logic.Timing(c.Timings.Daily),
			FirstDisplay:       c.Timings.FirstDisplay,
			FirstDisplayJitter: c.Timings.FirstDisplayJitter,
			ControllerDelay:    c.Timings.ControllerDelay,
		},
		Debounce: c.Debounce,
	}
	if c.Controller != nil {
		ec.Controller = &logic.ControllerConfig{BaseVar: c.Controller.BaseVar}
	}
	for _, s := range c.Slots {
		ec.Slots = append(ec.Slots, logic.SlotConfig{
			Name:          s.Name,
			Dates:         s.Dates,
			BaseVar:       s.BaseVar,
			Capacity:      s.Capacity,
			DisabledValue: s.DisabledValue,
		})
	}
	return ec
}

// TriggerPins lists each slot's trigger pin in slot order.
func (c Config) TriggerPins() []int {
	pins := make([]int, len(c.Slots))
	for i, s := range c.Slots {
		pins[i] = s.TriggerPin
	}
	return pins
}
