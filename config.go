package sigreceipts

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/BurntSushi/toml"
)

// Config is the file form of a signal set, e.g.
//
//	signals = ["SIGHUP", "usr1", "SIGUSR2"]
//	capacity = 8
//	semaphore_limit = 64
//
//	[log]
//	level = "debug"
//	file = "/var/log/sigwatch.log"
type Config struct {
	Signals []string `toml:"signals"`
	// Capacity bounds the notification channel; nil means unbounded.
	Capacity       *int      `toml:"capacity"`
	SemaphoreLimit int       `toml:"semaphore_limit"`
	Log            LogConfig `toml:"log"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// LoadConfig decodes a TOML file and validates it. Unknown keys are errors.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("sigreceipts: load config: %w", err)
	}
	if undec := md.Undecoded(); len(undec) > 0 {
		return nil, fmt.Errorf("sigreceipts: load config: unknown key %q", undec[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks names, duplicates and limits.
func (c *Config) Validate() error {
	_, err := c.SignalNumbers()
	if c.Capacity != nil && *c.Capacity < 0 {
		err = errors.Join(err, fmt.Errorf("sigreceipts: config: negative capacity %d", *c.Capacity))
	}
	if c.SemaphoreLimit < 0 {
		err = errors.Join(err, fmt.Errorf("sigreceipts: config: negative semaphore_limit %d", c.SemaphoreLimit))
	}
	if c.Log.MaxSizeMB < 0 {
		err = errors.Join(err, fmt.Errorf("sigreceipts: config: negative log.max_size_mb %d", c.Log.MaxSizeMB))
	}
	if c.Log.MaxBackups < 0 {
		err = errors.Join(err, fmt.Errorf("sigreceipts: config: negative log.max_backups %d", c.Log.MaxBackups))
	}
	return err
}

// SignalNumbers resolves Signals in order.
func (c *Config) SignalNumbers() ([]syscall.Signal, error) {
	if len(c.Signals) == 0 {
		return nil, ErrNoSignals
	}
	seen := make(map[syscall.Signal]bool, len(c.Signals))
	out := make([]syscall.Signal, 0, len(c.Signals))
	var errs []error
	for _, name := range c.Signals {
		sig, err := ParseSignal(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[sig] {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateSignal, SignalName(sig)))
			continue
		}
		seen[sig] = true
		out = append(out, sig)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
