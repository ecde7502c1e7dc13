package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPollExhausted is returned when a poll loop reaches MaxAttempts without a terminal result.
var ErrPollExhausted = errors.New("poll attempts exhausted")

// DefaultPollInterval is the delay between two poll attempts.
const DefaultPollInterval = time.Second

// PollConfig configures a poll loop.
type PollConfig struct {
	// Interval is the delay between attempts.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// MaxAttempts bounds the number of attempts. 0 means unbounded.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	// Clock is the time source for the delay.
	Clock Clock `yaml:"-" mapstructure:"-"`
	// OnAttempt is called before each attempt with its 1-based number.
	OnAttempt func(attempt int) `yaml:"-" mapstructure:"-"`
}

// DefaultPollConfig returns an unbounded poll loop with a one second interval.
func DefaultPollConfig() PollConfig {
	return PollConfig{Interval: DefaultPollInterval}
}

// ApplyDefaults fills zero values.
func (c *PollConfig) ApplyDefaults() {
	if c.Interval <= 0 {
		c.Interval = DefaultPollInterval
	}
}

// Validate checks the configuration.
func (c *PollConfig) Validate() error {
	if c.MaxAttempts < 0 {
		return fmt.Errorf("poll: max_attempts must be >= 0, got %d", c.MaxAttempts)
	}
	return nil
}

// Poll calls fn until it reports done, returns an error, the context is
// cancelled, or MaxAttempts is reached. Attempts are strictly sequential and
// separated by Interval. The returned int is the number of attempts made.
func Poll[T any](ctx context.Context, cfg PollConfig, fn func(ctx context.Context, attempt int) (T, bool, error)) (T, int, error) {
	var zero T
	cfg.ApplyDefaults()
	clock := clockOrDefault(cfg.Clock)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, attempt - 1, err
		}
		if cfg.OnAttempt != nil {
			cfg.OnAttempt(attempt)
		}

		result, done, err := fn(ctx, attempt)
		if err != nil {
			return zero, attempt, err
		}
		if done {
			return result, attempt, nil
		}

		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			return zero, attempt, fmt.Errorf("%w after %d attempts", ErrPollExhausted, attempt)
		}

		select {
		case <-ctx.Done():
			return zero, attempt, ctx.Err()
		case <-clock.After(cfg.Interval):
		}
	}
}
