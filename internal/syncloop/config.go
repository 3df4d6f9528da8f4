package syncloop

import (
	"fmt"
	"time"

	syncErrors "github.com/bashhack/gitfilesync/internal/errors"
)

// Commit message policies.
const (
	// PolicyUser uses the override message, or "commit from <user.name>".
	PolicyUser = "user"

	// PolicyStatic always uses the fixed message "not useful".
	PolicyStatic = "static"
)

// Policies lists the valid message policies.
var Policies = []string{PolicyUser, PolicyStatic}

// Config contains the settings that control a Syncer.
type Config struct {
	// Interval is the pause between iterations. Must be greater than 0.
	Interval time.Duration

	// MessagePolicy selects how the commit message is resolved.
	MessagePolicy string

	// CommitMessage overrides the templated message under PolicyUser.
	CommitMessage string

	// PushPending pushes commits left unpushed by an earlier failure
	// when the working tree is clean.
	PushPending bool

	// MaxRetries defines how many consecutive identical errors are allowed before exiting.
	// If zero, the loop retries indefinitely.
	MaxRetries int

	// MaxIterations stops the loop after that many iterations. Zero means forever.
	MaxIterations int

	// Backoff grows the pause exponentially after failed iterations.
	Backoff bool

	// MaxBackoff caps the pause when Backoff is enabled.
	MaxBackoff time.Duration
}

// Validate sanity-checks the config and returns an error if something is wrong.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("Interval must be > 0 (got %s)", c.Interval)
	}
	switch c.MessagePolicy {
	case PolicyUser, PolicyStatic:
	default:
		return syncErrors.NewConfigError("message-policy", c.MessagePolicy,
			syncErrors.Wrapf(syncErrors.ErrInvalidConfiguration, "expected %s or %s", PolicyUser, PolicyStatic))
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("MaxRetries cannot be negative (got %d)", c.MaxRetries)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("MaxIterations cannot be negative (got %d)", c.MaxIterations)
	}
	if c.Backoff && c.MaxBackoff < c.Interval {
		return fmt.Errorf("MaxBackoff must be >= Interval (got %s < %s)", c.MaxBackoff, c.Interval)
	}
	return nil
}
