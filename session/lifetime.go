package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type (
	LifetimeKind byte

	// Lifetime decides how long a browser keeps the session cookie
	Lifetime struct {
		Kind     LifetimeKind
		Duration time.Duration
	}
)

const (
	Permanent LifetimeKind = iota
	SessionScoped
	Limited
)

// PermanentAge mirrors what browsers consider "forever" for cookies
const PermanentAge = 20 * 365 * 24 * time.Hour

func PermanentLifetime() Lifetime { return Lifetime{Kind: Permanent} }

func SessionLifetime() Lifetime { return Lifetime{Kind: SessionScoped} }

func LimitedLifetime(d time.Duration) Lifetime { return Lifetime{Kind: Limited, Duration: d} }

// ParseLifetime accepts "permanent", "session" or a positive duration.
// Durations use time.ParseDuration syntax plus whole days ("30d") and
// weeks ("2w").
func ParseLifetime(value string) (Lifetime, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "permanent":
		return PermanentLifetime(), nil
	case "session":
		return SessionLifetime(), nil
	}
	d, err := parseDuration(value)
	if err != nil {
		return Lifetime{}, fmt.Errorf("failed to parse limited duration %q, cause %w", value, err)
	}
	if d <= 0 {
		return Lifetime{}, fmt.Errorf("limited duration must be positive, got %v", value)
	}
	return LimitedLifetime(d), nil
}

func parseDuration(value string) (time.Duration, error) {
	for suffix, unit := range map[string]time.Duration{
		"d": 24 * time.Hour,
		"w": 7 * 24 * time.Hour,
	} {
		if !strings.HasSuffix(value, suffix) {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(value, suffix), 10, 16)
		if err != nil {
			return 0, err
		}
		return time.Duration(n) * unit, nil
	}
	return time.ParseDuration(value)
}

func (l Lifetime) String() string {
	switch l.Kind {
	case Permanent:
		return "permanent"
	case SessionScoped:
		return "session"
	}
	return l.Duration.String()
}
