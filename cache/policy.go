package cache

import "time"

// DefaultTTL is applied by the Facade when a caller passes no TTL.
const DefaultTTL = time.Hour

// Policy configures facade TTL behavior.
type Policy struct {
	// DefaultTTL is the TTL to use when none is specified.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Override TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultPolicy returns the default policy: one hour, no maximum.
func DefaultPolicy() Policy {
	return Policy{DefaultTTL: DefaultTTL}
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}

	return ttl
}
