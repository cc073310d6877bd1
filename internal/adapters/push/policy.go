package push

import (
	"math"
	"time"
)

const DefaultReconnectDelay = 3 * time.Second

// ReconnectPolicy computes the wait before reconnect attempt n (0-based).
// With Multiplier <= 1 or Max <= 0 the delay is a constant Initial.
type ReconnectPolicy struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
}

func FixedReconnect(delay time.Duration) ReconnectPolicy {
	return ReconnectPolicy{Initial: delay}
}

func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	initial := p.Initial
	if initial <= 0 {
		initial = DefaultReconnectDelay
	}
	if p.Multiplier <= 1 || p.Max <= 0 || attempt <= 0 {
		return initial
	}

	delay := float64(initial) * math.Pow(p.Multiplier, float64(attempt))
	if delay >= float64(p.Max) || math.IsInf(delay, 1) {
		return p.Max
	}
	return time.Duration(delay)
}
