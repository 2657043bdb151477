package openaq

import (
	"net/http"
	"strconv"
	"time"

	"github.com/wmutunga/zephyr/internal/config"
)

// Quota is the remote usage budget as self-reported by the last response.
// The values are read fresh from every response and never accumulated
// client-side, which eliminates drift at the cost of trusting the remote.
type Quota struct {
	Used      int
	Remaining int
	// Reset is the number of seconds until the usage window resets.
	Reset int
}

// ParseQuota extracts the quota signals from the x-ratelimit response
// headers. A missing or malformed header falls back to the conservative
// default from the policy, so an uncooperative response still throttles the
// fetcher rather than unleashing it.
func ParseQuota(h http.Header, policy config.QuotaConfig) Quota {
	return Quota{
		Used:      headerInt(h, "x-ratelimit-used", policy.DefaultUsed),
		Remaining: headerInt(h, "x-ratelimit-remaining", policy.DefaultRemaining),
		Reset:     headerInt(h, "x-ratelimit-reset", policy.DefaultResetSeconds),
	}
}

// NextDelay returns how long to sleep before the next request. When the
// budget is near exhaustion the delay is the remote's reported reset
// interval; otherwise it is the fixed throttle floor, applied regardless of
// headroom to avoid bursty request patterns.
func (q Quota) NextDelay(policy config.QuotaConfig) time.Duration {
	if q.Remaining <= policy.MinRemaining || q.Used >= policy.MaxUsed {
		return time.Duration(q.Reset) * time.Second
	}
	return time.Duration(policy.ThrottleFloorSeconds) * time.Second
}

func headerInt(h http.Header, key string, def int) int {
	v := h.Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
