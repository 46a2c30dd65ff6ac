package metadata

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// ErrThrottled indicates the external model quota guard rejected a call.
var ErrThrottled = errors.New("metadata generation throttled")

// ThrottledProvider wraps another Provider with a token-bucket quota
// guard for the external model API.
type ThrottledProvider struct {
	base    Provider
	limiter *rate.Limiter
}

// NewThrottledProvider constructs a provider allowing up to perMinute
// generations per minute with a small burst allowance.
func NewThrottledProvider(base Provider, perMinute int) *ThrottledProvider {
	if perMinute <= 0 {
		perMinute = 1
	}
	limit := rate.Every(time.Minute / time.Duration(perMinute))
	return &ThrottledProvider{
		base:    base,
		limiter: rate.NewLimiter(limit, perMinute),
	}
}

// Generate rejects the call when the quota is exhausted, otherwise
// delegates. Callers treat the rejection like any other collaborator
// failure and fall back.
func (t *ThrottledProvider) Generate(ctx context.Context, title, genre string) (Metadata, error) {
	if t == nil || t.base == nil {
		return Metadata{}, ErrProviderUnavailable
	}
	if !t.limiter.Allow() {
		return Metadata{}, ErrThrottled
	}
	return t.base.Generate(ctx, title, genre)
}
