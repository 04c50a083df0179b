package ratelimit

import (
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"

	"github.com/coverly/bestauth/core"
	"github.com/coverly/bestauth/pkg/clientip"
)

// maxKeyLength bounds stored key size; longer composites are hashed.
const maxKeyLength = 64

// KeyFunc extracts the value a request is limited by.
type KeyFunc func(r *http.Request) string

// ByClientIP keys the limit on the resolved client address.
func ByClientIP(r *http.Request) string {
	if ip := clientip.FromContext(r.Context()); ip != "" {
		return ip
	}
	return clientip.FromRequest(r)
}

// Composite joins several key functions, hashing overlong results.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}
		if len(parts) == 0 {
			return ""
		}

		combined := strings.Join(parts, ":")
		if len(combined) > maxKeyLength {
			h := fnv.New64a()
			h.Write([]byte(combined))
			return strconv.FormatUint(h.Sum64(), 36)
		}
		return combined
	}
}

// Middleware limits requests by keyFunc, answering over-limit calls with
// the standard JSON error body plus the usual X-RateLimit headers.
func Middleware(limiter Limiter, keyFunc KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := limiter.Allow(r.Context(), keyFunc(r))
			if err != nil {
				// A broken limiter store must not take sign-in down with it.
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed() {
				if retryAfter := int(result.RetryAfter().Seconds()); retryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				}
				core.WriteError(w, core.ErrTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
