package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"esferas/internal/config"
)

const apiKeyHeaderDefault = "x-api-key"

// HTTPAuth guards the owner endpoints with static API keys.
type HTTPAuth struct {
	header string
	keys   []config.AdminAPIKey
}

func NewHTTPAuth(cfg config.AdminConfig) *HTTPAuth {
	header := strings.TrimSpace(strings.ToLower(cfg.HeaderAPIKey))
	if header == "" {
		header = apiKeyHeaderDefault
	}
	return &HTTPAuth{header: header, keys: cfg.APIKeys}
}

// Enabled reports whether any key is configured. Without keys the admin
// endpoints do not exist.
func (a *HTTPAuth) Enabled() bool {
	return len(a.keys) > 0
}

// Wrap admits requests carrying a known key.
func (a *HTTPAuth) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			handleNotFound(w, r)
			return
		}

		apiKey := strings.TrimSpace(r.Header.Get(a.header))
		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "missing api key")
			return
		}
		if _, ok := a.lookup(apiKey); !ok {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		next(w, r)
	}
}

func (a *HTTPAuth) lookup(apiKey string) (config.AdminAPIKey, bool) {
	var (
		found config.AdminAPIKey
		ok    bool
	)
	for _, k := range a.keys {
		if subtle.ConstantTimeCompare([]byte(k.Key), []byte(apiKey)) == 1 {
			found, ok = k, true
		}
	}
	return found, ok
}
