package credential

import (
	"os"
	"strings"
)

// Google API keys carry this prefix; anything else is rejected outright
// so a typo never reaches the network.
const googleKeyPrefix = "AIza"

// DefaultEnvVar is the environment variable consulted last in the chain.
const DefaultEnvVar = "GEMINI_API_KEY"

// Store provides access to the user-entered API key persisted in the
// session database.
type Store interface {
	LoadAPIKey() (string, error)
}

// Resolver resolves the extraction API key through an ordered fallback
// chain: the explicit runtime value, then the persisted user-entered
// value, then the environment. The first usable value wins.
type Resolver struct {
	explicit string
	store    Store
	envVar   string
}

// NewResolver creates a Resolver reading the environment via DefaultEnvVar
func NewResolver(explicit string, store Store) *Resolver {
	return NewResolverWithEnv(explicit, store, DefaultEnvVar)
}

// NewResolverWithEnv creates a Resolver with a custom env var for testing
func NewResolverWithEnv(explicit string, store Store, envVar string) *Resolver {
	return &Resolver{
		explicit: explicit,
		store:    store,
		envVar:   envVar,
	}
}

// Resolve returns the first usable key in the chain, or "" when none is
// configured.
func (r *Resolver) Resolve() string {
	if key := Usable(r.explicit); key != "" {
		return key
	}
	if r.store != nil {
		if stored, err := r.store.LoadAPIKey(); err == nil {
			if key := Usable(stored); key != "" {
				return key
			}
		}
	}
	return Usable(os.Getenv(r.envVar))
}

// Usable returns the trimmed key when it is non-empty and carries the
// provider prefix, otherwise "".
func Usable(key string) string {
	key = strings.TrimSpace(key)
	if key == "" || !strings.HasPrefix(key, googleKeyPrefix) {
		return ""
	}
	return key
}
