package coursesync

import (
	"encoding/json"
	"strings"
)

// Store is a read-only view over persisted client state.
type Store interface {
	Keys() []string
	Get(key string) (string, bool)
}

type storedTokens struct {
	AccessToken string `json:"access_token"`
}

type persistedSession struct {
	storedTokens
	CurrentSession *storedTokens `json:"currentSession"`
	Session        *storedTokens `json:"session"`
}

func (t *storedTokens) access() string {
	if t == nil {
		return ""
	}
	return t.AccessToken
}

// SessionToken finds the bearer credential of the signed-in learner. Only keys that look
// like auth storage are inspected, and only three-segment tokens are returned.
func SessionToken(store Store) string {
	if store == nil {
		return ""
	}
	for _, key := range store.Keys() {
		if !strings.Contains(key, "auth-token") && !strings.Contains(key, "supabase") {
			continue
		}
		value, ok := store.Get(key)
		if !ok {
			continue
		}
		var stored persistedSession
		if err := json.Unmarshal([]byte(value), &stored); err != nil {
			continue
		}
		for _, token := range []string{stored.AccessToken, stored.CurrentSession.access(), stored.Session.access()} {
			if len(strings.Split(token, ".")) == 3 {
				return token
			}
		}
	}
	return ""
}
