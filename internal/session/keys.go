package session

import "strings"

// keyPrefix namespaces review-session records in the store.
const keyPrefix = "review_session_"

// StorageKey derives the storage key for a session id. The mapping is a pure
// function so external tooling can locate a record from its id alone.
func StorageKey(sessionID string) string {
	return keyPrefix + sessionID
}

// SessionIDFromKey is the inverse of StorageKey. The second return is false
// if the key is not in the review-session namespace.
func SessionIDFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, keyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, keyPrefix), true
}
