package access

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

const maxCookieChunks = 10

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// CookieToken reads the access token from the session cookie name, joining chunked
// cookies stored as name.0, name.1 and so on.
func CookieToken(get func(name string) string, name string) string {
	if get == nil || name == "" {
		return ""
	}
	raw := get(name)
	if raw == "" {
		var joined strings.Builder
		for i := 0; i < maxCookieChunks; i++ {
			chunk := get(name + "." + strconv.Itoa(i))
			if chunk == "" {
				break
			}
			joined.WriteString(chunk)
		}
		raw = joined.String()
	}
	if raw == "" {
		return ""
	}
	return parseSessionValue(raw, true)
}

// parseSessionValue accepts a JSON array whose first element is the access token, an object
// with access_token, a JSON string, a bare JWT, or base64 encoded JSON.
func parseSessionValue(raw string, allowBase64 bool) string {
	value := strings.TrimSpace(raw)
	if decoded, err := url.PathUnescape(value); err == nil {
		value = strings.TrimSpace(decoded)
	}
	if value == "" {
		return ""
	}

	switch value[0] {
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal([]byte(value), &parts); err != nil || len(parts) == 0 {
			return ""
		}
		var token string
		if err := json.Unmarshal(parts[0], &token); err != nil {
			return ""
		}
		return validJWT(token)
	case '{':
		var session struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.Unmarshal([]byte(value), &session); err != nil {
			return ""
		}
		return validJWT(session.AccessToken)
	case '"':
		var token string
		if err := json.Unmarshal([]byte(value), &token); err != nil {
			return ""
		}
		return validJWT(token)
	}

	if token := validJWT(value); token != "" {
		return token
	}

	if allowBase64 {
		encoded := strings.TrimPrefix(value, "base64-")
		for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
			if decoded, err := enc.DecodeString(encoded); err == nil {
				return parseSessionValue(string(decoded), false)
			}
		}
	}
	return ""
}

func validJWT(token string) string {
	token = strings.TrimSpace(token)
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ""
	}
	for _, part := range parts {
		if part == "" {
			return ""
		}
	}
	return token
}
