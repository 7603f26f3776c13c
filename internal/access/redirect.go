package access

import "net/url"

// Redirects holds the destinations for denied decisions.
type Redirects struct {
	LoginURL   string
	CatalogURL string
}

// Location returns where a denied caller should go. Login redirects carry returnTo so the
// caller can come back after signing in. Allowed decisions return "".
func (r Redirects) Location(d Decision, returnTo string) string {
	if d.Allowed() {
		return ""
	}
	if d.RequiresLogin() {
		return withQuery(r.LoginURL, "return", returnTo)
	}
	return r.CatalogURL
}

func withQuery(target, key, value string) string {
	if value == "" {
		return target
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return target
	}
	query := parsed.Query()
	query.Set(key, value)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
