package ymsg

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ErrMissingCookie is returned when a login response lacks the Y or T cookie.
var ErrMissingCookie = errors.New("ymsg: missing login cookie")

// CookieSource obtains login cookies for a user. Implementations typically call
// the login web service; the connection never fetches cookies itself.
type CookieSource interface {
	Cookies(ctx context.Context, username, password string) (Credentials, error)
}

// StaticCookies is a CookieSource returning pre-obtained credentials, for example
// cookies cached from an earlier login.
type StaticCookies Credentials

// Cookies returns the stored credentials. The handle defaults to username.
func (s StaticCookies) Cookies(_ context.Context, username, _ string) (Credentials, error) {
	creds := Credentials(s)
	if creds.Handle == "" {
		creds.Handle = username
	}
	if creds.CookieY == "" || creds.CookieT == "" {
		return Credentials{}, ErrMissingCookie
	}
	return creds, nil
}

// ParseCookies extracts the Y and T cookies from a login response body or a
// cookie header. Each cookie is returned as "Y=..." / "T=..." without attributes.
func ParseCookies(raw string) (cookieY, cookieT string, err error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == '\n' || r == '\r'
	})
	for _, f := range fields {
		f = strings.TrimSpace(f)
		switch {
		case cookieY == "" && strings.HasPrefix(f, "Y="):
			cookieY = f
		case cookieT == "" && strings.HasPrefix(f, "T="):
			cookieT = f
		}
	}
	if cookieY == "" {
		return "", "", errors.Wrap(ErrMissingCookie, "Y")
	}
	if cookieT == "" {
		return "", "", errors.Wrap(ErrMissingCookie, "T")
	}
	return cookieY, cookieT, nil
}
