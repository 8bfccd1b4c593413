package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

const tokenCookieName = "token"

// credentialSource extracts a raw credential from a request, returning "" when
// its carrier is absent. Sources are tried in order and the first non-empty
// match wins, making the precedence rule explicit and testable.
type credentialSource func(c echo.Context) string

func fromCookie(c echo.Context) string {
	cookie, err := c.Cookie(tokenCookieName)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}

func fromBearerHeader(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func fromQueryToken(c echo.Context) string {
	return c.QueryParam(tokenCookieName)
}

func fromRawCookieHeader(c echo.Context) string {
	return TokenFromCookieHeader(c.Request().Header.Get("Cookie"), tokenCookieName)
}

// requestSources is the per-request precedence: httpOnly cookie first, then
// the Authorization bearer header.
var requestSources = []credentialSource{fromCookie, fromBearerHeader}

// handshakeSources is the stream-handshake precedence: explicit token field
// first, then the cookie parsed manually from the raw header value.
var handshakeSources = []credentialSource{fromQueryToken, fromRawCookieHeader}

// RequestCredential returns the credential presented on a plain request, or
// "" when none of the request sources carries one.
func RequestCredential(c echo.Context) string {
	return credentialFrom(c, requestSources)
}

// HandshakeCredential returns the credential presented on a persistent
// connection handshake, or "".
func HandshakeCredential(c echo.Context) string {
	return credentialFrom(c, handshakeSources)
}

func credentialFrom(c echo.Context, sources []credentialSource) string {
	for _, source := range sources {
		if cred := source(c); cred != "" {
			return cred
		}
	}
	return ""
}

// TokenFromCookieHeader parses a raw Cookie header value and returns the
// named cookie, or "". Values are URL-decoded the way browsers send them.
func TokenFromCookieHeader(header, name string) string {
	for _, pair := range strings.Split(header, ";") {
		idx := strings.IndexByte(pair, '=')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(pair[:idx])
		if key != name {
			continue
		}
		val := strings.TrimSpace(pair[idx+1:])
		if decoded, err := url.QueryUnescape(val); err == nil {
			return decoded
		}
		return val
	}
	return ""
}

func sessionCookie(token string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}
