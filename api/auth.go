package api

import (
	"errors"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

const tokenTTL = 7 * 24 * time.Hour

var (
	errNoCredential = errors.New("no credential presented")
	errNoSigningKey = errors.New("token signing requires shared-secret mode")
)

// Auth verifies bearer credentials and, in shared-secret mode, issues them.
// Two modes: HS256 with a local shared secret (the service signs its own
// session tokens), or RS256 against a JWKS endpoint when an external identity
// provider fronts the deployment.
type Auth struct {
	jwks     *keyfunc.JWKS
	audience string
	issuer   string
	secret   []byte
	parser   *jwt.Parser
}

// NewAuth creates an Auth in HS256 shared-secret mode.
func NewAuth(secret []byte) *Auth {
	if len(secret) == 0 {
		panic("api.NewAuth: empty secret")
	}
	return &Auth{
		secret: secret,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// NewJWKSAuth creates an Auth verifying RS256 tokens against the given JWKS.
func NewJWKSAuth(jwks *keyfunc.JWKS, audience, issuer string) *Auth {
	return &Auth{
		jwks:     jwks,
		audience: audience,
		issuer:   issuer,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{"RS256"})),
	}
}

// SignToken issues a session token for the given subject.
func (a *Auth) SignToken(userID string) (string, error) {
	if len(a.secret) == 0 {
		return "", errNoSigningKey
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// VerifyToken validates the credential and returns its subject.
func (a *Auth) VerifyToken(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", errNoCredential
	}

	var token *jwt.Token
	var err error
	if a.secret != nil {
		token, err = a.parser.Parse(tokenStr, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return a.secret, nil
		})
	} else {
		token, err = a.parser.Parse(tokenStr, a.jwks.Keyfunc)
	}
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	now := time.Now().Add(time.Minute).Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return "", errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now, false) {
		return "", errors.New("token not valid yet")
	}
	if a.audience != "" && !claims.VerifyAudience(a.audience, false) {
		return "", errors.New("invalid audience")
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, false) {
		return "", errors.New("invalid issuer")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}
