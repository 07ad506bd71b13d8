package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Authenticator is the minimal interface handlers depend on.
type Authenticator interface {
	// Authenticate returns the token claims and true when the request is
	// authenticated. Claims is a plain map so handlers don't need the jwt
	// dependency.
	Authenticate(r *http.Request) (claims map[string]interface{}, ok bool)
}

// NewJWT returns an Authenticator that validates HMAC-signed (HS256) JWTs.
// issuer and audience are checked when non-empty.
func NewJWT(secret, issuer, audience string) Authenticator {
	return &jwtAuth{secret: []byte(secret), issuer: issuer, audience: audience}
}

type jwtAuth struct {
	secret   []byte
	issuer   string
	audience string
}

func (a *jwtAuth) Authenticate(r *http.Request) (map[string]interface{}, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, false
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	token, err := jwt.ParseWithClaims(parts[1], jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}

	out := make(map[string]interface{}, len(claims))
	for k, v := range claims {
		out[k] = v
	}
	return out, true
}

// IssueToken signs an HS256 access token for the login flow. issuer and
// audience are embedded when non-empty so the same values pass validation.
func IssueToken(secret, subject, role, issuer, audience string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	if issuer != "" {
		claims["iss"] = issuer
	}
	if audience != "" {
		claims["aud"] = audience
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
