package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/ceu-go-api/internal/access"
	"github.com/noah-isme/ceu-go-api/internal/utils"
)

const (
	localUserID    = "user_id"
	localUserEmail = "user_email"
	localSession   = "session"
)

var (
	// ErrMissingToken is reported when no bearer token or session cookie is present.
	ErrMissingToken = errors.New("authentication token missing")
	// ErrInvalidToken is reported when a token fails signature or claim checks.
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the verified caller behind a token.
type Identity struct {
	UserID string
	Email  string
}

// TokenVerifier validates HMAC signed session tokens.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier builds a verifier for secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify parses token and returns the identity it carries.
func (v *TokenVerifier) Verify(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	identity := Identity{UserID: stringClaim(claims, "sub", "user_id", "id"), Email: stringClaim(claims, "email")}
	if identity.UserID == "" {
		return Identity{}, fmt.Errorf("%w: subject missing", ErrInvalidToken)
	}
	return identity, nil
}

func stringClaim(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		switch v := claims[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

// JWTProtected rejects requests without a valid bearer token.
func JWTProtected(verifier *TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}
		token := access.BearerToken(authorization)
		if token == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}
		setIdentity(c, identity)
		return c.Next()
	}
}

// JWTOptional records the caller identity when a bearer token is present and stores the
// resulting session for later access decisions. It never rejects a request.
func JWTOptional(verifier *TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := access.Session{}
		if token := access.BearerToken(c.Get(fiber.HeaderAuthorization)); token != "" {
			identity, err := verifier.Verify(token)
			if err != nil {
				session.Err = err
			} else {
				setIdentity(c, identity)
				session.UserID = identity.UserID
			}
		}
		c.Locals(localSession, session)
		return c.Next()
	}
}

// SessionFromRequest resolves the caller session from the session cookie, falling back to
// the Authorization header.
func SessionFromRequest(c *fiber.Ctx, verifier *TokenVerifier, cookieName string) access.Session {
	token := access.CookieToken(func(name string) string { return c.Cookies(name) }, cookieName)
	if token == "" {
		token = access.BearerToken(c.Get(fiber.HeaderAuthorization))
	}
	if token == "" {
		return access.Session{}
	}
	identity, err := verifier.Verify(token)
	if err != nil {
		return access.Session{Err: err}
	}
	setIdentity(c, identity)
	return access.Session{UserID: identity.UserID}
}

// CurrentIdentity returns the identity recorded by the JWT middlewares.
func CurrentIdentity(c *fiber.Ctx) (Identity, bool) {
	userID, _ := c.Locals(localUserID).(string)
	if userID == "" {
		return Identity{}, false
	}
	email, _ := c.Locals(localUserEmail).(string)
	return Identity{UserID: userID, Email: email}, true
}

// CurrentSession returns the session stored by JWTOptional.
func CurrentSession(c *fiber.Ctx) access.Session {
	if session, ok := c.Locals(localSession).(access.Session); ok {
		return session
	}
	if identity, ok := CurrentIdentity(c); ok {
		return access.Session{UserID: identity.UserID}
	}
	return access.Session{}
}

func setIdentity(c *fiber.Ctx, identity Identity) {
	c.Locals(localUserID, identity.UserID)
	if identity.Email != "" {
		c.Locals(localUserEmail, identity.Email)
	}
}
