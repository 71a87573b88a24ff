// Package jwt signs and verifies the HS256 tokens that guard the admin
// endpoints. Claims carry a payload map with the caller's roles.
package jwt

import (
	"time"

	jwtstd "github.com/golang-jwt/jwt/v5"
)

// TokenError represents JWT token related errors
type TokenError string

func (e TokenError) Error() string {
	return string(e)
}

const (
	DefaultAccessTokenExpire = time.Hour * 24

	ErrNeedTokenProvider = TokenError("cannot sign token without token provider")
	ErrInvalidToken      = TokenError("invalid token")
)

// TokenManager handles JWT token operations
type TokenManager struct {
	key string
}

// NewTokenManager creates a new TokenManager instance
func NewTokenManager(key string) *TokenManager {
	return &TokenManager{key: key}
}

// validateKey validates the token key
func (jtm *TokenManager) validateKey() error {
	if jtm.key == "" {
		return ErrNeedTokenProvider
	}
	return nil
}

// GenerateAccessToken signs an access token for subject carrying payload.
// A zero expiry uses DefaultAccessTokenExpire.
func (jtm *TokenManager) GenerateAccessToken(jti string, payload map[string]any, expiry time.Duration) (string, error) {
	if err := jtm.validateKey(); err != nil {
		return "", err
	}
	if expiry == 0 {
		expiry = DefaultAccessTokenExpire
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if _, ok := payload["roles"]; !ok {
		payload["roles"] = []string{}
	}
	now := time.Now()
	claims := jwtstd.MapClaims{
		"jti":     jti,
		"sub":     "access",
		"payload": payload,
		"iat":     now.Unix(),
		"exp":     now.Add(expiry).Unix(),
	}
	return jwtstd.NewWithClaims(jwtstd.SigningMethodHS256, claims).SignedString([]byte(jtm.key))
}

// DecodeToken verifies tokenString and returns its claims. Only HS256
// signatures are accepted.
func (jtm *TokenManager) DecodeToken(tokenString string) (map[string]any, error) {
	if err := jtm.validateKey(); err != nil {
		return nil, err
	}
	token, err := jwtstd.Parse(tokenString, func(*jwtstd.Token) (any, error) {
		return []byte(jtm.key), nil
	}, jwtstd.WithValidMethods([]string{jwtstd.SigningMethodHS256.Alg()}), jwtstd.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwtstd.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func getPayload(claims map[string]any) map[string]any {
	payload, _ := claims["payload"].(map[string]any)
	return payload
}

// GetRolesFromToken returns the roles in the token payload.
func GetRolesFromToken(claims map[string]any) []string {
	switch v := getPayload(claims)["roles"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// HasRole checks if user has specific role in token
func HasRole(claims map[string]any, role string) bool {
	for _, r := range GetRolesFromToken(claims) {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdminFromToken reports the payload's is_admin flag.
func IsAdminFromToken(claims map[string]any) bool {
	v, _ := getPayload(claims)["is_admin"].(bool)
	return v
}

// GetSubjectFromToken returns the sub claim.
func GetSubjectFromToken(claims map[string]any) string {
	s, _ := claims["sub"].(string)
	return s
}

// IsAccessToken checks if token is an access token
func IsAccessToken(claims map[string]any) bool {
	return GetSubjectFromToken(claims) == "access"
}
