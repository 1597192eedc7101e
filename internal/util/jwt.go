package util

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access token claims. Subject is the user ID.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenVerifier checks bearer tokens against one key. The key is either a
// shared HMAC secret or a PEM-encoded RSA or ECDSA public key.
type TokenVerifier struct {
	key     any
	methods []string
}

func NewTokenVerifier(keyMaterial string) (*TokenVerifier, error) {
	if strings.TrimSpace(keyMaterial) == "" {
		return nil, errors.New("jwt key material is empty")
	}
	if !strings.Contains(keyMaterial, "-----BEGIN") {
		return &TokenVerifier{
			key:     []byte(keyMaterial),
			methods: []string{"HS256", "HS384", "HS512"},
		}, nil
	}

	pub, err := parsePublicKey(keyMaterial)
	if err != nil {
		return nil, err
	}
	switch pub.(type) {
	case *rsa.PublicKey:
		return &TokenVerifier{key: pub, methods: []string{"RS256", "RS384", "RS512"}}, nil
	case *ecdsa.PublicKey:
		return &TokenVerifier{key: pub, methods: []string{"ES256", "ES384", "ES512"}}, nil
	default:
		return nil, fmt.Errorf("unsupported public key type %T", pub)
	}
}

func parsePublicKey(pemKey string) (any, error) {
	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, errors.New("failed to decode PEM block containing public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return pub, nil
}

// Verify validates signature and expiry and requires a subject.
func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return v.key, nil },
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
