package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrOpaqueToken means the token is not a JWT and cannot be inspected locally.
var ErrOpaqueToken = errors.New("opaque token")

// Claims is what whoami can tell about a JWT without verifying it.
type Claims struct {
	Subject   string
	Issuer    string
	ExpiresAt *time.Time
	Raw       jwt.MapClaims
}

// Inspect decodes a JWT payload without checking its signature. The
// service verifies tokens; the client only reads them for display.
func Inspect(token string) (*Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}
	out := &Claims{Raw: mc}
	if sub, ok := mc["sub"].(string); ok {
		out.Subject = sub
	}
	if iss, ok := mc["iss"].(string); ok {
		out.Issuer = iss
	}
	if exp, ok := mc["exp"].(float64); ok {
		t := time.Unix(int64(exp), 0).UTC()
		out.ExpiresAt = &t
	}
	return out, nil
}
