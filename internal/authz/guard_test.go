package authz

import (
	"testing"

	"gatitown/internal/ports/auth"

	"github.com/stretchr/testify/assert"
)

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name   string
		claims auth.Claims
		want   error
	}{
		{name: "no session", claims: auth.Claims{}, want: ErrUnauthenticated},
		{name: "blank user id", claims: auth.Claims{UserID: "  ", Role: auth.RoleAdmin}, want: ErrUnauthenticated},
		{name: "user role", claims: auth.Claims{UserID: "u-1", Role: auth.RoleUser}, want: ErrForbidden},
		{name: "empty role", claims: auth.Claims{UserID: "u-1"}, want: ErrForbidden},
		{name: "admin", claims: auth.Claims{UserID: "u-1", Role: auth.RoleAdmin}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, RequireAdmin(tt.claims), tt.want)
		})
	}
}
