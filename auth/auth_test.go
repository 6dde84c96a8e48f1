package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MySuperSecurePassw0rd!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	// Wrong password must not match
	match, err = ComparePassword("WrongPassword", hash)
	req.NoError(err)
	req.False(match)
}

func TestRegistrationValidation(t *testing.T) {
	req := require.New(t)
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{"Valid request", RegisterRequest{"test@example.com", "ComplexPass123!"}, false},
		{"Invalid email", RegisterRequest{"notanemail", "ComplexPass123!"}, true},
		{"Password too short", RegisterRequest{"test@example.com", "Short1!"}, true},
		{"Missing digit", RegisterRequest{"test@example.com", "NoDigitPassword!"}, true},
		{"Missing special char", RegisterRequest{"test@example.com", "NoSpecialChar123"}, true},
		{"Missing uppercase", RegisterRequest{"test@example.com", "nouppercase123!!"}, true},
		{"Password too long (edge case)", RegisterRequest{"test@example.com", strings.Repeat("a", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegister(tt.req)
			if tt.wantErr {
				req.Error(err)
			} else {
				req.NoError(err)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("user-123", "alice@example.com", []string{"user"}, time.Hour)
	req.NoError(err)

	claims, err := ValidateToken(token)
	req.NoError(err)
	req.Equal("user-123", claims.UserID)
	req.Equal("alice@example.com", claims.Email)
	req.Equal([]string{"user"}, claims.Roles)
	req.Equal("chat-hub", claims.Issuer)
}

func TestTokenExpired(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("user-123", "alice@example.com", []string{"user"}, -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(token)
	req.Error(err)
}

func TestMiddleware(t *testing.T) {
	req := require.New(t)

	var seenIdentity string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenIdentity = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Given a valid token
	token, err := GenerateToken("user-123", "alice@example.com", []string{"user"}, time.Hour)
	req.NoError(err)

	// When calling with the Bearer header
	r := httptest.NewRequest(http.MethodGet, "/groups/my", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	// Then the claims reach the handler
	req.Equal(http.StatusOK, w.Code)
	req.Equal("alice@example.com", seenIdentity)

	// And a missing header is rejected
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/groups/my", nil))
	req.Equal(http.StatusUnauthorized, w.Code)
}

// BenchmarkHashPassword measures the CPU/RAM cost of a hash, which drives
// the login endpoint's capacity.
func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = HashPassword("A-very-long-and-complex-password-for-bench-123!")
	}
}
