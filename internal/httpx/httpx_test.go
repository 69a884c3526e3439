package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func signed(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func protectedEcho() http.Handler {
	router := mux.NewRouter()
	router.Use(Protected(secret))
	router.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		sub, _ := UserIDFromContext(r.Context())
		JSON(w, http.StatusOK, map[string]string{"sub": sub})
	})
	return router
}

func TestProtected(t *testing.T) {
	valid := signed(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
		"sub": "42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	expired := signed(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
		"sub": "42",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signed(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "42"})
	noSubject := signed(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"role": "admin"})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid", header: "Bearer " + valid, want: http.StatusOK},
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic " + valid, want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, want: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer " + wrongKey, want: http.StatusUnauthorized},
		{name: "no subject", header: "Bearer " + noSubject, want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protectedEcho().ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"sub":"42"}`, rec.Body.String())
			}
		})
	}
}

func TestPathInt(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "17", "bad": "x"})

	id, err := PathInt(req, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)

	_, err = PathInt(req, "bad")
	assert.Error(t, err)
	_, err = PathInt(req, "missing")
	assert.Error(t, err)
}
