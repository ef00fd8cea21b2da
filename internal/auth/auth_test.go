package auth

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ondrasimku/file-server-go/internal/http/handler"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()

	gate, err := NewGate("s3cret-token", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return gate
}

func Test_U_NewGate(t *testing.T) {
	t.Parallel()

	_, err := NewGate("", slog.Default())
	assert.Error(t, err)
}

func Test_U_Authorize(t *testing.T) {
	t.Parallel()

	var tests = map[string]struct {
		Header    string
		ExpectErr bool
	}{
		"valid": {
			Header: "Bearer s3cret-token",
		},
		"scheme is case insensitive": {
			Header: "bearer s3cret-token",
		},
		"surrounding whitespace": {
			Header: "  Bearer   s3cret-token  ",
		},
		"absent": {
			Header:    "",
			ExpectErr: true,
		},
		"no scheme": {
			Header:    "s3cret-token",
			ExpectErr: true,
		},
		"wrong scheme": {
			Header:    "Basic s3cret-token",
			ExpectErr: true,
		},
		"scheme only": {
			Header:    "Bearer ",
			ExpectErr: true,
		},
		"mismatch": {
			Header:    "Bearer s3cret-tokeN",
			ExpectErr: true,
		},
		"prefix of token": {
			Header:    "Bearer s3cret",
			ExpectErr: true,
		},
		"extra words": {
			Header:    "Bearer s3cret-token extra",
			ExpectErr: true,
		},
	}

	gate := newTestGate(t)

	for testname, tt := range tests {
		t.Run(testname, func(t *testing.T) {
			t.Parallel()

			err := gate.Authorize(tt.Header)

			if tt.ExpectErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func Test_U_Middleware(t *testing.T) {
	t.Parallel()

	gin.SetMode(gin.TestMode)
	gate := newTestGate(t)

	router := gin.New()
	router.GET("/protected", gate.Middleware(), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"Invalid token"}`, rr.Body.String())
	var body handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, handler.ErrorResponse{Error: "Invalid token"}, body)

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer s3cret-token")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}
