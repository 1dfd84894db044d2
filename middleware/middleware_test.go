package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/topicbbs/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(tokens *utils.TokenManager, blacklist *utils.TokenBlacklist) *gin.Engine {
	r := gin.New()
	r.GET("/private", AuthRequired(tokens, blacklist), func(ctx *gin.Context) {
		claims, ok := Claims(ctx)
		if !ok {
			ctx.Status(http.StatusInternalServerError)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"user_id": UserID(ctx), "jti": claims.ID})
	})
	return r
}

func get(r http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	issued := time.Now()
	issuer := utils.NewTokenManager("secret", time.Hour).WithClock(func() time.Time { return issued })
	token, _, err := issuer.GenerateToken("user-1", "alice", nil)
	require.NoError(t, err)

	tests := []struct {
		name    string
		verify  time.Time
		headers map[string]string
		status  int
	}{
		{"fresh bearer token", issued.Add(time.Minute), map[string]string{"Authorization": "Bearer " + token}, http.StatusOK},
		{"fresh auth-token header", issued.Add(time.Minute), map[string]string{TokenHeader: token}, http.StatusOK},
		{"expired token", issued.Add(61 * time.Minute), map[string]string{"Authorization": "Bearer " + token}, http.StatusUnauthorized},
		{"no token", issued, nil, http.StatusUnauthorized},
		{"wrong scheme", issued, map[string]string{"Authorization": "Basic " + token}, http.StatusUnauthorized},
		{"garbage", issued, map[string]string{TokenHeader: "not-a-token"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := issuer.WithClock(func() time.Time { return tt.verify })
			w := get(newAuthRouter(verifier, utils.NewTokenBlacklist(nil)), tt.headers)
			assert.Equal(t, tt.status, w.Code)

			if tt.status == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, "user-1", body["user_id"])
				return
			}
			var env utils.JSONResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			assert.Equal(t, 40100, env.Code)
		})
	}
}

func TestAuthRequiredRejectsRevokedToken(t *testing.T) {
	tokens := utils.NewTokenManager("secret", time.Hour)
	blacklist := utils.NewTokenBlacklist(nil)
	token, claims, err := tokens.GenerateToken("user-1", "alice", nil)
	require.NoError(t, err)
	r := newAuthRouter(tokens, blacklist)

	assert.Equal(t, http.StatusOK, get(r, map[string]string{TokenHeader: token}).Code)
	require.NoError(t, blacklist.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))
	assert.Equal(t, http.StatusUnauthorized, get(r, map[string]string{TokenHeader: token}).Code)
}

func TestRequestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(RequestTimeout(50 * time.Millisecond))
	r.GET("/slow", func(ctx *gin.Context) {
		deadline, ok := ctx.Request.Context().Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
		<-ctx.Request.Context().Done()
		assert.ErrorIs(t, ctx.Request.Context().Err(), context.DeadlineExceeded)
		ctx.Status(http.StatusGatewayTimeout)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestInstrumentPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(Instrument())
	r.GET("/ok", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
