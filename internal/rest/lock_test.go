package rest

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dfryer1193/namestofaces/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorMessage(t *testing.T, body []byte) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp["error"]
}

func TestUnlock_NoPassword(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodPost, "/lock/v1/unlock", api.UnlockRequest{Password: "anything"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No unlock password has been set", errorMessage(t, w.Body.Bytes()))
	assert.True(t, s.people.Locked())
}

func TestUnlockAndLock(t *testing.T) {
	s := setupTestServer(t)
	s.seed(t, "Ada")
	require.NoError(t, s.vault.SetPassword(t.Context(), "correct horse"))

	w := s.do(t, http.MethodPost, "/lock/v1/unlock", api.UnlockRequest{Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authentication failed", errorMessage(t, w.Body.Bytes()))
	assert.True(t, s.people.Locked())

	w = s.do(t, http.MethodPost, "/lock/v1/unlock", api.UnlockRequest{Password: "correct horse"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, s.people.Locked())
	assert.Equal(t, 1, s.people.Count())

	w = s.do(t, http.MethodPost, "/lock/v1/lock", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, s.people.Locked())
	assert.Equal(t, 0, s.people.Count())
}

func TestGetLockState(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/lock/v1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var state api.LockState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, api.LockState{Locked: true, HasPassword: false}, state)
}

func TestSetPassword(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodPut, "/lock/v1/password", api.PasswordRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty password")

	w = s.do(t, http.MethodPut, "/lock/v1/password", api.PasswordRequest{Password: "first"})
	require.Equal(t, http.StatusNoContent, w.Code, "first password needs no current one")

	w = s.do(t, http.MethodPut, "/lock/v1/password", api.PasswordRequest{Current: "nope", Password: "second"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPut, "/lock/v1/password", api.PasswordRequest{Current: "first", Password: "second"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.NoError(t, s.vault.CheckPassword(t.Context(), "second"))
}
