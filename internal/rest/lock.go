package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/dfryer1193/namestofaces/api"
	"github.com/dfryer1193/namestofaces/people/application"
	"github.com/dfryer1193/namestofaces/people/domain"
	"github.com/gin-gonic/gin"
)

func (a *Api) GetLockState(c *gin.Context) {
	hasPassword, err := a.vault.HasPassword(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, api.LockState{
		Locked:      a.people.Locked(),
		HasPassword: hasPassword,
	})
}

func (a *Api) Lock(c *gin.Context) {
	a.people.SetLocked(c.Request.Context(), true)
	c.Status(http.StatusNoContent)
}

// Unlock verifies the posted password. A server has no biometric hardware,
// so the biometric step always hands over to the password check.
func (a *Api) Unlock(c *gin.Context) {
	req := &api.UnlockRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prompt := func(ctx context.Context) (string, error) {
		return req.Password, nil
	}
	auth := application.NewBiometricAuthenticator(nil, application.NewPasswordAuthenticator(a.vault, prompt))

	result := a.people.Unlock(c.Request.Context(), auth)
	if !result.Success {
		c.JSON(http.StatusUnauthorized, gin.H{"error": unlockErrorMessage(result.Err)})
		return
	}
	c.Status(http.StatusNoContent)
}

func unlockErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoPassword):
		return "No unlock password has been set"
	case errors.Is(err, domain.ErrBiometryUnavailable):
		return "Biometry unavailable"
	default:
		return "Authentication failed"
	}
}

// SetPassword sets the unlock password. Once one exists, the current
// password must be supplied to replace it.
func (a *Api) SetPassword(c *gin.Context) {
	req := &api.PasswordRequest{}
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	hasPassword, err := a.vault.HasPassword(ctx)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if hasPassword {
		if err := a.vault.CheckPassword(ctx, req.Current); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": unlockErrorMessage(err)})
			return
		}
	}

	if err := a.vault.SetPassword(ctx, req.Password); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
