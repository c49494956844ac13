package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ywy929/assay-dashboard-backend/models"
)

func registerCustomer(t *testing.T, svc *AuthService, phone string) *models.User {
	t.Helper()
	user, err := svc.Register(RegisterInput{
		Password: "secret123", Name: "Wong Trading", Phone: phone,
	})
	require.NoError(t, err)
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewAuthService(openTestDB(t))
	user := registerCustomer(t, svc, "0123456789")

	assert.Equal(t, "customer", user.Role)
	assert.NotEmpty(t, user.PwHash)
	assert.NotEmpty(t, user.Salt)

	pair, loggedIn, err := svc.Login("0123456789", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "bearer", pair.TokenType)
}

func TestRegisterDuplicatePhone(t *testing.T) {
	svc := NewAuthService(openTestDB(t))
	registerCustomer(t, svc, "0123456789")

	_, err := svc.Register(RegisterInput{
		Password: "other", Name: "Second", Phone: "0123456789",
	})
	assert.ErrorIs(t, err, ErrPhoneRegistered)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewAuthService(openTestDB(t))
	registerCustomer(t, svc, "0123456789")

	_, _, err := svc.Login("0123456789", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("0000000000", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCustomerDeviceLimitRevokesOldest(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db)
	user := registerCustomer(t, svc, "0123456789")

	first, _, err := svc.Login("0123456789", "secret123")
	require.NoError(t, err)
	second, _, err := svc.Login("0123456789", "secret123")
	require.NoError(t, err)

	var active int64
	require.NoError(t, db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", user.ID, false).Count(&active).Error)
	assert.Equal(t, int64(1), active)

	// The revoked first session can no longer refresh; the second can.
	_, _, err = svc.Refresh(first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	_, _, err = svc.Refresh(second.RefreshToken)
	assert.NoError(t, err)
}

func TestStaffExemptFromDeviceLimit(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db)
	user, err := svc.Register(RegisterInput{
		Password: "secret123", Role: "worker", Name: "Lab Worker", Phone: "0198765432",
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _, err := svc.Login("0198765432", "secret123")
		require.NoError(t, err)
	}

	var active int64
	require.NoError(t, db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", user.ID, false).Count(&active).Error)
	assert.Equal(t, int64(3), active)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc := NewAuthService(openTestDB(t))
	registerCustomer(t, svc, "0123456789")

	pair, _, err := svc.Login("0123456789", "secret123")
	require.NoError(t, err)

	rotated, user, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "Wong Trading", user.Name)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	// The old token was revoked by the rotation.
	_, _, err = svc.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := NewAuthService(openTestDB(t))
	registerCustomer(t, svc, "0123456789")

	pair, _, err := svc.Login("0123456789", "secret123")
	require.NoError(t, err)

	_, _, err = svc.Refresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := NewAuthService(openTestDB(t))
	registerCustomer(t, svc, "0123456789")

	pair, _, err := svc.Login("0123456789", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(pair.RefreshToken))
	_, _, err = svc.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// Double logout fails cleanly.
	assert.ErrorIs(t, svc.Logout(pair.RefreshToken), ErrInvalidRefreshToken)
}

func TestChangePasswordByName(t *testing.T) {
	svc := NewAuthService(openTestDB(t))
	registerCustomer(t, svc, "0123456789")

	require.NoError(t, svc.ChangePassword("Wong Trading", "new-password"))

	_, _, err := svc.Login("0123456789", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login("0123456789", "new-password")
	assert.NoError(t, err)
}

func TestChangePasswordAmbiguousName(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db)
	now := time.Now()
	require.NoError(t, db.Create(&models.User{
		Name: "Twin", Phone: "0111111111", Created: now, Modified: now,
	}).Error)
	require.NoError(t, db.Create(&models.User{
		Name: "Twin", Phone: "0222222222", Created: now, Modified: now,
	}).Error)

	err := svc.ChangePassword("Twin", "new-password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple users")
}

func TestIsStaffRole(t *testing.T) {
	assert.True(t, IsStaffRole("admin"))
	assert.True(t, IsStaffRole("worker"))
	assert.True(t, IsStaffRole("boss"))
	assert.True(t, IsStaffRole("testworker"))
	assert.False(t, IsStaffRole("customer"))
	assert.False(t, IsStaffRole(""))
}
