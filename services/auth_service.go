package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ywy929/assay-dashboard-backend/config"
	"github.com/ywy929/assay-dashboard-backend/models"
	"github.com/ywy929/assay-dashboard-backend/utils"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPhoneRegistered     = errors.New("phone number already registered")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// Staff roles are exempt from the per-customer device limit.
var staffRoles = map[string]bool{
	"worker":     true,
	"testworker": true,
	"admin":      true,
	"boss":       true,
}

func IsStaffRole(role string) bool { return staffRoles[role] }

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type RegisterInput struct {
	Password     string `json:"password" binding:"required"`
	Role         string `json:"role"`
	Name         string `json:"name" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	PhoneTwo     string `json:"phonetwo"`
	Email        string `json:"email"`
	CompanyEmail string `json:"companyemail"`
	Fax          string `json:"fax"`
	AddressOne   string `json:"addressone"`
	AddressTwo   string `json:"addresstwo"`
	Area         string `json:"area"`
	Orientation  string `json:"orientation"`
	Billing      bool   `json:"billing"`
	Coupon       bool   `json:"coupon"`
}

type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	var existing models.User
	if err := s.db.Where("phone = ?", input.Phone).First(&existing).Error; err == nil {
		return nil, ErrPhoneRegistered
	}

	salt, hash, err := utils.CreateHashWithNewSalt(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = "customer"
	}
	now := time.Now()
	user := models.User{
		PwHash:       hash,
		Salt:         salt,
		Role:         role,
		Name:         input.Name,
		Phone:        input.Phone,
		PhoneTwo:     input.PhoneTwo,
		Email:        input.Email,
		CompanyEmail: input.CompanyEmail,
		Fax:          input.Fax,
		AddressOne:   input.AddressOne,
		AddressTwo:   input.AddressTwo,
		Area:         input.Area,
		Orientation:  input.Orientation,
		Billing:      input.Billing,
		Coupon:       input.Coupon,
		MaxDevices:   1,
		Created:      now,
		Modified:     now,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &user, nil
}

// Login verifies the password and issues a token pair. Customer accounts
// are capped at MaxDevices concurrent sessions; the oldest refresh tokens
// are revoked to make room for the new login.
func (s *AuthService) Login(phone, password string) (*TokenPair, *models.User, error) {
	var user models.User
	if err := s.db.Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !utils.VerifyPassword(password, user.Salt, user.PwHash) {
		return nil, nil, ErrInvalidCredentials
	}

	if !IsStaffRole(user.Role) {
		if err := s.enforceDeviceLimit(&user); err != nil {
			return nil, nil, err
		}
	}

	pair, err := s.createTokens(&user)
	if err != nil {
		return nil, nil, err
	}
	return pair, &user, nil
}

func (s *AuthService) enforceDeviceLimit(user *models.User) error {
	maxDevices := user.MaxDevices
	if maxDevices < 1 {
		maxDevices = 1
	}

	var active []models.RefreshToken
	if err := s.db.Where("user_id = ? AND revoked = ? AND expires_at > ?", user.ID, false, time.Now()).
		Order("created ASC").Find(&active).Error; err != nil {
		return err
	}
	if len(active) < maxDevices {
		return nil
	}

	excess := len(active) - maxDevices + 1
	for i := 0; i < excess; i++ {
		active[i].Revoked = true
		if err := s.db.Save(&active[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *AuthService) createTokens(user *models.User) (*TokenPair, error) {
	access, err := utils.CreateToken(jwt.MapClaims{
		"sub":  user.Phone,
		"role": user.Role,
		"type": "access",
		"jti":  uuid.NewString(),
	}, time.Duration(config.AccessTokenExpireMinutes)*time.Minute)
	if err != nil {
		return nil, err
	}

	refreshTTL := time.Duration(config.RefreshTokenExpireDays) * 24 * time.Hour
	refresh, err := utils.CreateToken(jwt.MapClaims{
		"sub":  user.Phone,
		"type": "refresh",
		"jti":  uuid.NewString(),
	}, refreshTTL)
	if err != nil {
		return nil, err
	}

	record := models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(refreshTTL),
		Created:   time.Now(),
		Revoked:   false,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("saving refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a
// fresh pair issued.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, *models.User, error) {
	claims, err := utils.ParseToken(refreshToken)
	if err != nil || claims["type"] != "refresh" {
		return nil, nil, ErrInvalidRefreshToken
	}

	var record models.RefreshToken
	if err := s.db.Where("token = ? AND revoked = ? AND expires_at > ?", refreshToken, false, time.Now()).
		First(&record).Error; err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	phone, _ := claims["sub"].(string)
	var user models.User
	if err := s.db.Where("phone = ?", phone).First(&user).Error; err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	record.Revoked = true
	if err := s.db.Save(&record).Error; err != nil {
		return nil, nil, err
	}

	pair, err := s.createTokens(&user)
	if err != nil {
		return nil, nil, err
	}
	return pair, &user, nil
}

// Logout revokes the presented refresh token.
func (s *AuthService) Logout(refreshToken string) error {
	claims, err := utils.ParseToken(refreshToken)
	if err != nil || claims["type"] != "refresh" {
		return ErrInvalidRefreshToken
	}

	var record models.RefreshToken
	if err := s.db.Where("token = ? AND revoked = ?", refreshToken, false).First(&record).Error; err != nil {
		return ErrInvalidRefreshToken
	}
	record.Revoked = true
	return s.db.Save(&record).Error
}

// ChangePassword rehashes with a fresh salt, addressing users by name as
// the admin tooling does. Ambiguous names are rejected.
func (s *AuthService) ChangePassword(name, newPassword string) error {
	var users []models.User
	if err := s.db.Where("name = ?", name).Find(&users).Error; err != nil {
		return err
	}
	if len(users) == 0 {
		return gorm.ErrRecordNotFound
	}
	if len(users) > 1 {
		return errors.New("multiple users found with that name; use a unique identifier")
	}

	salt, hash, err := utils.CreateHashWithNewSalt(newPassword)
	if err != nil {
		return err
	}
	users[0].Salt = salt
	users[0].PwHash = hash
	users[0].Modified = time.Now()
	return s.db.Save(&users[0]).Error
}
