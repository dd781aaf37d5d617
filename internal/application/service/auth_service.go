package service

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/internal/domain/enum"
	"github.com/sangkips/tillbook-api/internal/domain/repository"
	"github.com/sangkips/tillbook-api/pkg/apperror"
	"github.com/sangkips/tillbook-api/pkg/oauth"
	"github.com/sangkips/tillbook-api/pkg/utils"
)

// AuthService handles authentication-related operations
type AuthService struct {
	userRepo   repository.UserRepository
	jwtManager *utils.JWTManager
	google     *oauth.GoogleOAuthService
	defaults   entity.StoreConfig
}

// NewAuthService creates a new auth service. defaults seed the store config
// of every new account.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtManager *utils.JWTManager,
	google *oauth.GoogleOAuthService,
	defaults entity.StoreConfig,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		google:     google,
		defaults:   defaults.WithDefaults(),
	}
}

// LoginInput represents the login input
type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput represents the login output
type LoginOutput struct {
	User         *entity.User
	AccessToken  string
	RefreshToken string
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ErrInvalidEmail
	}
	return email, nil
}

func (s *AuthService) issueTokens(user *entity.User) (*LoginOutput, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.StoreName)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &LoginOutput{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Login authenticates a store owner and returns tokens
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, unavailable("login lookup", err)
	}
	if user == nil || !utils.CheckPasswordHash(input.Password, user.Password) {
		return nil, apperror.ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// RegisterInput represents the registration input
type RegisterInput struct {
	Email     string
	Password  string
	StoreName string
}

// Register creates a new store account and signs it in
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*LoginOutput, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(input.Password) < utils.MinPasswordLength {
		return nil, apperror.ErrWeakPassword
	}
	storeName := strings.TrimSpace(input.StoreName)
	if storeName == "" {
		return nil, apperror.NewFieldError("storeName", "Store name is required")
	}

	// Check if email already exists
	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, unavailable("register lookup", err)
	}
	if existingUser != nil {
		return nil, apperror.ErrEmailInUse
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:       email,
		Password:    hashedPassword,
		Provider:    enum.AuthProviderLocal,
		StoreName:   storeName,
		StoreConfig: s.defaults,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, unavailable("create user", err)
	}

	return s.issueTokens(user)
}

// RefreshToken generates new tokens from a refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*LoginOutput, error) {
	userID, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, unavailable("refresh lookup", err)
	}
	if user == nil {
		return nil, apperror.ErrInvalidToken
	}

	return s.issueTokens(user)
}

// GetCurrentUser returns the current user by ID
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, unavailable("get user", err)
	}
	if user == nil {
		return nil, apperror.ErrNotFound
	}
	return user, nil
}

// GoogleAuthURL starts a Google sign-in and returns the consent page URL.
func (s *AuthService) GoogleAuthURL() (string, error) {
	if s.google == nil || !s.google.IsConfigured() {
		return "", apperror.NewAppError(503, oauth.ErrOAuthNotConfigured.Error())
	}
	state, err := s.google.NewState()
	if err != nil {
		return "", err
	}
	return s.google.GetAuthURL(state), nil
}

// GoogleLogin completes a Google sign-in. An account with the same e-mail is
// linked to the Google identity; otherwise a new store is created.
func (s *AuthService) GoogleLogin(ctx context.Context, code, state string) (*LoginOutput, error) {
	if s.google == nil || !s.google.IsConfigured() {
		return nil, apperror.NewAppError(503, oauth.ErrOAuthNotConfigured.Error())
	}
	if err := s.google.VerifyState(state); err != nil {
		return nil, apperror.NewBadRequestError(err.Error())
	}

	info, err := s.google.Authenticate(ctx, code)
	if err != nil {
		if errors.Is(err, oauth.ErrEmailNotVerified) {
			return nil, apperror.NewBadRequestError(err.Error())
		}
		log.Printf("Google sign-in failed: %v", err)
		return nil, apperror.ErrNetwork
	}

	user, err := s.userRepo.GetByProviderID(ctx, info.ID)
	if err != nil {
		return nil, unavailable("google lookup", err)
	}
	if user != nil {
		return s.issueTokens(user)
	}

	email := strings.ToLower(info.Email)
	user, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, unavailable("google lookup", err)
	}
	providerID := info.ID
	if user != nil {
		if err := s.userRepo.LinkProvider(ctx, user.ID, providerID); err != nil {
			return nil, unavailable("link google account", err)
		}
		return s.issueTokens(user)
	}

	storeName := strings.TrimSpace(info.Name)
	if storeName == "" {
		storeName = strings.SplitN(email, "@", 2)[0]
	}
	user = &entity.User{
		Email:       email,
		Provider:    enum.AuthProviderGoogle,
		ProviderID:  &providerID,
		StoreName:   storeName,
		StoreConfig: s.defaults,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, unavailable("create google user", err)
	}
	return s.issueTokens(user)
}
