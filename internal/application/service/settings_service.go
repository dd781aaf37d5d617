package service

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/internal/domain/enum"
	"github.com/sangkips/tillbook-api/internal/domain/repository"
	"github.com/sangkips/tillbook-api/pkg/apperror"
)

// MaxReceiptNoteLength bounds the note printed under every receipt.
const MaxReceiptNoteLength = 500

var mobilePrefixPattern = regexp.MustCompile(`^\+\d{1,4}$`)

// SettingsService handles store settings
type SettingsService struct {
	userRepo repository.UserRepository
}

// NewSettingsService creates a new settings service
func NewSettingsService(userRepo repository.UserRepository) *SettingsService {
	return &SettingsService{
		userRepo: userRepo,
	}
}

// StoreSettings is the store's receipt configuration with the choices the
// currency picker offers.
type StoreSettings struct {
	StoreName       string             `json:"storeName"`
	Config          entity.StoreConfig `json:"config"`
	CurrencyOptions []string           `json:"currencyOptions"`
}

func (s *SettingsService) user(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, unavailable("get settings", err)
	}
	if user == nil {
		return nil, apperror.ErrSignedOut
	}
	return user, nil
}

// GetSettings returns the store settings
func (s *SettingsService) GetSettings(ctx context.Context, userID uuid.UUID) (*StoreSettings, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &StoreSettings{
		StoreName:       user.StoreName,
		Config:          user.StoreConfig.WithDefaults(),
		CurrencyOptions: enum.CurrencySymbols,
	}, nil
}

// UpdateSettingsInput represents the input for updating settings. Nil
// fields are left as they are.
type UpdateSettingsInput struct {
	UserID         uuid.UUID
	StoreName      *string
	CurrencySymbol *string
	MobilePrefix   *string
	ReceiptNote    *string
}

// UpdateSettings validates and saves the store settings
func (s *SettingsService) UpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*StoreSettings, error) {
	var fieldErrors []apperror.FieldError
	if input.StoreName != nil && strings.TrimSpace(*input.StoreName) == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "storeName", Message: "Store name is required"})
	}
	if input.CurrencySymbol != nil && !enum.IsCurrencySymbol(*input.CurrencySymbol) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "currencySymbol", Message: "Unsupported currency symbol"})
	}
	if input.MobilePrefix != nil && !mobilePrefixPattern.MatchString(strings.TrimSpace(*input.MobilePrefix)) {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "mobilePrefix", Message: "Mobile prefix must look like +91"})
	}
	if input.ReceiptNote != nil && utf8.RuneCountInString(*input.ReceiptNote) > MaxReceiptNoteLength {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "receiptNote", Message: "Receipt note is too long"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	user, err := s.user(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.StoreName != nil {
		user.StoreName = strings.TrimSpace(*input.StoreName)
	}
	if input.CurrencySymbol != nil {
		user.CurrencySymbol = *input.CurrencySymbol
	}
	if input.MobilePrefix != nil {
		user.MobilePrefix = strings.TrimSpace(*input.MobilePrefix)
	}
	if input.ReceiptNote != nil {
		user.ReceiptNote = strings.TrimSpace(*input.ReceiptNote)
	}

	if err := s.userRepo.UpdateStore(ctx, user.ID, user.StoreName, user.StoreConfig); err != nil {
		return nil, unavailable("update settings", err)
	}

	return &StoreSettings{
		StoreName:       user.StoreName,
		Config:          user.StoreConfig.WithDefaults(),
		CurrencyOptions: enum.CurrencySymbols,
	}, nil
}
