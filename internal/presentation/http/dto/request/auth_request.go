package request

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents a sign-up request. Format checks happen in the
// service so the caller gets the store-owner facing messages.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	StoreName string `json:"storeName" binding:"required,max=255"`
}

// RefreshTokenRequest represents a token refresh request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// DeleteAccountRequest confirms an account deletion
type DeleteAccountRequest struct {
	Password string `json:"password"`
}
