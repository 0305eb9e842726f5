package dto

import (
	"billing/internal/domain/auth"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the access token and the account it belongs to.
type LoginResponse struct {
	Tokens *auth.TokenPair  `json:"tokens"`
	User   *auth.Credential `json:"user"`
}

// CredentialRequest is the body for saving the admin or creating a cashier.
type CredentialRequest struct {
	Username      string `json:"username" binding:"required"`
	ContactNumber string `json:"contactNumber"`
	Password      string `json:"password" binding:"required"`
}

func (r *CredentialRequest) ToInput() auth.CredentialInput {
	return auth.CredentialInput{
		Username:      r.Username,
		ContactNumber: r.ContactNumber,
		Password:      r.Password,
	}
}
