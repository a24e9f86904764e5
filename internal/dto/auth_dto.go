package dto

import (
	"time"

	"anoa.com/reportdesk/internal/model"
	"github.com/google/uuid"
)

type SignupInput struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Name     string `json:"name" form:"name" binding:"required,min=2,max=100"`
	Password string `json:"password" form:"password" binding:"required,min=8"`
}

type SigninInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the allow-listed view of a user. The password hash and
// internal bookkeeping never appear here.
type UserResponse struct {
	ID        uuid.UUID   `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	PicURL    *string     `json:"pic_url,omitempty"`
	Role      string      `json:"role"`
	Reports   []uuid.UUID `json:"reports,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func NewUserResponse(u *model.User) *UserResponse {
	if u == nil {
		return nil
	}

	var reports []uuid.UUID
	for _, r := range u.Reports {
		reports = append(reports, r.ID)
	}

	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		PicURL:    u.PicURL,
		Role:      u.Role.Name,
		Reports:   reports,
		CreatedAt: u.CreatedAt,
	}
}

type AuthResponse struct {
	User  *UserResponse `json:"user"`
	Token string        `json:"token"`
}
