package dto

// UpdateProfileInput is a patch: nil means "leave unchanged". An empty
// string is also treated as absent, mirroring the historical behavior, so
// a field cannot be cleared to empty through this endpoint.
type UpdateProfileInput struct {
	Email    *string `json:"email" form:"email" binding:"omitempty,email"`
	Name     *string `json:"name" form:"name" binding:"omitempty,max=100"`
	Password *string `json:"password" form:"password" binding:"omitempty,min=8"`
	// Report links an existing report to the user. Linking is additive.
	Report *string `json:"report" form:"report" binding:"omitempty,uuid"`
}

type DeleteProfileInput struct {
	ID string `json:"id" binding:"required,uuid"`
}
