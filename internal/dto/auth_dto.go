package dto

// LoginRequest captures login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterRequest creates a manager or facilitator account.
type RegisterRequest struct {
	FirstName       string   `json:"first_name" validate:"required,min=1,max=100"`
	LastName        string   `json:"last_name" validate:"required,min=1,max=100"`
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required,min=6,max=72"`
	Role            string   `json:"role" validate:"required,oneof=manager facilitator"`
	Department      string   `json:"department" validate:"max=100"`
	EmployeeID      string   `json:"employee_id" validate:"max=50"`
	Specializations []string `json:"specializations"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID            uint   `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	FacilitatorID *uint  `json:"facilitator_id,omitempty"`
	ManagerID     *uint  `json:"manager_id,omitempty"`
}

// AuthResponse carries the issued token.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expires_in"`
	User      UserResponse `json:"user"`
}
