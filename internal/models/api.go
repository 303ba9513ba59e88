package models

// RegisterRequest is the body of a registration on either node. The cloud
// node links the new account to LocalUserID, which later identifies the
// sender of a sync.
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	LocalUserID string `json:"local_user_id,omitempty"`
}

// LoginRequest is the body of a login on either node.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse answers a successful registration or login.
type AuthResponse struct {
	Success     bool   `json:"success"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	LocalUserID string `json:"local_user_id,omitempty"`
	Token       string `json:"token,omitempty"`
	Message     string `json:"message,omitempty"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
