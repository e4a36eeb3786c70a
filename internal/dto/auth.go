package dto

// RegisterRequest represents the request payload for user registration
type RegisterRequest struct {
	Name     string `json:"name" example:"Jane"`
	Gender   string `json:"gender" example:"Female"`
	Age      string `json:"age" example:"30"`
	Mobile   string `json:"mobile" example:"9171234567"`
	Email    string `json:"email" example:"jane@x.com"`
	Password string `json:"password" example:"secret1"`
}

// RegisterResponse represents the response after successful registration
type RegisterResponse struct {
	Message  string `json:"message" example:"User registered successfully"`
	UserName string `json:"userName" example:"Jane"`
}

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Email    string `json:"email" example:"jane@x.com"`
	Password string `json:"password" example:"secret1"`
}

// LoginResponse represents the response after successful authentication
type LoginResponse struct {
	Message   string       `json:"message" example:"Login successful"`
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at" example:"2024-05-01T11:00:00Z"`
}

// UserResponse represents user data in API responses
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Gender    string `json:"gender"`
	Age       string `json:"age"`
	Mobile    string `json:"mobile"`
	CreatedAt string `json:"created_at"`
}

// MessageResponse is the body of every error and of plain acknowledgements
type MessageResponse struct {
	Message string `json:"message" example:"Invalid email or password"`
}
