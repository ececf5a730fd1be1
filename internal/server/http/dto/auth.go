package dto

// LoginRequest describes username/password payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SessionResponse describes the authenticated session.
type SessionResponse struct {
	User    string `json:"currentUser"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token,omitempty"`
}
