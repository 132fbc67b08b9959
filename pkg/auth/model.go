// Package auth implements signup, login and session tokens.
package auth

import "time"

// User is a stored account. PasswordHash never leaves the server.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}

// PublicUser is the account view returned to clients.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Public strips the password hash.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}

// Session is the result of a successful signup or login.
type Session struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}

// SignupRequest carries the signup form. Phone is optional.
type SignupRequest struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6
