package models

import "github.com/golang-jwt/jwt/v5"

// UserRole distinguishes teacher and student tokens issued by the external
// account service.
type UserRole string

const (
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// JWTClaims is the access-token payload this service verifies. Token issuing
// and account registration live in the external auth collaborator; only the
// owner scope and role matter here.
type JWTClaims struct {
	UserID      string   `json:"user_id"`
	Role        UserRole `json:"role"`
	DisplayName string   `json:"display_name"`
	jwt.RegisteredClaims
}
