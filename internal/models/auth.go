package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens.
// Student tokens carry the department and level the student belongs to.
type JWTClaims struct {
	UserID       string   `json:"user_id"`
	Role         UserRole `json:"role"`
	Email        string   `json:"email"`
	DepartmentID string   `json:"department_id,omitempty"`
	Level        int      `json:"level,omitempty"`
	jwt.RegisteredClaims
}
