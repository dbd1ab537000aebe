package model

import "time"

// Built-in role names. Roles and their permission sets are declared in
// pkg/rbac; these constants exist so callers never spell role names
// inline.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
	RoleUser   = "user"
)

// User is a user as stored. HashedPassword never leaves the service;
// the API layer strips it before responding.
type User struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name,omitempty"`
	Role           string     `json:"role"`
	Permissions    []string   `json:"permissions"`
	IsActive       bool       `json:"is_active"`
	HashedPassword string     `json:"hashed_password,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// UserCreate is the shape accepted when creating a user. Password is
// hashed before the record reaches the storage layer.
type UserCreate struct {
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	FullName    string   `json:"full_name,omitempty"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Password    string   `json:"password"`
}

// UserUpdate is a partial update; nil fields are left unchanged.
type UserUpdate struct {
	Email       *string   `json:"email,omitempty"`
	FullName    *string   `json:"full_name,omitempty"`
	Role        *string   `json:"role,omitempty"`
	Permissions *[]string `json:"permissions,omitempty"`
	IsActive    *bool     `json:"is_active,omitempty"`
}
