package models

import (
	"errors"
	"strings"
	"time"
)

// UserPermission is keyed by the lowercased email of the account.
type UserPermission struct {
	Email       string    `json:"email" bson:"_id"`
	Role        Role      `json:"role" bson:"role"`
	DisplayName string    `json:"displayName" bson:"displayName"`
	UID         string    `json:"uid" bson:"uid"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	LastLogin   time.Time `json:"lastLogin" bson:"lastLogin"`
}

func (p *UserPermission) Validate() error {
	if p.Email == "" {
		return errors.New("permission record without email key")
	}
	if p.Email != NormalizeEmail(p.Email) {
		return errors.New("permission key is not a lowercased email")
	}
	if !p.Role.Valid() {
		return errors.New("unknown role " + string(p.Role))
	}
	return nil
}

// Identity is what the authentication provider tells us about the caller.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Label returns the display name, falling back to the local part of the email.
func (i Identity) Label() string {
	if strings.TrimSpace(i.DisplayName) != "" {
		return i.DisplayName
	}
	if at := strings.Index(i.Email, "@"); at > 0 {
		return i.Email[:at]
	}
	return i.Email
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type UpdateRoleRequest struct {
	Role Role `json:"role" validate:"required,oneof=client employee admin"`
}
