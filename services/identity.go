package services

import "bookstore/models"

// Identity is the authenticated caller, as carried by a verified token
type Identity struct {
	UserID   int64
	Username string
	Role     string
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}
