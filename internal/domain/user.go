package domain

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RolePromoter Role = "promoter"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePromoter:
		return true
	}
	return false
}

// CanManageCatalog covers catalog, stock, promotion, purchasing and user edits.
func (r Role) CanManageCatalog() bool {
	switch r {
	case RoleAdmin:
		return true
	case RolePromoter:
		return false
	}
	return false
}

func (r Role) CanSell() bool {
	switch r {
	case RoleAdmin, RolePromoter:
		return true
	}
	return false
}

type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Hash       string    `json:"passwordHash,omitempty"`
	Role       Role      `json:"role"`
	LocationID string    `json:"locationId,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Actor is the authenticated caller as seen by the core.
type Actor struct {
	ID         string `json:"id"`
	Role       Role   `json:"role"`
	LocationID string `json:"locationId,omitempty"`
}
