package identity

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the stored identity. PasswordHash never leaves the package in JSON.
type User struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	Role               string     `json:"role"`
	PasswordHash       string     `json:"-"`
	DateOfBirth        *time.Time `json:"dateOfBirth,omitempty"`
	Gender             string     `json:"gender,omitempty"`
	MemberSince        time.Time  `json:"memberSince"`
	LastPasswordChange *time.Time `json:"lastPasswordChange,omitempty"`
	LoyaltyPoints      int        `json:"loyaltyPoints"`
	TotalOrders        int        `json:"totalOrders"`
}

type ProfileUpdate struct {
	Name        string
	Phone       string
	DateOfBirth *time.Time
	Gender      string
}
