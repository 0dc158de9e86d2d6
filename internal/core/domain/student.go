package domain

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
)

type Student struct {
	ID           string
	Name         string
	Password     string
	Role         Role
	RegisteredAt time.Time
}
