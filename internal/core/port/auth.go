package port

import "github.com/MikeRez0/campuscafe/internal/core/domain"

type TokenPayload struct {
	StudentID string
	Role      domain.Role
}

//go:generate mockgen -source=auth.go -destination=mock/auth.go -package=mock
type TokenService interface {
	CreateToken(student *domain.Student) (string, error)
	VerifyToken(token string) (*TokenPayload, error)
}
