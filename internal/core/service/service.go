package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikeRez0/campuscafe/internal/core/clock"
	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/MikeRez0/campuscafe/internal/core/port"
	"github.com/MikeRez0/campuscafe/internal/core/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	repo              port.Repository
	catalog           port.Catalog
	notifier          port.Notifier
	tokenService      port.TokenService
	clock             clock.Clock
	newID             func() string
	freeItemImmediate bool
	logger            *zap.Logger
}

type Option func(*Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithFreeItemImmediate debits free-item redemptions when they are applied
// rather than at confirmation.
func WithFreeItemImmediate(immediate bool) Option {
	return func(s *Service) { s.freeItemImmediate = immediate }
}

func NewService(repo port.Repository, catalog port.Catalog, notifier port.Notifier,
	tokenService port.TokenService, logger *zap.Logger, opts ...Option) (*Service, error) {
	s := &Service{
		repo:         repo,
		catalog:      catalog,
		notifier:     notifier,
		tokenService: tokenService,
		clock:        clock.NewSystem(),
		newID:        uuid.NewString,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) RegisterStudent(ctx context.Context, student *domain.Student) (*domain.Student, error) {
	if student.ID == "" {
		return nil, fmt.Errorf("%w: empty student id", domain.ErrValidation)
	}
	if student.Password == "" {
		return nil, fmt.Errorf("%w: empty password", domain.ErrValidation)
	}

	exStudent, err := s.repo.ReadStudent(ctx, student.ID)
	if err != nil && !errors.Is(err, domain.ErrDataNotFound) {
		s.logger.Error("Get student", zap.Error(err))
		return nil, err
	}
	if exStudent != nil {
		return nil, domain.ErrConflictingData
	}

	hashed, err := utils.HashPassword(student.Password)
	if err != nil {
		s.logger.Error("Hash password", zap.Error(err))
		return nil, domain.ErrInternal
	}

	account, err := domain.NewLoyaltyAccount(student.ID)
	if err != nil {
		return nil, err
	}

	newStudent := *student
	newStudent.Password = hashed
	newStudent.RegisteredAt = s.clock.Now()
	if newStudent.Role == "" {
		newStudent.Role = domain.RoleStudent
	}

	created, err := s.repo.CreateStudent(ctx, &newStudent, account)
	if err != nil {
		s.logger.Error("Create student", zap.Error(err))
		return nil, err
	}
	return created, nil
}

func (s *Service) LoginStudent(ctx context.Context, studentID string, password string) (string, error) {
	student, err := s.repo.ReadStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if err := utils.ComparePassword(password, student.Password); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokenService.CreateToken(student)
	if err != nil {
		s.logger.Error("Create token", zap.Error(err))
		return "", domain.ErrTokenCreation
	}
	return token, nil
}

func (s *Service) notify(ctx context.Context, events ...domain.Event) {
	for _, e := range events {
		s.notifier.Notify(ctx, e)
	}
}
