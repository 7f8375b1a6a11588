package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/coursetrack-api/internal/dto"
	"github.com/noah-isme/coursetrack-api/internal/models"
	"github.com/noah-isme/coursetrack-api/internal/repository"
)

const passwordCost = 12

// AuthService authenticates users and issues JWTs.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error)
	Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error)
	Me(ctx context.Context, userID uint) (dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	staff     repository.StaffRepository
	validator *validator.Validate
	secret    []byte
	ttl       time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs the auth service.
func NewAuthService(users repository.UserRepository, staff repository.StaffRepository, validate *validator.Validate, secret string, ttl time.Duration, logger zerolog.Logger) AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &authService{
		users:     users,
		staff:     staff,
		validator: validate,
		secret:    []byte(secret),
		ttl:       ttl,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}
	if !user.IsActive {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	profile, err := s.resolveProfile(ctx, user)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to record last login")
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user logged in")
	return s.issue(profile)
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AuthResponse{}, err
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return dto.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordCost)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         req.Role,
		IsActive:     true,
	}
	profile := dto.UserResponse{}

	err = s.users.Transaction(ctx, func(tx *gorm.DB) error {
		if err := repository.NewUserRepository(tx).Create(ctx, &user); err != nil {
			return err
		}
		staff := repository.NewStaffRepository(tx)

		switch req.Role {
		case models.RoleManager:
			manager := models.Manager{
				UserID:      user.ID,
				Department:  req.Department,
				Permissions: models.DefaultManagerPermissions(),
				IsActive:    true,
			}
			if err := staff.CreateManager(ctx, &manager); err != nil {
				return err
			}
			profile.ManagerID = uintPtr(manager.ID)
		case models.RoleFacilitator:
			facilitator := models.Facilitator{
				UserID:          user.ID,
				Department:      req.Department,
				Specializations: datatypes.JSONSlice[string](req.Specializations),
				IsActive:        true,
			}
			if employeeID := strings.TrimSpace(req.EmployeeID); employeeID != "" {
				facilitator.EmployeeID = &employeeID
			}
			if err := staff.CreateFacilitator(ctx, &facilitator); err != nil {
				return err
			}
			profile.FacilitatorID = uintPtr(facilitator.ID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.AuthResponse{}, ErrEmailTaken
		}
		return dto.AuthResponse{}, err
	}

	fillUserResponse(&profile, user)
	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	return s.issue(profile)
}

func (s *authService) Me(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrInvalidCredentials
		}
		return dto.UserResponse{}, err
	}
	return s.resolveProfile(ctx, user)
}

func (s *authService) resolveProfile(ctx context.Context, user models.User) (dto.UserResponse, error) {
	profile := dto.UserResponse{}
	fillUserResponse(&profile, user)

	switch user.Role {
	case models.RoleManager:
		manager, err := s.staff.FindManagerByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, err
		}
		if err == nil {
			profile.ManagerID = uintPtr(manager.ID)
		}
	case models.RoleFacilitator:
		facilitator, err := s.staff.FindFacilitatorByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, err
		}
		if err == nil {
			profile.FacilitatorID = uintPtr(facilitator.ID)
		}
	}
	return profile, nil
}

func (s *authService) issue(profile dto.UserResponse) (dto.AuthResponse, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(profile.ID), 10),
		"email": profile.Email,
		"role":  profile.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	if profile.FacilitatorID != nil {
		claims["facilitator_id"] = *profile.FacilitatorID
	}
	if profile.ManagerID != nil {
		claims["manager_id"] = *profile.ManagerID
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	return dto.AuthResponse{
		Token:     token,
		ExpiresIn: int64(s.ttl.Seconds()),
		User:      profile,
	}, nil
}

func fillUserResponse(target *dto.UserResponse, user models.User) {
	target.ID = user.ID
	target.FirstName = user.FirstName
	target.LastName = user.LastName
	target.Email = user.Email
	target.Role = user.Role
}
