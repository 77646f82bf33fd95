package services

import (
	"context"
	"strings"

	"tournament-join-service/models"
)

type AccountBackend interface {
	Register(ctx context.Context, req models.SignupRequest) (models.AuthResult, error)
	Login(ctx context.Context, req models.LoginRequest) (models.AuthResult, error)
	Profile(ctx context.Context, cred Credential) (models.GamingProfile, error)
}

// AccountService validates sign-up and login locally before forwarding them.
type AccountService struct {
	backend AccountBackend
}

func NewAccountService(backend AccountBackend) *AccountService {
	return &AccountService{backend: backend}
}

func (s *AccountService) Signup(ctx context.Context, req models.SignupRequest) (models.AuthResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Role = strings.ToUpper(strings.TrimSpace(req.Role))
	if req.Role == "" {
		req.Role = "PLAYER"
	}

	verr := &ValidationError{}
	if err := validate.Struct(req); err != nil {
		verr = validationErrorFrom(err)
	}
	if !req.IsAdult {
		verr.Add("isAdult", "you must be 18 or older to register")
	}
	if !req.AcceptTerms {
		verr.Add("acceptTerms", "you must accept the terms and conditions")
	}
	if !verr.Empty() {
		return models.AuthResult{}, verr
	}
	return s.backend.Register(ctx, req)
}

func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (models.AuthResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return models.AuthResult{}, validationErrorFrom(err)
	}
	return s.backend.Login(ctx, req)
}

func (s *AccountService) Profile(ctx context.Context, cred Credential) (models.GamingProfile, error) {
	if !cred.Present() {
		return models.GamingProfile{}, ErrAuthenticationRequired
	}
	return s.backend.Profile(ctx, cred)
}
