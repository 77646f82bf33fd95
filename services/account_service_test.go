package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-join-service/models"
)

type fakeAccounts struct {
	registered []models.SignupRequest
	profile    models.GamingProfile
	profileErr error
}

func (f *fakeAccounts) Register(_ context.Context, req models.SignupRequest) (models.AuthResult, error) {
	f.registered = append(f.registered, req)
	return models.AuthResult{Token: "t"}, nil
}

func (f *fakeAccounts) Login(context.Context, models.LoginRequest) (models.AuthResult, error) {
	return models.AuthResult{Token: "t"}, nil
}

func (f *fakeAccounts) Profile(context.Context, Credential) (models.GamingProfile, error) {
	return f.profile, f.profileErr
}

func validSignup() models.SignupRequest {
	return models.SignupRequest{
		Username:        "ghost",
		Email:           " Ghost@Example.com ",
		Password:        "hunter2hunter2",
		ConfirmPassword: "hunter2hunter2",
		IsAdult:         true,
		AcceptTerms:     true,
	}
}

func TestSignupNormalizesAndForwards(t *testing.T) {
	backend := &fakeAccounts{}
	svc := NewAccountService(backend)

	res, err := svc.Signup(context.Background(), validSignup())

	require.NoError(t, err)
	assert.Equal(t, "t", res.Token)
	require.Len(t, backend.registered, 1)
	assert.Equal(t, "ghost@example.com", backend.registered[0].Email)
	assert.Equal(t, "PLAYER", backend.registered[0].Role)
}

func TestSignupRejectsLocally(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *models.SignupRequest)
		field  string
	}{
		{"short password", func(r *models.SignupRequest) { r.Password, r.ConfirmPassword = "short", "short" }, "password"},
		{"mismatched confirm", func(r *models.SignupRequest) { r.ConfirmPassword = "different1" }, "confirmPassword"},
		{"bad email", func(r *models.SignupRequest) { r.Email = "not-an-email" }, "email"},
		{"bad phone", func(r *models.SignupRequest) { r.Phone = "12345" }, "phone"},
		{"unknown role", func(r *models.SignupRequest) { r.Role = "admin" }, "role"},
		{"minor", func(r *models.SignupRequest) { r.IsAdult = false }, "isAdult"},
		{"terms", func(r *models.SignupRequest) { r.AcceptTerms = false }, "acceptTerms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeAccounts{}
			req := validSignup()
			tt.mutate(&req)

			_, err := NewAccountService(backend).Signup(context.Background(), req)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Empty(t, backend.registered)
		})
	}
}

func TestLoginValidates(t *testing.T) {
	svc := NewAccountService(&fakeAccounts{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "password")

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "GHOST@example.com", Password: "x"})
	assert.NoError(t, err)
}

func TestProfileNeedsCredential(t *testing.T) {
	_, err := NewAccountService(&fakeAccounts{}).Profile(context.Background(), Credential{})
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
}
