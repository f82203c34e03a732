package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bou-cse/routines-api/internal/models"
	appErrors "github.com/bou-cse/routines-api/pkg/errors"
)

type stubUserRepo struct {
	users      map[string]*models.User
	lastLogin  *time.Time
	loggedIn   []*models.LoginLog
	loginErr   error
	retainSeen int
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	s.lastLogin = &ts
	return nil
}

func (s *stubUserRepo) CreateLoginLog(ctx context.Context, log *models.LoginLog, retain int) error {
	if s.loginErr != nil {
		return s.loginErr
	}
	s.loggedIn = append(s.loggedIn, log)
	s.retainSeen = retain
	return nil
}

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthFixture(t *testing.T) (*AuthService, *stubUserRepo) {
	repo := &stubUserRepo{users: map[string]*models.User{
		"user-1": {
			ID:           "user-1",
			Email:        "admin@example.edu",
			PasswordHash: hashPassword(t, "s3cret"),
			FullName:     "Routine Admin",
			Active:       true,
		},
		"user-2": {
			ID:           "user-2",
			Email:        "retired@example.edu",
			PasswordHash: hashPassword(t, "s3cret"),
			FullName:     "Former Admin",
			Active:       false,
		},
	}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "routines-api",
	})
	return svc, repo
}

func TestLoginSuccess(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:     "admin@example.edu",
		Password:  "s3cret",
		IP:        "203.0.113.7",
		UserAgent: "curl/8.0",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Equal(t, "Routine Admin", resp.User.FullName)

	require.NotNil(t, repo.lastLogin)
	require.Len(t, repo.loggedIn, 1)
	assert.Equal(t, "203.0.113.7", repo.loggedIn[0].IPAddress)
	assert.Equal(t, loginLogRetention, repo.retainSeen)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.edu",
		Password: "wrong",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
	assert.Empty(t, repo.loggedIn)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.edu",
		Password: "s3cret",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "retired@example.edu",
		Password: "s3cret",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestLoginInvalidPayload(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	require.Error(t, err)
}

func TestLoginLogFailureIsNonFatal(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.loginErr = assert.AnError

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.edu",
		Password: "s3cret",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.edu",
		Password: "s3cret",
	})
	require.NoError(t, err)

	user, err := svc.ValidateToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "admin@example.edu", user.Email)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken(context.Background(), "not.a.token")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.edu",
		Password: "s3cret",
	})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{
		Secret:     "different-secret",
		Expiration: time.Hour,
		Issuer:     "routines-api",
	})
	_, err = other.ValidateToken(context.Background(), resp.AccessToken)
	require.Error(t, err)
}

func TestValidateTokenWrongIssuer(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.edu",
		Password: "s3cret",
	})
	require.NoError(t, err)

	other := NewAuthService(repo, nil, nil, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "someone-else",
	})
	_, err = other.ValidateToken(context.Background(), resp.AccessToken)
	require.Error(t, err)
}

func TestValidateTokenInactiveUser(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@example.edu",
		Password: "s3cret",
	})
	require.NoError(t, err)

	repo.users["user-1"].Active = false
	_, err = svc.ValidateToken(context.Background(), resp.AccessToken)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}
