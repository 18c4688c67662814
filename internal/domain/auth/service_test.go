package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
)

type fakeTx struct{}

func (fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memUsers struct {
	byID map[id.ID]*User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[id.ID]*User{}} }

func (m *memUsers) Create(_ context.Context, u *User) error {
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, uid id.ID) (*User, error) {
	if u, ok := m.byID[uid]; ok {
		return u, nil
	}
	return nil, apperror.NewNotFound("user", uid)
}

func (m *memUsers) GetByLogin(_ context.Context, login string) (*User, error) {
	for _, u := range m.byID {
		if u.LoginID == login || u.Email == strings.ToLower(login) {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", login)
}

func (m *memUsers) Exists(_ context.Context, loginID, email string) (bool, bool, error) {
	var loginTaken, emailTaken bool
	for _, u := range m.byID {
		loginTaken = loginTaken || u.LoginID == loginID
		emailTaken = emailTaken || u.Email == email
	}
	return loginTaken, emailTaken, nil
}

func (m *memUsers) UpdateLastLogin(_ context.Context, uid id.ID, at time.Time) error {
	if u, ok := m.byID[uid]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func newTestService() (*Service, *memUsers) {
	users := newMemUsers()
	jwtSvc := NewJWTService(DefaultJWTConfig("test-secret"))
	cfg := DefaultServiceConfig()
	cfg.BcryptCost = bcrypt.MinCost
	return NewService(users, fakeTx{}, jwtSvc, cfg), users
}

func signup(t *testing.T, svc *Service) *User {
	t.Helper()
	user, err := svc.Signup(context.Background(), SignupRequest{
		LoginID:  "alice",
		Email:    " Alice@Example.com ",
		Password: "correct-horse",
		FullName: "Alice",
	})
	require.NoError(t, err)
	return user
}

func TestSignupHashesPasswordAndNormalizesEmail(t *testing.T) {
	svc, users := newTestService()
	user := signup(t, svc)

	stored := users.byID[user.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correct-horse")))
}

func TestSignupRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService()
	signup(t, svc)

	_, err := svc.Signup(context.Background(), SignupRequest{
		LoginID: "alice", Email: "other@example.com", Password: "correct-horse",
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	_, err = svc.Signup(context.Background(), SignupRequest{
		LoginID: "bob", Email: "alice@example.com", Password: "correct-horse",
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name string
		req  SignupRequest
	}{
		{"short password", SignupRequest{LoginID: "bob", Email: "bob@example.com", Password: "short"}},
		{"bad email", SignupRequest{LoginID: "bob", Email: "not-an-email", Password: "long-enough"}},
		{"bad login", SignupRequest{LoginID: "b!", Email: "bob@example.com", Password: "long-enough"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}
}

func TestLoginIssuesTokenForLoginIDOrEmail(t *testing.T) {
	svc, _ := newTestService()
	user := signup(t, svc)

	for _, login := range []string{"alice", "alice@example.com"} {
		token, got, err := svc.Login(context.Background(), Credentials{Login: login, Password: "correct-horse"})
		require.NoError(t, err, login)
		assert.Equal(t, user.ID, got.ID)
		assert.NotNil(t, got.LastLoginAt)

		uc, err := svc.ValidateToken(token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), uc.UserID)
		assert.Equal(t, "alice@example.com", uc.Email)
		assert.Equal(t, "alice", uc.LoginID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService()
	signup(t, svc)

	_, _, err := svc.Login(context.Background(), Credentials{Login: "alice", Password: "wrong-password"})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	_, _, err = svc.Login(context.Background(), Credentials{Login: "nobody", Password: "whatever"})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, _ := newTestService()
	user := signup(t, svc)
	user.IsActive = false

	_, _, err := svc.Login(context.Background(), Credentials{Login: "alice", Password: "correct-horse"})
	assert.True(t, apperror.HasCode(err, apperror.CodeForbidden))
}

func TestMe(t *testing.T) {
	svc, _ := newTestService()
	user := signup(t, svc)

	_, err := svc.Me(context.Background())
	assert.True(t, apperror.HasCode(err, apperror.CodeUnauthorized))

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: user.ID.String()})
	got, err := svc.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.LoginID)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	jwtSvc := NewJWTService(JWTConfig{Secret: "s", Issuer: "test", AccessTokenTTL: time.Minute})
	issued := time.Now().Add(-time.Hour)
	jwtSvc.now = func() time.Time { return issued }

	token, _, err := jwtSvc.GenerateAccessToken(NewUser("alice", "alice@example.com", "x"))
	require.NoError(t, err)

	jwtSvc.now = time.Now
	_, err = jwtSvc.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenSignedWithOtherSecretIsRejected(t *testing.T) {
	a := NewJWTService(DefaultJWTConfig("secret-a"))
	b := NewJWTService(DefaultJWTConfig("secret-b"))

	token, _, err := a.GenerateAccessToken(NewUser("alice", "alice@example.com", "x"))
	require.NoError(t, err)

	_, err = b.ValidateToken(token)
	assert.Error(t, err)
}
