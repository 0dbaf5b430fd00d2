package services

import (
	"testing"
	"time"

	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"github.com/nirmaan-tracker/nirmaan-api/internal/repository"
	"github.com/nirmaan-tracker/nirmaan-api/internal/testutil"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db     *gorm.DB
	tokens *TokenService
	auth   *AuthService
	user   *models.User
}

func TestAuthService(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.tokens = NewTokenService("test-secret", time.Hour)
	s.auth = NewAuthService(repository.NewUserRepository(s.db), s.tokens)

	s.user = testutil.CreateUser(s.T(), s.db, "kiran", models.RoleSiteManager)
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	s.Require().NoError(err)
	s.Require().NoError(s.db.Model(s.user).Updates(map[string]interface{}{
		"password_hash": string(hash),
		"temp_password": true,
	}).Error)
}

func (s *AuthServiceTestSuite) TestLogin_ByUsernameOrEmail() {
	for _, login := range []string{"kiran", "KIRAN@example.com", " kiran "} {
		result, err := s.auth.Login(LoginInput{Login: login, Password: "password123"})
		s.Require().NoError(err, login)
		s.Equal(s.user.ID, result.User.ID)

		user, err := s.auth.Authenticate(result.Token)
		s.Require().NoError(err)
		s.Equal(s.user.ID, user.ID)
	}
}

func (s *AuthServiceTestSuite) TestLogin_Failures() {
	_, err := s.auth.Login(LoginInput{Login: "kiran", Password: "wrong-password"})
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.auth.Login(LoginInput{Login: "nobody", Password: "password123"})
	s.ErrorIs(err, ErrInvalidCredentials)

	s.Require().NoError(s.db.Model(s.user).Update("status", models.UserStatusInactive).Error)
	_, err = s.auth.Login(LoginInput{Login: "kiran", Password: "password123"})
	s.ErrorIs(err, ErrUserInactive)
}

func (s *AuthServiceTestSuite) TestAuthenticate_RejectsBadTokens() {
	_, err := s.auth.Authenticate("not-a-token")
	s.ErrorIs(err, ErrInvalidToken)

	other := NewTokenService("other-secret", time.Hour)
	forged, _, err := other.Issue(s.user)
	s.Require().NoError(err)
	_, err = s.auth.Authenticate(forged)
	s.ErrorIs(err, ErrInvalidToken)

	expired := NewTokenService("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue(s.user)
	s.Require().NoError(err)
	_, err = s.auth.Authenticate(old)
	s.ErrorIs(err, ErrInvalidToken)

	valid, _, err := s.tokens.Issue(s.user)
	s.Require().NoError(err)
	s.Require().NoError(s.db.Model(s.user).Update("status", models.UserStatusInactive).Error)
	_, err = s.auth.Authenticate(valid)
	s.ErrorIs(err, ErrUserInactive)
}

func (s *AuthServiceTestSuite) TestChangePassword_ClearsTemporaryFlag() {
	err := s.auth.ChangePassword(ChangePasswordInput{UserID: s.user.ID, CurrentPassword: "password123", NewPassword: "short"})
	s.ErrorIs(err, ErrPasswordTooShort)

	err = s.auth.ChangePassword(ChangePasswordInput{UserID: s.user.ID, CurrentPassword: "guess", NewPassword: "newpassword1"})
	s.ErrorIs(err, ErrWrongPassword)

	s.Require().NoError(s.auth.ChangePassword(ChangePasswordInput{
		UserID:          s.user.ID,
		CurrentPassword: "password123",
		NewPassword:     "newpassword1",
	}))

	user, err := s.auth.GetUser(s.user.ID)
	s.Require().NoError(err)
	s.False(user.TempPassword)

	_, err = s.auth.Login(LoginInput{Login: "kiran", Password: "newpassword1"})
	s.NoError(err)
}

func (s *AuthServiceTestSuite) TestEnsureAdmin_CreatesOnce() {
	created, err := s.auth.EnsureAdmin("", "")
	s.Require().NoError(err)
	s.False(created)

	created, err = s.auth.EnsureAdmin("Owner@Nirmaan.in", "adminpass1")
	s.Require().NoError(err)
	s.True(created)

	created, err = s.auth.EnsureAdmin("second@nirmaan.in", "adminpass2")
	s.Require().NoError(err)
	s.False(created)

	result, err := s.auth.Login(LoginInput{Login: "owner", Password: "adminpass1"})
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, result.User.Role)
}
