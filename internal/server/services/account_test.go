package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/mailer"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterVerifyLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.accounts.Register(ctx, "Ana", " Ana@Example.com", testPassword)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	u := f.user(t, id)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.False(t, u.IsEmailVerified)
	assert.NotEqual(t, testPassword, u.PasswordHash)
	require.Len(t, u.EmailVerificationOTP, 6)
	require.NotNil(t, u.EmailVerificationExpires)
	assert.Equal(t, f.clock.Now().Add(10*time.Minute), *u.EmailVerificationExpires)

	msg, ok := f.mail.Last()
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", msg.To)
	assert.Equal(t, mailer.SubjectVerification, msg.Subject)
	assert.Contains(t, msg.Text, u.EmailVerificationOTP)

	_, err = f.sessions.Login(ctx, "ana@example.com", testPassword, testClient)
	require.ErrorIs(t, err, common.ErrEmailNotVerified)

	wrong := "000000"
	if u.EmailVerificationOTP == wrong {
		wrong = "111111"
	}
	err = f.accounts.VerifyEmail(ctx, id, wrong)
	assert.ErrorIs(t, err, common.ErrCodeMismatch)
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredCode)

	require.NoError(t, f.accounts.VerifyEmail(ctx, id, u.EmailVerificationOTP))
	u = f.user(t, id)
	assert.True(t, u.IsEmailVerified)
	assert.Empty(t, u.EmailVerificationOTP)
	assert.Nil(t, u.EmailVerificationExpires)

	f.login(t, "ana@example.com", testPassword)

	assert.ErrorIs(t, f.accounts.VerifyEmail(ctx, id, "123456"), common.ErrEmailAlreadyVerified)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "ana@example.com")

	_, err := f.accounts.Register(context.Background(), "Ana", "ANA@example.com ", testPassword)
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)
	assert.Empty(t, f.mail.Sent())
}

func TestRegister_MailFailureKeepsAccount(t *testing.T) {
	f := newFixture(t)
	f.mail.Err = errors.New("smtp down")

	id, err := f.accounts.Register(context.Background(), "Ana", "ana@example.com", testPassword)
	require.ErrorIs(t, err, common.ErrUpstreamDelivery)
	require.NotEmpty(t, id)

	u := f.user(t, id)
	assert.NotEmpty(t, u.EmailVerificationOTP)
	assert.NotNil(t, u.EmailVerificationExpires)
}

func TestVerifyEmail_ExpiryWindow(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    error
	}{
		{"immediately", 0, nil},
		{"last second", 10*time.Minute - time.Second, nil},
		{"at expiry", 10 * time.Minute, common.ErrCodeExpired},
		{"after expiry", time.Hour, common.ErrCodeExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id, err := f.accounts.Register(context.Background(), "Ana", "ana@example.com", testPassword)
			require.NoError(t, err)
			otp := f.user(t, id).EmailVerificationOTP

			f.clock.Advance(tt.elapsed)
			err = f.accounts.VerifyEmail(context.Background(), id, otp)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, f.user(t, id).IsEmailVerified)
		})
	}
}

func TestVerifyEmail_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "ana@example.com", notVerified)

	assert.ErrorIs(t, f.accounts.VerifyEmail(ctx, "missing", "123456"), common.ErrorNotFound)
	assert.ErrorIs(t, f.accounts.VerifyEmail(ctx, u.ID, "123456"), common.ErrCodeMissing)
}

func TestResendVerificationOTP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.accounts.Register(ctx, "Ana", "ana@example.com", testPassword)
	require.NoError(t, err)
	first := f.user(t, id).EmailVerificationOTP

	f.clock.Advance(9 * time.Minute)
	require.NoError(t, f.accounts.ResendVerificationOTP(ctx, id))

	u := f.user(t, id)
	assert.Len(t, f.mail.Sent(), 2)
	assert.Equal(t, f.clock.Now().Add(10*time.Minute), *u.EmailVerificationExpires)

	// Only the latest code is accepted, and for its full window.
	f.clock.Advance(5 * time.Minute)
	if first != u.EmailVerificationOTP {
		assert.ErrorIs(t, f.accounts.VerifyEmail(ctx, id, first), common.ErrCodeMismatch)
	}
	require.NoError(t, f.accounts.VerifyEmail(ctx, id, u.EmailVerificationOTP))

	assert.ErrorIs(t, f.accounts.ResendVerificationOTP(ctx, id), common.ErrEmailAlreadyVerified)
}

func TestResendVerificationOTP_MailFailureKeepsCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "ana@example.com", notVerified)
	f.mail.Err = errors.New("smtp down")

	err := f.accounts.ResendVerificationOTP(ctx, u.ID)
	require.ErrorIs(t, err, common.ErrUpstreamDelivery)

	stored := f.user(t, u.ID)
	require.NotEmpty(t, stored.EmailVerificationOTP)
	assert.NoError(t, f.accounts.VerifyEmail(ctx, u.ID, stored.EmailVerificationOTP))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "ana@example.com")
	desktop := f.login(t, u.Email, testPassword)
	phone := f.loginFrom(t, u.Email, testPassword, phoneClient)

	msg, err := f.accounts.RequestPasswordReset(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, common.PasswordResetRequestedMessage, msg)

	stored := f.user(t, u.ID)
	require.Len(t, stored.PasswordResetOTP, 6)
	require.Len(t, stored.PasswordResetToken, 64)
	require.NotNil(t, stored.PasswordResetExpires)

	mail, ok := f.mail.Last()
	require.True(t, ok)
	assert.Equal(t, mailer.SubjectPasswordReset, mail.Subject)
	assert.Contains(t, mail.Text, stored.PasswordResetOTP)
	assert.NotContains(t, mail.Text, stored.PasswordResetToken)

	wrong := "000000"
	if stored.PasswordResetOTP == wrong {
		wrong = "111111"
	}
	_, err = f.accounts.VerifyResetOTP(ctx, u.Email, wrong)
	assert.ErrorIs(t, err, common.ErrCodeMismatch)

	token, err := f.accounts.VerifyResetOTP(ctx, u.Email, stored.PasswordResetOTP)
	require.NoError(t, err)
	assert.Equal(t, stored.PasswordResetToken, token)

	require.NoError(t, f.accounts.ResetPassword(ctx, token, "N3w$ecret!"))

	stored = f.user(t, u.ID)
	assert.Empty(t, stored.PasswordResetOTP)
	assert.Empty(t, stored.PasswordResetToken)
	assert.Nil(t, stored.PasswordResetExpires)

	for _, sess := range []*Session{desktop, phone} {
		_, err = f.sessions.RefreshAccessToken(ctx, sess.RefreshToken)
		assert.ErrorIs(t, err, common.ErrInvalidOrExpiredRefreshToken)
	}

	_, err = f.sessions.Login(ctx, u.Email, testPassword, testClient)
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	f.login(t, u.Email, "N3w$ecret!")

	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, token, "Another1!"), common.ErrInvalidOrExpiredCode)
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	f := newFixture(t)

	msg, err := f.accounts.RequestPasswordReset(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Equal(t, common.PasswordResetRequestedMessage, msg)
	assert.Empty(t, f.mail.Sent())
}

func TestRequestPasswordReset_MailFailureLooksTheSame(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "ana@example.com")
	f.mail.Err = errors.New("smtp down")

	msg, err := f.accounts.RequestPasswordReset(context.Background(), u.Email)
	require.NoError(t, err)
	assert.Equal(t, common.PasswordResetRequestedMessage, msg)
	assert.NotEmpty(t, f.user(t, u.ID).PasswordResetOTP)
}

func TestPasswordReset_Expiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "ana@example.com")

	_, err := f.accounts.RequestPasswordReset(ctx, u.Email)
	require.NoError(t, err)
	stored := f.user(t, u.ID)

	f.clock.Advance(10 * time.Minute)

	_, err = f.accounts.VerifyResetOTP(ctx, u.Email, stored.PasswordResetOTP)
	assert.ErrorIs(t, err, common.ErrCodeExpired)
	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, stored.PasswordResetToken, "N3w$ecret!"), common.ErrCodeExpired)

	f.login(t, u.Email, testPassword)
}

func TestVerifyResetOTP_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "ana@example.com")

	_, err := f.accounts.VerifyResetOTP(ctx, "ghost@example.com", "123456")
	assert.ErrorIs(t, err, common.ErrInvalidOrExpiredCode)

	_, err = f.accounts.VerifyResetOTP(ctx, u.Email, "123456")
	assert.ErrorIs(t, err, common.ErrCodeMissing)

	assert.ErrorIs(t, f.accounts.ResetPassword(ctx, "", "N3w$ecret!"), common.ErrInvalidOrExpiredCode)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "ana@example.com")
	sessions := []*Session{
		f.login(t, u.Email, testPassword),
		f.loginFrom(t, u.Email, testPassword, phoneClient),
	}
	require.NotEqual(t, sessions[0].RefreshToken, sessions[1].RefreshToken)

	err := f.accounts.ChangePassword(ctx, u.ID, "wrong", "N3w$ecret!")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	for _, sess := range sessions {
		_, err = f.sessions.RefreshAccessToken(ctx, sess.RefreshToken)
		require.NoError(t, err, "failed change keeps sessions")
	}

	require.NoError(t, f.accounts.ChangePassword(ctx, u.ID, testPassword, "N3w$ecret!"))

	for _, sess := range sessions {
		_, err = f.sessions.RefreshAccessToken(ctx, sess.RefreshToken)
		assert.ErrorIs(t, err, common.ErrInvalidOrExpiredRefreshToken)
	}
	f.login(t, u.Email, "N3w$ecret!")
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.addUser(t, "ana@example.com")
	f.addUser(t, "bob@example.com")

	got, err := f.accounts.UpdateProfile(ctx, u.ID, ProfileUpdate{Name: "Ana Maria"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", got.Name)
	assert.True(t, got.IsEmailVerified, "same email keeps verification")

	_, err = f.accounts.UpdateProfile(ctx, u.ID, ProfileUpdate{Email: "BOB@example.com"})
	assert.ErrorIs(t, err, common.ErrDuplicateEmail)

	got, err = f.accounts.UpdateProfile(ctx, u.ID, ProfileUpdate{Email: " Ana.New@Example.com"})
	require.NoError(t, err)
	assert.Equal(t, "ana.new@example.com", got.Email)
	assert.False(t, got.IsEmailVerified)

	profile, err := f.accounts.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana.new@example.com", profile.Email)
	assert.Equal(t, "Ana Maria", profile.Name)

	_, err = f.repos.Users().GetByEmail(ctx, "ana@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
