package controller_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/skillflow/internal/api"
	"github.com/sakif/skillflow/internal/apperror"
	"github.com/sakif/skillflow/internal/auth"
	"github.com/sakif/skillflow/internal/controller"
	"github.com/sakif/skillflow/internal/media"
	"github.com/sakif/skillflow/internal/model"
)

func validSignUp() controller.SignUpForm {
	return controller.SignUpForm{
		Username:     "ana",
		Email:        "ana@example.com",
		Password:     "climb2024",
		Confirm:      "climb2024",
		Biography:    "boulderer",
		FitnessGoals: "V5 by summer",
	}
}

func TestSignUpForm_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*controller.SignUpForm)
		wantField string
	}{
		{name: "valid", mutate: func(*controller.SignUpForm) {}},
		{name: "no username", mutate: func(f *controller.SignUpForm) { f.Username = " " }, wantField: "username"},
		{name: "bad email", mutate: func(f *controller.SignUpForm) { f.Email = "ana-at-example" }, wantField: "email"},
		{name: "short password", mutate: func(f *controller.SignUpForm) { f.Password, f.Confirm = "ab1", "ab1" }, wantField: "password"},
		{name: "long password", mutate: func(f *controller.SignUpForm) { f.Password = "abcdefghij1234567890x"; f.Confirm = f.Password }, wantField: "password"},
		{name: "no digit", mutate: func(f *controller.SignUpForm) { f.Password, f.Confirm = "abcdefgh", "abcdefgh" }, wantField: "password"},
		{name: "no letter", mutate: func(f *controller.SignUpForm) { f.Password, f.Confirm = "12345678", "12345678" }, wantField: "password"},
		{name: "mismatch", mutate: func(f *controller.SignUpForm) { f.Confirm = "climb2025" }, wantField: "confirm"},
		{name: "no goals", mutate: func(f *controller.SignUpForm) { f.FitnessGoals = "" }, wantField: "fitnessGoals"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validSignUp()
			tt.mutate(&f)
			err := f.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}

func TestSignUp_PasswordMismatchBlocksSubmission(t *testing.T) {
	e := newEnv(t)

	f := validSignUp()
	f.Confirm = "something9else"

	err := e.ctl.Auth.SignUp(context.Background(), f)
	require.ErrorIs(t, err, apperror.ErrValidation)

	assert.Empty(t, e.srv.Requests(), "no request may be issued")
	assert.Equal(t, "The two passwords that you entered do not match!", e.notes.lastError())
	assert.False(t, e.session.IsAuthenticated(context.Background()))
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	f := validSignUp()
	f.Image = &media.Source{Name: "me.png", Data: pngData}

	require.NoError(t, e.ctl.Auth.SignUp(ctx, f))

	assert.True(t, e.session.IsAuthenticated(ctx))
	u, ok := e.state.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "ana", u.Username)
	assert.Equal(t, "boulderer", u.Biography)
	assert.Contains(t, u.Image, "/files/userImages/")
	assert.Equal(t, "Welcome ana! Your account has been created.", e.notes.lastSuccess())

	uploads := e.srv.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, api.FolderUserImages, uploads[0].Folder)

	cached, err := e.session.CachedUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, u.ID, cached.ID)

	reqs := e.srv.Requests()
	require.GreaterOrEqual(t, len(reqs), 4)
	assert.Equal(t, "GET /api/users/exists/ana", reqs[0])
	assert.Equal(t, "POST /api/auth/register", reqs[1])
}

func TestSignUp_UsernameTaken(t *testing.T) {
	e := newEnv(t)
	e.otherUser("ana")
	e.srv.ResetRequests()

	err := e.ctl.Auth.SignUp(context.Background(), validSignUp())
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, "User already exists with this username", e.notes.lastError())
	assert.Zero(t, e.srv.RequestCount("POST /api/auth/register"))
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		e := newEnv(t)
		tokens := e.otherUser("ana")

		require.NoError(t, e.ctl.Auth.SignIn(ctx, "ana", "secret123"))

		id, _ := e.session.UserID(ctx)
		assert.Equal(t, tokens.UserID, id)
		u, ok := e.state.CurrentUser()
		require.True(t, ok)
		assert.Equal(t, "ana", u.Username)
		assert.Equal(t, "Welcome back!", e.notes.lastSuccess())
		assert.False(t, e.ctl.Auth.Pending())
	})

	t.Run("wrong password", func(t *testing.T) {
		e := newEnv(t)
		e.otherUser("ana")

		err := e.ctl.Auth.SignIn(ctx, "ana", "nope")
		assert.ErrorIs(t, err, apperror.ErrRequest)
		assert.Equal(t, "Invalid username or password", e.notes.lastError())
		assert.False(t, e.session.IsAuthenticated(ctx))
	})

	t.Run("empty form", func(t *testing.T) {
		e := newEnv(t)
		err := e.ctl.Auth.SignIn(ctx, "", "")
		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.Empty(t, e.srv.Requests())
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.signIn(t, "ana")

	require.NoError(t, e.ctl.Auth.Logout(ctx))

	for _, key := range []string{auth.KeyAccessToken, auth.KeyRefreshToken, auth.KeyUserID, auth.KeyCurrentUser} {
		_, ok, err := e.kv.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
	_, ok := e.state.CurrentUser()
	assert.False(t, ok)
	assert.Equal(t, "Logged out successfully", e.notes.lastSuccess())
}

func TestCompleteOAuth(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	tokens := e.otherUser("octo")

	err := e.ctl.Auth.CompleteOAuth(ctx, "http://127.0.0.1:3000/?access_token="+tokens.AccessToken+
		"&refresh_token="+tokens.RefreshToken+"&user_id="+tokens.UserID)
	require.NoError(t, err)

	u, ok := e.state.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "octo", u.Username)

	err = e.ctl.Auth.CompleteOAuth(ctx, "http://127.0.0.1:3000/?error=access_denied")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCompleteOAuthProfile(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	// The provider sign-in left a token for a server-side identity.
	bootstrap := e.otherUser("bootstrap")
	require.NoError(t, e.session.Save(ctx, bootstrap))

	err := e.ctl.Auth.CompleteOAuthProfile(ctx,
		model.OAuthRegistration{Provider: "github", ProviderID: "42", Picture: "https://avatars.test/42.png"},
		controller.ProfileForm{Username: "octo", Email: "octo@example.com", Biography: "cat", FitnessGoals: "climb"},
	)
	require.NoError(t, err)

	u, ok := e.state.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "octo", u.Username)
	assert.Equal(t, "https://avatars.test/42.png", u.Image)
	assert.Equal(t, "Welcome octo! Your profile is complete.", e.notes.lastSuccess())

	id, _ := e.session.UserID(ctx)
	assert.Equal(t, u.ID, id)
	assert.NotEqual(t, bootstrap.UserID, id)
}

func TestRestoreCachedUser(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	ok, err := e.ctl.Auth.RestoreCachedUser(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, e.session.CacheUser(ctx, model.User{ID: "u1", Username: "ana"}))
	ok, err = e.ctl.Auth.RestoreCachedUser(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	u, _ := e.state.CurrentUser()
	assert.Equal(t, "ana", u.Username)
	assert.Empty(t, e.srv.Requests())
}
