package main

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/avencic/storycircle/internal/modules/auth/commands"
	"github.com/avencic/storycircle/internal/modules/auth/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Register_Registers_New_User_When_Email_Unique(t *testing.T) {
	// Arrange
	command := commands.RegisterCommand{
		Email:    fmt.Sprintf("%s@tests.com", uuid.NewString()),
		Username: uuid.New().String(),
		Password: uuid.New().String(),
	}

	// Act
	_, err := sendRequest[commands.RegisterCommand, any](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/auth/registrations"),
		http.MethodPost,
		command,
		expectStatus(t, http.StatusOK),
	)

	// Assert
	require.NoError(t, err)

	user, err := tql.QuerySingle[domain.User](
		context.Background(),
		fixture.db,
		"SELECT * FROM auth.user WHERE email = $1;",
		command.Email,
	)
	require.NoError(t, err)

	require.Equal(t, command.Username, user.Username)
	require.NotEmpty(t, user.PasswordHash)
	require.NotEqual(t, command.Password, user.PasswordHash)
	require.NotEqual(t, uuid.Nil, user.SecurityStamp)
	require.False(t, user.Locked)
	require.Zero(t, user.UnsuccessfulLoginAttempts)
}

func Test_Register_Returns_409_When_Username_Taken(t *testing.T) {
	// Arrange
	existing := registerAndLogin(t)

	command := commands.RegisterCommand{
		Email:    fmt.Sprintf("%s@tests.com", uuid.NewString()),
		Username: existing.Username,
		Password: uuid.New().String(),
	}

	// Act
	_, err := sendRequest[commands.RegisterCommand, any](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/auth/registrations"),
		http.MethodPost,
		command,
		expectStatus(t, http.StatusConflict),
	)

	// Assert
	require.NoError(t, err)
}

func Test_Login_Returns_401_For_Wrong_Password(t *testing.T) {
	// Arrange
	user := registerAndLogin(t)

	command := commands.LoginCommand{
		Email:    user.Email,
		Password: "wrong-password",
	}

	// Act
	_, err := sendRequest[commands.LoginCommand, any](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/auth/login"),
		http.MethodPost,
		command,
		expectStatus(t, http.StatusUnauthorized),
	)

	// Assert
	require.NoError(t, err)
}

func Test_GetMe_Returns_Caller_Profile(t *testing.T) {
	// Arrange
	user := registerAndLogin(t)

	// Act
	me, err := sendAuthedRequest[any, domain.User](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/auth/me"),
		http.MethodGet,
		user.cookie,
		nil,
		expectStatus(t, http.StatusOK),
	)

	// Assert
	require.NoError(t, err)
	require.Equal(t, user.ID, me.ID)
	require.Equal(t, user.Username, me.Username)
}

func Test_GetMe_Returns_401_Without_Session_Cookie(t *testing.T) {
	// Act
	_, err := sendRequest[any, any](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/auth/me"),
		http.MethodGet,
		nil,
		expectStatus(t, http.StatusUnauthorized),
	)

	// Assert
	require.NoError(t, err)
}
