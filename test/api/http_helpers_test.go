package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	authcommands "github.com/avencic/storycircle/internal/modules/auth/commands"
	authdomain "github.com/avencic/storycircle/internal/modules/auth/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type responseAssertion func(*http.Response)

func expectStatus(t *testing.T, statusCode int) responseAssertion {
	return func(resp *http.Response) {
		require.Equal(t, statusCode, resp.StatusCode)
	}
}

func sendRequest[TReq any, TResp any](
	c *http.Client,
	url string,
	method string,
	req TReq,
	opts ...responseAssertion,
) (TResp, error) {
	return sendAuthedRequest[TReq, TResp](c, url, method, "", req, opts...)
}

func sendAuthedRequest[TReq any, TResp any](
	c *http.Client,
	url string,
	method string,
	sessionCookie string,
	req TReq,
	opts ...responseAssertion,
) (TResp, error) {
	var resp TResp

	payload, err := json.Marshal(req)
	if err != nil {
		return resp, err
	}

	httpReq, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		return resp, err
	}

	if sessionCookie != "" {
		httpReq.AddCookie(&http.Cookie{Name: authcommands.SessionCookieName, Value: sessionCookie})
	}

	httpResp, err := c.Do(httpReq)
	if err != nil {
		return resp, err
	}

	for _, opt := range opts {
		opt(httpResp)
	}

	if httpResp.ContentLength > 0 {
		defer func() {
			_ = httpResp.Body.Close()
		}()

		responsePayload, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return resp, err
		}

		if err := json.Unmarshal(responsePayload, &resp); err != nil {
			return resp, err
		}
	}

	return resp, err
}

type testUser struct {
	ID       uuid.UUID
	Username string
	Email    string
	cookie   string
}

// registerAndLogin registers a fresh user and returns their identity
// together with a valid session cookie.
func registerAndLogin(t *testing.T) testUser {
	registerCommand := authcommands.RegisterCommand{
		Email:    fmt.Sprintf("%s@tests.com", uuid.NewString()),
		Username: uuid.New().String(),
		Password: uuid.New().String(),
	}

	_, err := sendRequest[authcommands.RegisterCommand, any](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/auth/registrations"),
		http.MethodPost,
		registerCommand,
		expectStatus(t, http.StatusOK),
	)
	require.NoError(t, err)

	loginCommand := authcommands.LoginCommand{
		Email:    registerCommand.Email,
		Password: registerCommand.Password,
	}

	var cookie string

	_, err = sendRequest[authcommands.LoginCommand, any](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/auth/login"),
		http.MethodPost,
		loginCommand,
		func(resp *http.Response) {
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.Greater(t, len(resp.Cookies()), 0)

			for _, c := range resp.Cookies() {
				if c.Name != authcommands.SessionCookieName {
					continue
				}

				cookie = c.Value
				break
			}
		},
	)
	require.NoError(t, err)
	require.NotEmpty(t, cookie)

	user, err := tql.QuerySingle[authdomain.User](
		context.Background(),
		fixture.db,
		`SELECT * FROM auth.user WHERE email = $1;`,
		registerCommand.Email,
	)
	require.NoError(t, err)

	return testUser{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		cookie:   cookie,
	}
}
