package main

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/avencic/storycircle/internal/modules/friends/commands"
	"github.com/avencic/storycircle/internal/modules/friends/queries"

	"github.com/stretchr/testify/require"
)

func sendFriendRequest(t *testing.T, from, to testUser) {
	_, err := sendAuthedRequest[commands.SendFriendRequestCommand, any](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/friends/requests"),
		http.MethodPost,
		from.cookie,
		commands.SendFriendRequestCommand{TargetID: to.ID},
		expectStatus(t, http.StatusNoContent),
	)
	require.NoError(t, err)
}

func acceptFriendRequest(t *testing.T, requester, target testUser) {
	_, err := sendAuthedRequest[commands.AcceptFriendRequestCommand, any](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/friends/requests/actions/accept"),
		http.MethodPost,
		target.cookie,
		commands.AcceptFriendRequestCommand{RequesterID: requester.ID},
		expectStatus(t, http.StatusNoContent),
	)
	require.NoError(t, err)
}

func befriend(t *testing.T, a, b testUser) {
	sendFriendRequest(t, a, b)
	acceptFriendRequest(t, a, b)
}

func listFriends(t *testing.T, user testUser) []queries.Friend {
	friends, err := sendAuthedRequest[any, []queries.Friend](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/friends"),
		http.MethodGet,
		user.cookie,
		nil,
		expectStatus(t, http.StatusOK),
	)
	require.NoError(t, err)
	return friends
}

func Test_Accepted_Friend_Request_Creates_Friendship_Both_Ways(t *testing.T) {
	// Arrange
	requester := registerAndLogin(t)
	target := registerAndLogin(t)

	// Act
	befriend(t, requester, target)

	// Assert
	requesterFriends := listFriends(t, requester)
	require.Len(t, requesterFriends, 1)
	require.Equal(t, target.ID, requesterFriends[0].UserID)

	targetFriends := listFriends(t, target)
	require.Len(t, targetFriends, 1)
	require.Equal(t, requester.ID, targetFriends[0].UserID)
}

func Test_SendFriendRequest_Returns_400_For_Self_Request(t *testing.T) {
	// Arrange
	user := registerAndLogin(t)

	// Act
	_, err := sendAuthedRequest[commands.SendFriendRequestCommand, any](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/friends/requests"),
		http.MethodPost,
		user.cookie,
		commands.SendFriendRequestCommand{TargetID: user.ID},
		expectStatus(t, http.StatusBadRequest),
	)

	// Assert
	require.NoError(t, err)
}

func Test_SendFriendRequest_Returns_409_When_Request_Already_Pending(t *testing.T) {
	// Arrange
	requester := registerAndLogin(t)
	target := registerAndLogin(t)

	sendFriendRequest(t, requester, target)

	// Act
	_, err := sendAuthedRequest[commands.SendFriendRequestCommand, any](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/friends/requests"),
		http.MethodPost,
		requester.cookie,
		commands.SendFriendRequestCommand{TargetID: target.ID},
		expectStatus(t, http.StatusConflict),
	)

	// Assert
	require.NoError(t, err)
}

func Test_Rejected_Friend_Request_Does_Not_Create_Friendship(t *testing.T) {
	// Arrange
	requester := registerAndLogin(t)
	target := registerAndLogin(t)

	sendFriendRequest(t, requester, target)

	// Act
	_, err := sendAuthedRequest[commands.RejectFriendRequestCommand, any](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/friends/requests/actions/reject"),
		http.MethodPost,
		target.cookie,
		commands.RejectFriendRequestCommand{RequesterID: requester.ID},
		expectStatus(t, http.StatusNoContent),
	)

	// Assert
	require.NoError(t, err)
	require.Empty(t, listFriends(t, requester))
	require.Empty(t, listFriends(t, target))
}
