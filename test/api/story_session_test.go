package main

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	storycommands "github.com/avencic/storycircle/internal/modules/story/commands"
	storydomain "github.com/avencic/storycircle/internal/modules/story/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func createSession(t *testing.T, host testUser, novelID uuid.UUID) storydomain.State {
	state, err := sendAuthedRequest[storycommands.CreateSessionCommand, storydomain.State](
		fixture.client,
		fmt.Sprintf("%s%s", fixture.baseURL, "/sessions"),
		http.MethodPost,
		host.cookie,
		storycommands.CreateSessionCommand{NovelID: novelID},
		expectStatus(t, http.StatusCreated),
	)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, state.ID)
	require.Contains(t, state.Players, host.ID)

	return state
}

func invitePlayer(t *testing.T, host testUser, sessionID uuid.UUID, target testUser, assertions ...responseAssertion) {
	if len(assertions) == 0 {
		assertions = []responseAssertion{expectStatus(t, http.StatusNoContent)}
	}

	_, err := sendAuthedRequest[storycommands.InvitePlayerCommand, any](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s/invitations", fixture.baseURL, sessionID),
		http.MethodPost,
		host.cookie,
		storycommands.InvitePlayerCommand{TargetID: target.ID},
		assertions...,
	)
	require.NoError(t, err)
}

func joinSession(t *testing.T, user testUser, sessionID uuid.UUID) storydomain.State {
	state, err := sendAuthedRequest[any, storydomain.State](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s/actions/join", fixture.baseURL, sessionID),
		http.MethodPut,
		user.cookie,
		nil,
		expectStatus(t, http.StatusOK),
	)
	require.NoError(t, err)

	return state
}

func proposeChoices(t *testing.T, user testUser, sessionID uuid.UUID, contents ...string) []storydomain.Choice {
	choices, err := sendAuthedRequest[storycommands.ProposeChoicesCommand, []storydomain.Choice](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s/choices", fixture.baseURL, sessionID),
		http.MethodPost,
		user.cookie,
		storycommands.ProposeChoicesCommand{Contents: contents},
		expectStatus(t, http.StatusOK),
	)
	require.NoError(t, err)
	require.Len(t, choices, len(contents))

	return choices
}

func castVote(t *testing.T, user testUser, sessionID, choiceID uuid.UUID, assertions ...responseAssertion) {
	if len(assertions) == 0 {
		assertions = []responseAssertion{expectStatus(t, http.StatusNoContent)}
	}

	_, err := sendAuthedRequest[storycommands.CastVoteCommand, any](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s/votes", fixture.baseURL, sessionID),
		http.MethodPost,
		user.cookie,
		storycommands.CastVoteCommand{ChoiceID: choiceID},
		assertions...,
	)
	require.NoError(t, err)
}

func getSessionState(t *testing.T, user testUser, sessionID uuid.UUID) storydomain.State {
	state, err := sendAuthedRequest[any, storydomain.State](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s", fixture.baseURL, sessionID),
		http.MethodGet,
		user.cookie,
		nil,
		expectStatus(t, http.StatusOK),
	)
	require.NoError(t, err)

	return state
}

// waitForRound polls until the session reaches the wanted round.
// Finalization triggered by the last vote runs in the background.
func waitForRound(t *testing.T, user testUser, sessionID uuid.UUID, round int64) storydomain.State {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		state := getSessionState(t, user, sessionID)
		if state.Round >= round {
			return state
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatalf("session %s did not reach round %d in time", sessionID, round)
	return storydomain.State{}
}

func Test_Full_Round_Vote_Completion_Appends_Winning_Choice_To_Novel(t *testing.T) {
	// Arrange
	host := registerAndLogin(t)
	guest := registerAndLogin(t)

	novel := createNovel(t, host)
	session := createSession(t, host, novel.ID)

	invitePlayer(t, host, session.ID, guest)
	joined := joinSession(t, guest, session.ID)
	require.Len(t, joined.Players, 2)
	require.Empty(t, joined.Invited)

	choices := proposeChoices(t, host, session.ID,
		"The tide pulled back far beyond the rocks.",
		"A second light answered from the open water.",
	)
	winning := choices[1]

	// Act
	castVote(t, host, session.ID, winning.ID)
	castVote(t, guest, session.ID, winning.ID)

	// Assert
	state := waitForRound(t, host, session.ID, 1)

	require.Empty(t, state.Votes)

	remaining, err := sendAuthedRequest[any, []storydomain.Choice](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s/choices", fixture.baseURL, session.ID),
		http.MethodGet,
		host.cookie,
		nil,
		expectStatus(t, http.StatusOK),
	)
	require.NoError(t, err)
	require.Empty(t, remaining)

	segments := listSegments(t, host, novel.ID)
	require.Len(t, segments, 1)
	require.Equal(t, winning.Content, segments[0].Content)

	require.NotEmpty(t, state.Chat)
	announcement := state.Chat[len(state.Chat)-1]
	require.Nil(t, announcement.UserID)
	require.Contains(t, announcement.Message, winning.Content)
	require.Contains(t, announcement.Message, "2 votes")
}

func Test_Manual_Finalize_Picks_Leading_Choice_Without_Full_Ballot(t *testing.T) {
	// Arrange
	host := registerAndLogin(t)
	guest := registerAndLogin(t)

	novel := createNovel(t, host)
	session := createSession(t, host, novel.ID)

	invitePlayer(t, host, session.ID, guest)
	joinSession(t, guest, session.ID)

	choices := proposeChoices(t, host, session.ID, "She closed the door.", "She waited for morning.")
	castVote(t, host, session.ID, choices[0].ID)

	// Act
	winner, err := sendAuthedRequest[any, storydomain.Choice](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s/choices/actions/finalize", fixture.baseURL, session.ID),
		http.MethodPost,
		guest.cookie,
		nil,
		expectStatus(t, http.StatusOK),
	)

	// Assert
	require.NoError(t, err)
	require.Equal(t, choices[0].ID, winner.ID)

	state := getSessionState(t, host, session.ID)
	require.Equal(t, int64(1), state.Round)

	segments := listSegments(t, host, novel.ID)
	require.Len(t, segments, 1)
	require.Equal(t, choices[0].Content, segments[0].Content)
}

func Test_Finalize_Returns_400_When_No_Votes_Cast(t *testing.T) {
	// Arrange
	host := registerAndLogin(t)
	novel := createNovel(t, host)
	session := createSession(t, host, novel.ID)

	proposeChoices(t, host, session.ID, "An unvoted option.")

	// Act
	_, err := sendAuthedRequest[any, any](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s/choices/actions/finalize", fixture.baseURL, session.ID),
		http.MethodPost,
		host.cookie,
		nil,
		expectStatus(t, http.StatusBadRequest),
	)

	// Assert
	require.NoError(t, err)
}

func Test_Concurrent_Finalize_Appends_Winner_Exactly_Once(t *testing.T) {
	// Arrange
	host := registerAndLogin(t)
	novel := createNovel(t, host)
	session := createSession(t, host, novel.ID)

	choices := proposeChoices(t, host, session.ID, "Only one of these lands.")
	castVote(t, host, session.ID, choices[0].ID)

	// Act
	const racers = 5
	statuses := make([]int, racers)
	errs := make([]error, racers)

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = sendAuthedRequest[any, any](
				fixture.client,
				fmt.Sprintf("%s/sessions/%s/choices/actions/finalize", fixture.baseURL, session.ID),
				http.MethodPost,
				host.cookie,
				nil,
				func(resp *http.Response) { statuses[i] = resp.StatusCode },
			)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	// Assert
	succeeded := 0
	for _, status := range statuses {
		if status == http.StatusOK {
			succeeded++
		} else {
			require.Equal(t, http.StatusBadRequest, status)
		}
	}
	require.Equal(t, 1, succeeded)

	segments := listSegments(t, host, novel.ID)
	require.Len(t, segments, 1)

	state := getSessionState(t, host, session.ID)
	require.Equal(t, int64(1), state.Round)
}

func Test_Invite_Returns_409_When_Capacity_Would_Be_Exceeded(t *testing.T) {
	// Arrange
	host := registerAndLogin(t)
	novel := createNovel(t, host)
	session := createSession(t, host, novel.ID)

	for i := 0; i < storydomain.MaxPlayers-1; i++ {
		invitePlayer(t, host, session.ID, registerAndLogin(t))
	}

	// Act / Assert
	invitePlayer(t, host, session.ID, registerAndLogin(t), expectStatus(t, http.StatusConflict))
}

func Test_Concurrent_Invite_And_Join_Burst_Never_Overcommits_Capacity(t *testing.T) {
	// Arrange
	host := registerAndLogin(t)
	novel := createNovel(t, host)
	session := createSession(t, host, novel.ID)

	const contenders = 6
	targets := make([]testUser, contenders)
	for i := range targets {
		targets[i] = registerAndLogin(t)
	}

	// Act
	inviteStatuses := make([]int, contenders)
	inviteErrs := make([]error, contenders)

	var invites sync.WaitGroup
	for i := 0; i < contenders; i++ {
		invites.Add(1)
		go func(i int) {
			defer invites.Done()
			_, inviteErrs[i] = sendAuthedRequest[storycommands.InvitePlayerCommand, any](
				fixture.client,
				fmt.Sprintf("%s/sessions/%s/invitations", fixture.baseURL, session.ID),
				http.MethodPost,
				host.cookie,
				storycommands.InvitePlayerCommand{TargetID: targets[i].ID},
				func(resp *http.Response) { inviteStatuses[i] = resp.StatusCode },
			)
		}(i)
	}
	invites.Wait()

	for _, err := range inviteErrs {
		require.NoError(t, err)
	}

	invited := make([]testUser, 0, contenders)
	for i, status := range inviteStatuses {
		if status == http.StatusNoContent {
			invited = append(invited, targets[i])
		} else {
			require.Equal(t, http.StatusConflict, status)
		}
	}
	require.Len(t, invited, storydomain.MaxPlayers-1)

	joinStatuses := make([]int, len(invited))
	joinErrs := make([]error, len(invited))

	var joins sync.WaitGroup
	for i := range invited {
		joins.Add(1)
		go func(i int) {
			defer joins.Done()
			_, joinErrs[i] = sendAuthedRequest[any, storydomain.State](
				fixture.client,
				fmt.Sprintf("%s/sessions/%s/actions/join", fixture.baseURL, session.ID),
				http.MethodPut,
				invited[i].cookie,
				nil,
				func(resp *http.Response) { joinStatuses[i] = resp.StatusCode },
			)
		}(i)
	}
	joins.Wait()

	// Assert
	for i := range invited {
		require.NoError(t, joinErrs[i])
		require.Equal(t, http.StatusOK, joinStatuses[i])
	}

	state := getSessionState(t, host, session.ID)
	require.Len(t, state.Players, storydomain.MaxPlayers)
	require.Empty(t, state.Invited)
}

func Test_Invite_Returns_403_When_Caller_Is_Not_Host(t *testing.T) {
	// Arrange
	host := registerAndLogin(t)
	guest := registerAndLogin(t)
	outsider := registerAndLogin(t)

	novel := createNovel(t, host)
	session := createSession(t, host, novel.ID)

	invitePlayer(t, host, session.ID, guest)
	joinSession(t, guest, session.ID)

	// Act / Assert
	invitePlayer(t, guest, session.ID, outsider, expectStatus(t, http.StatusForbidden))
}

func Test_Join_Returns_403_Without_Invite(t *testing.T) {
	// Arrange
	host := registerAndLogin(t)
	outsider := registerAndLogin(t)

	novel := createNovel(t, host)
	session := createSession(t, host, novel.ID)

	// Act
	_, err := sendAuthedRequest[any, any](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s/actions/join", fixture.baseURL, session.ID),
		http.MethodPut,
		outsider.cookie,
		nil,
		expectStatus(t, http.StatusForbidden),
	)

	// Assert
	require.NoError(t, err)
}

func Test_CastVote_Returns_403_For_Non_Player(t *testing.T) {
	// Arrange
	host := registerAndLogin(t)
	outsider := registerAndLogin(t)

	novel := createNovel(t, host)
	session := createSession(t, host, novel.ID)

	choices := proposeChoices(t, host, session.ID, "Not for outsiders.")

	// Act / Assert
	castVote(t, outsider, session.ID, choices[0].ID, expectStatus(t, http.StatusForbidden))
}

func Test_CastVote_Returns_404_For_Choice_From_Another_Session(t *testing.T) {
	// Arrange
	host := registerAndLogin(t)
	novel := createNovel(t, host)
	session := createSession(t, host, novel.ID)

	otherSession := createSession(t, host, novel.ID)
	otherChoices := proposeChoices(t, host, otherSession.ID, "Wrong ballot.")

	// Act / Assert
	castVote(t, host, session.ID, otherChoices[0].ID, expectStatus(t, http.StatusNotFound))
}

func Test_Revote_Replaces_Previous_Vote(t *testing.T) {
	// Arrange
	host := registerAndLogin(t)
	guest := registerAndLogin(t)

	novel := createNovel(t, host)
	session := createSession(t, host, novel.ID)

	invitePlayer(t, host, session.ID, guest)
	joinSession(t, guest, session.ID)

	choices := proposeChoices(t, host, session.ID, "First option.", "Second option.")

	// Act
	castVote(t, host, session.ID, choices[0].ID)
	castVote(t, host, session.ID, choices[1].ID)

	// Assert
	state := getSessionState(t, host, session.ID)
	require.Equal(t, choices[1].ID, state.Votes[host.ID])
	require.Len(t, state.Votes, 1)
}

func Test_GetSessionState_Returns_403_For_Non_Member(t *testing.T) {
	// Arrange
	host := registerAndLogin(t)
	outsider := registerAndLogin(t)

	novel := createNovel(t, host)
	session := createSession(t, host, novel.ID)

	// Act
	_, err := sendAuthedRequest[any, any](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s", fixture.baseURL, session.ID),
		http.MethodGet,
		outsider.cookie,
		nil,
		expectStatus(t, http.StatusForbidden),
	)

	// Assert
	require.NoError(t, err)
}

func Test_GetSessionState_Is_Readable_By_Invited_User(t *testing.T) {
	// Arrange
	host := registerAndLogin(t)
	invitee := registerAndLogin(t)

	novel := createNovel(t, host)
	session := createSession(t, host, novel.ID)
	invitePlayer(t, host, session.ID, invitee)

	// Act
	// An invitee reads the roster before deciding whether to join.
	state := getSessionState(t, invitee, session.ID)

	// Assert
	require.Equal(t, session.ID, state.ID)
	require.Contains(t, state.Invited, invitee.ID)
	require.NotContains(t, state.Players, invitee.ID)
}

func Test_Chat_Preserves_Append_Order(t *testing.T) {
	// Arrange
	host := registerAndLogin(t)
	guest := registerAndLogin(t)

	novel := createNovel(t, host)
	session := createSession(t, host, novel.ID)

	invitePlayer(t, host, session.ID, guest)
	joinSession(t, guest, session.ID)

	messages := []string{"ready when you are", "give me a second", "ok, voting now"}
	senders := []testUser{host, guest, host}

	// Act
	for i, message := range messages {
		_, err := sendAuthedRequest[storycommands.PostChatMessageCommand, any](
			fixture.client,
			fmt.Sprintf("%s/sessions/%s/chat", fixture.baseURL, session.ID),
			http.MethodPost,
			senders[i].cookie,
			storycommands.PostChatMessageCommand{Message: message},
			expectStatus(t, http.StatusNoContent),
		)
		require.NoError(t, err)
	}

	// Assert
	state := getSessionState(t, host, session.ID)
	require.Len(t, state.Chat, len(messages))
	for i, entry := range state.Chat {
		require.Equal(t, messages[i], entry.Message)
		require.NotNil(t, entry.UserID)
		require.Equal(t, senders[i].ID, *entry.UserID)
	}
}

func Test_ListInvitableFriends_Excludes_Seated_And_Invited_Users(t *testing.T) {
	// Arrange
	host := registerAndLogin(t)
	seated := registerAndLogin(t)
	invited := registerAndLogin(t)
	available := registerAndLogin(t)

	befriend(t, host, seated)
	befriend(t, host, invited)
	befriend(t, host, available)

	novel := createNovel(t, host)
	session := createSession(t, host, novel.ID)

	invitePlayer(t, host, session.ID, seated)
	joinSession(t, seated, session.ID)
	invitePlayer(t, host, session.ID, invited)

	// Act
	type invitableFriend struct {
		UserID   uuid.UUID `json:"user_id"`
		Username string    `json:"username"`
	}

	invitable, err := sendAuthedRequest[any, []invitableFriend](
		fixture.client,
		fmt.Sprintf("%s/sessions/%s/invitable-friends", fixture.baseURL, session.ID),
		http.MethodGet,
		host.cookie,
		nil,
		expectStatus(t, http.StatusOK),
	)

	// Assert
	require.NoError(t, err)
	require.Len(t, invitable, 1)
	require.Equal(t, available.ID, invitable[0].UserID)
}
