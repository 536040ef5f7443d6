package server

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"math/rand"
	"net"
	"net/http"
	"strconv"

	"github.com/avencic/storycircle/internal/config"
	"github.com/avencic/storycircle/internal/modules/ai"
	"github.com/avencic/storycircle/internal/modules/auth"
	authcommands "github.com/avencic/storycircle/internal/modules/auth/commands"
	authdomain "github.com/avencic/storycircle/internal/modules/auth/domain"
	authqueries "github.com/avencic/storycircle/internal/modules/auth/queries"
	"github.com/avencic/storycircle/internal/modules/core"
	"github.com/avencic/storycircle/internal/modules/friends"
	friendscommands "github.com/avencic/storycircle/internal/modules/friends/commands"
	friendsqueries "github.com/avencic/storycircle/internal/modules/friends/queries"
	"github.com/avencic/storycircle/internal/modules/novel"
	novelcommands "github.com/avencic/storycircle/internal/modules/novel/commands"
	noveldomain "github.com/avencic/storycircle/internal/modules/novel/domain"
	novelqueries "github.com/avencic/storycircle/internal/modules/novel/queries"
	"github.com/avencic/storycircle/internal/modules/story"
	storycommands "github.com/avencic/storycircle/internal/modules/story/commands"
	storydomain "github.com/avencic/storycircle/internal/modules/story/domain"
	storyqueries "github.com/avencic/storycircle/internal/modules/story/queries"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/migrate-go"
	"github.com/go-chi/chi"
	_ "github.com/lib/pq"
)

type Server interface {
	Start() error
	Stop() error
}

var _ Server = &HTTPServer{}

// Compile-time checks that the concrete stores satisfy the interfaces
// the story slice consumes.
var (
	_ story.NovelStore       = (*novel.Store)(nil)
	_ story.FriendsDirectory = (*friends.Store)(nil)
	_ story.ChoiceGenerator  = (*ai.GeminiChoiceGenerator)(nil)
)

// HTTPServer acts as the composition root for the application.
type HTTPServer struct {
	server    *http.Server
	generator *ai.GeminiChoiceGenerator
}

func NewHTTPServer(config config.Config) (Server, error) {
	baseCtx := context.Background()

	db, err := sql.Open("postgres", config.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := migrate.Run(baseCtx, db, config.MigrationsPath); err != nil {
		return nil, err
	}

	requestLoggingBehavior := core.RequestLoggingBehavior{Logger: config.Logger}
	handlerErrorLoggingBehavior := core.HandlerErrorLoggingBehavior{Logger: config.Logger}
	requestValidationBehavior := core.RequestValidationBehavior{}

	mediator.RegisterPipelineBehavior(&requestLoggingBehavior)
	mediator.RegisterPipelineBehavior(&handlerErrorLoggingBehavior)
	mediator.RegisterPipelineBehavior(&requestValidationBehavior)

	novelStore := novel.NewStore()
	friendsStore := friends.NewStore()

	var generator *ai.GeminiChoiceGenerator
	if config.AI.Enabled() {
		generator, err = ai.NewGeminiChoiceGenerator(baseCtx, config.AI.APIKey, config.AI.Model, db, novelStore)
		if err != nil {
			return nil, err
		}
	}

	// handler registration

	// auth

	passwordHasher := authdomain.NewPasswordHasher(sha256.New)

	registerHandler := authcommands.NewRegisterCommandHandler(db, *passwordHasher)
	err = mediator.RegisterRequestHandler[authcommands.RegisterCommand, core.Unit](registerHandler)
	if err != nil {
		return nil, err
	}

	loginHandler := authcommands.NewLoginCommandHandler(db, *passwordHasher)
	err = mediator.RegisterRequestHandler[authcommands.LoginCommand, authcommands.LoginResponse](loginHandler)
	if err != nil {
		return nil, err
	}

	getMeHandler := authqueries.NewGetMeQueryHandler(db)
	err = mediator.RegisterRequestHandler[authqueries.GetMeQuery, authdomain.User](getMeHandler)
	if err != nil {
		return nil, err
	}

	// friends

	sendFriendRequestHandler := friendscommands.NewSendFriendRequestCommandHandler(db)
	err = mediator.RegisterRequestHandler[friendscommands.SendFriendRequestCommand, core.Unit](sendFriendRequestHandler)
	if err != nil {
		return nil, err
	}

	acceptFriendRequestHandler := friendscommands.NewAcceptFriendRequestCommandHandler(db)
	err = mediator.RegisterRequestHandler[friendscommands.AcceptFriendRequestCommand, core.Unit](acceptFriendRequestHandler)
	if err != nil {
		return nil, err
	}

	rejectFriendRequestHandler := friendscommands.NewRejectFriendRequestCommandHandler(db)
	err = mediator.RegisterRequestHandler[friendscommands.RejectFriendRequestCommand, core.Unit](rejectFriendRequestHandler)
	if err != nil {
		return nil, err
	}

	listFriendsHandler := friendsqueries.NewListFriendsQueryHandler(db)
	err = mediator.RegisterRequestHandler[friendsqueries.ListFriendsQuery, []friendsqueries.Friend](listFriendsHandler)
	if err != nil {
		return nil, err
	}

	// novels

	createNovelHandler := novelcommands.NewCreateNovelCommandHandler(db)
	err = mediator.RegisterRequestHandler[novelcommands.CreateNovelCommand, noveldomain.Novel](createNovelHandler)
	if err != nil {
		return nil, err
	}

	updateNovelHandler := novelcommands.NewUpdateNovelCommandHandler(db, novelStore)
	err = mediator.RegisterRequestHandler[novelcommands.UpdateNovelCommand, noveldomain.Novel](updateNovelHandler)
	if err != nil {
		return nil, err
	}

	addTextSegmentHandler := novelcommands.NewAddTextSegmentCommandHandler(db, novelStore)
	err = mediator.RegisterRequestHandler[novelcommands.AddTextSegmentCommand, novelcommands.AddTextSegmentResponse](addTextSegmentHandler)
	if err != nil {
		return nil, err
	}

	createCharacterHandler := novelcommands.NewCreateCharacterCommandHandler(db, novelStore)
	err = mediator.RegisterRequestHandler[novelcommands.CreateCharacterCommand, noveldomain.Character](createCharacterHandler)
	if err != nil {
		return nil, err
	}

	getNovelHandler := novelqueries.NewGetNovelQueryHandler(db, novelStore)
	err = mediator.RegisterRequestHandler[novelqueries.GetNovelQuery, noveldomain.Novel](getNovelHandler)
	if err != nil {
		return nil, err
	}

	listPublicNovelsHandler := novelqueries.NewListPublicNovelsQueryHandler(db)
	err = mediator.RegisterRequestHandler[novelqueries.ListPublicNovelsQuery, []noveldomain.Novel](listPublicNovelsHandler)
	if err != nil {
		return nil, err
	}

	listSegmentsHandler := novelqueries.NewListSegmentsQueryHandler(db)
	err = mediator.RegisterRequestHandler[novelqueries.ListSegmentsQuery, []noveldomain.TextSegment](listSegmentsHandler)
	if err != nil {
		return nil, err
	}

	listCharactersHandler := novelqueries.NewListCharactersQueryHandler(db)
	err = mediator.RegisterRequestHandler[novelqueries.ListCharactersQuery, []noveldomain.Character](listCharactersHandler)
	if err != nil {
		return nil, err
	}

	// story sessions

	createSessionHandler := storycommands.NewCreateSessionCommandHandler(db, novelStore)
	err = mediator.RegisterRequestHandler[storycommands.CreateSessionCommand, storydomain.State](createSessionHandler)
	if err != nil {
		return nil, err
	}

	invitePlayerHandler := storycommands.NewInvitePlayerCommandHandler(db)
	err = mediator.RegisterRequestHandler[storycommands.InvitePlayerCommand, core.Unit](invitePlayerHandler)
	if err != nil {
		return nil, err
	}

	joinSessionHandler := storycommands.NewJoinSessionCommandHandler(db)
	err = mediator.RegisterRequestHandler[storycommands.JoinSessionCommand, storydomain.State](joinSessionHandler)
	if err != nil {
		return nil, err
	}

	proposeChoicesHandler := storycommands.NewProposeChoicesCommandHandler(db)
	err = mediator.RegisterRequestHandler[storycommands.ProposeChoicesCommand, []storydomain.Choice](proposeChoicesHandler)
	if err != nil {
		return nil, err
	}

	castVoteHandler := storycommands.NewCastVoteCommandHandler(db, config.Logger)
	err = mediator.RegisterRequestHandler[storycommands.CastVoteCommand, core.Unit](castVoteHandler)
	if err != nil {
		return nil, err
	}

	finalizeRoundHandler := storycommands.NewFinalizeRoundCommandHandler(db, novelStore, rand.Intn)
	err = mediator.RegisterRequestHandler[storycommands.FinalizeRoundCommand, storydomain.Choice](finalizeRoundHandler)
	if err != nil {
		return nil, err
	}

	postChatMessageHandler := storycommands.NewPostChatMessageCommandHandler(db)
	err = mediator.RegisterRequestHandler[storycommands.PostChatMessageCommand, core.Unit](postChatMessageHandler)
	if err != nil {
		return nil, err
	}

	var choiceGenerator story.ChoiceGenerator
	if generator != nil {
		choiceGenerator = generator
	}

	proposeAIChoicesHandler := storycommands.NewProposeAIChoicesCommandHandler(db, choiceGenerator)
	err = mediator.RegisterRequestHandler[storycommands.ProposeAIChoicesCommand, []storydomain.Choice](proposeAIChoicesHandler)
	if err != nil {
		return nil, err
	}

	getSessionStateHandler := storyqueries.NewGetSessionStateQueryHandler(db)
	err = mediator.RegisterRequestHandler[storyqueries.GetSessionStateQuery, storydomain.State](getSessionStateHandler)
	if err != nil {
		return nil, err
	}

	listChoicesHandler := storyqueries.NewListChoicesQueryHandler(db)
	err = mediator.RegisterRequestHandler[storyqueries.ListChoicesQuery, []storydomain.Choice](listChoicesHandler)
	if err != nil {
		return nil, err
	}

	listInvitableFriendsHandler := storyqueries.NewListInvitableFriendsQueryHandler(db, friendsStore)
	err = mediator.RegisterRequestHandler[storyqueries.ListInvitableFriendsQuery, []storyqueries.InvitableFriend](listInvitableFriendsHandler)
	if err != nil {
		return nil, err
	}

	// http

	authenticated := auth.AuthenticationMiddleware(db)

	router := chi.NewRouter()
	router.Use(core.CorrelationIDHTTPMiddleware)

	router.Post("/auth/registrations", authcommands.HandleRegistration)
	router.Post("/auth/login", authcommands.HandleLogin)
	router.Post("/auth/logout", authcommands.HandleLogout)

	router.Group(func(r chi.Router) {
		r.Use(authenticated)

		r.Get("/auth/me", authqueries.HandleGetMe)

		r.Get("/friends", friendsqueries.HandleListFriends)
		r.Post("/friends/requests", friendscommands.HandleSendFriendRequest)
		r.Post("/friends/requests/actions/accept", friendscommands.HandleAcceptFriendRequest)
		r.Post("/friends/requests/actions/reject", friendscommands.HandleRejectFriendRequest)

		r.Get("/novels", novelqueries.HandleListPublicNovels)
		r.Post("/novels", novelcommands.HandleCreateNovel)
		r.Get("/novels/{id}", novelqueries.HandleGetNovel)
		r.Put("/novels/{id}", novelcommands.HandleUpdateNovel)
		r.Get("/novels/{id}/text/segments", novelqueries.HandleListSegments)
		r.Post("/novels/{id}/text/segments", novelcommands.HandleAddTextSegment)
		r.Get("/novels/{id}/characters", novelqueries.HandleListCharacters)
		r.Post("/novels/{id}/characters", novelcommands.HandleCreateCharacter)

		r.Post("/sessions", storycommands.HandleCreateSession)
		r.Get("/sessions/{id}", storyqueries.HandleGetSessionState)
		r.Post("/sessions/{id}/invitations", storycommands.HandleInvitePlayer)
		r.Put("/sessions/{id}/actions/join", storycommands.HandleJoinSession)
		r.Get("/sessions/{id}/invitable-friends", storyqueries.HandleListInvitableFriends)
		r.Get("/sessions/{id}/choices", storyqueries.HandleListChoices)
		r.Post("/sessions/{id}/choices", storycommands.HandleProposeChoices)
		r.Post("/sessions/{id}/choices/ai", storycommands.HandleProposeAIChoices)
		r.Post("/sessions/{id}/choices/actions/finalize", storycommands.HandleFinalizeRound)
		r.Post("/sessions/{id}/votes", storycommands.HandleCastVote)
		r.Post("/sessions/{id}/chat", storycommands.HandlePostChatMessage)

		r.Get("/ai/health", ai.HandleHealth(generator))
	})

	server := http.Server{
		Addr:    net.JoinHostPort("", strconv.Itoa(config.Port)),
		Handler: router,
	}

	return &HTTPServer{server: &server, generator: generator}, nil
}

func (s *HTTPServer) Start() error {
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *HTTPServer) Stop() error {
	if s.generator != nil {
		if err := s.generator.Close(); err != nil {
			return err
		}
	}

	return s.server.Close()
}
