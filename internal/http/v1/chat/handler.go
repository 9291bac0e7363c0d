package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/janisto/portfolio-builder/internal/platform/auth"
	applog "github.com/janisto/portfolio-builder/internal/platform/logging"
	"github.com/janisto/portfolio-builder/internal/platform/timeutil"
	"github.com/janisto/portfolio-builder/internal/profile"
	chatsvc "github.com/janisto/portfolio-builder/internal/service/chat"
)

var errForbidden = errors.New("session belongs to another user")

// optionalAuth lets anonymous clients in while binding sessions to the
// caller when a bearer token is sent.
var optionalAuth = []map[string][]string{
	{"bearerAuth": {}},
	{},
}

// Register registers chat endpoints.
func Register(api huma.API, assistant *chatsvc.Assistant, store chatsvc.Store, prefix string) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-chat-session",
		Method:        http.MethodPost,
		Path:          "/chat/sessions",
		Summary:       "Start a chat session",
		Description:   "Creates an empty interview session. Sessions created with a bearer token are bound to that user.",
		Tags:          []string{"Chat"},
		DefaultStatus: http.StatusCreated,
		Security:      optionalAuth,
	}, func(ctx context.Context, _ *SessionCreateInput) (*SessionCreateOutput, error) {
		session, err := store.Create(ctx, userID(ctx))
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &SessionCreateOutput{
			Location: prefix + "/chat/sessions/" + session.ID,
			Body:     toHTTPSession(session),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-chat-session",
		Method:      http.MethodGet,
		Path:        "/chat/sessions/{sessionId}",
		Summary:     "Get a chat session",
		Description: "Returns the conversation history, the accumulated profile and interview progress.",
		Tags:        []string{"Chat"},
		Security:    optionalAuth,
	}, func(ctx context.Context, input *SessionGetInput) (*SessionGetOutput, error) {
		ctx = applog.WithFields(ctx, zap.String("sessionId", input.SessionID))
		session, err := loadSession(ctx, store, input.SessionID)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &SessionGetOutput{Body: toHTTPSession(session)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-chat-session",
		Method:        http.MethodDelete,
		Path:          "/chat/sessions/{sessionId}",
		Summary:       "Clear a chat session",
		Description:   "Permanently deletes the session history and profile.",
		Tags:          []string{"Chat"},
		DefaultStatus: http.StatusNoContent,
		Security:      optionalAuth,
	}, func(ctx context.Context, input *SessionDeleteInput) (*struct{}, error) {
		ctx = applog.WithFields(ctx, zap.String("sessionId", input.SessionID))
		if _, err := loadSession(ctx, store, input.SessionID); err != nil {
			return nil, mapServiceError(ctx, err)
		}
		if err := store.Clear(ctx, input.SessionID); err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "chat-respond",
		Method:      http.MethodPost,
		Path:        "/chat/respond",
		Summary:     "Answer the interview",
		Description: "Produces the assistant reply and merges details extracted from the conversation into the profile. " +
			"With sessionId the stored history and profile are used and the turn is saved; otherwise the call is stateless.",
		Tags:     []string{"Chat"},
		Security: optionalAuth,
	}, func(ctx context.Context, input *RespondInput) (*RespondOutput, error) {
		turn := chatsvc.TurnInput{
			Message: input.Body.Message,
			Step:    input.Body.Step,
		}

		var session *chatsvc.Session
		if input.Body.SessionID != "" {
			ctx = applog.WithFields(ctx, zap.String("sessionId", input.Body.SessionID))
			var err error
			session, err = loadSession(ctx, store, input.Body.SessionID)
			if err != nil {
				return nil, mapServiceError(ctx, err)
			}
			turn.History = session.Turns
			turn.Profile = session.Profile
			turn.Step = session.CurrentStep
		} else {
			turn.History = fromHistory(input.Body.History)
			if input.Body.Profile != nil {
				turn.Profile = profile.Normalize(*input.Body.Profile)
			}
		}

		result, err := assistant.Respond(ctx, turn)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}

		reply := Reply{
			Reply:     result.Reply,
			Profile:   result.Profile,
			Step:      result.Step,
			NextStep:  result.NextStep,
			Completed: result.Completed,
			Fallback:  result.Fallback,
		}
		if session != nil {
			stored, err := persistTurn(ctx, store, session.ID, input.Body.Message, result)
			if err != nil {
				return nil, mapServiceError(ctx, err)
			}
			reply.SessionID = stored.ID
			reply.Profile = stored.Profile
			reply.Step = stored.CurrentStep - 1
			reply.NextStep = stored.CurrentStep
			reply.Completed = stored.Completed
		}
		return &RespondOutput{Body: reply}, nil
	})
}

// persistTurn records the exchange and the extracted details in one store
// write. A cancelled request stores nothing.
func persistTurn(ctx context.Context, store chatsvc.Store, id, message string, result *chatsvc.TurnResult) (*chatsvc.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return store.RecordTurn(ctx, id, chatsvc.TurnRecord{
		Turns: []chatsvc.Turn{
			{Role: chatsvc.RoleUser, Content: strings.TrimSpace(message), Timestamp: now},
			{Role: chatsvc.RoleAssistant, Content: result.Reply, Timestamp: now},
		},
		Delta: result.Delta,
	})
}

func loadSession(ctx context.Context, store chatsvc.Store, id string) (*chatsvc.Session, error) {
	session, err := store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.UserID != "" && session.UserID != userID(ctx) {
		return nil, errForbidden
	}
	return session, nil
}

func userID(ctx context.Context) string {
	if user := auth.UserFromContext(ctx); user != nil {
		return user.UID
	}
	return ""
}

func fromHistory(history []HistoryTurn) []chatsvc.Turn {
	turns := make([]chatsvc.Turn, 0, len(history))
	for _, h := range history {
		turns = append(turns, chatsvc.Turn{Role: h.Role, Content: h.Content})
	}
	return turns
}

func mapServiceError(ctx context.Context, err error) error {
	var verr *chatsvc.ValidationError
	switch {
	case errors.As(err, &verr):
		return huma.Error422UnprocessableEntity(verr.Error())
	case errors.Is(err, chatsvc.ErrSessionNotFound):
		return huma.Error404NotFound("chat session not found")
	case errors.Is(err, errForbidden):
		return huma.Error403Forbidden("chat session belongs to another user")
	case errors.Is(err, context.DeadlineExceeded):
		return huma.Error504GatewayTimeout("request timed out")
	case errors.Is(err, context.Canceled):
		applog.LogWarn(ctx, "chat request cancelled")
		return huma.Error503ServiceUnavailable("request cancelled")
	default:
		applog.LogError(ctx, "chat request failed", err, zap.String("component", "chat"))
		return huma.Error500InternalServerError("internal error")
	}
}

func toHTTPSession(s *chatsvc.Session) Session {
	turns := make([]Turn, 0, len(s.Turns))
	for _, t := range s.Turns {
		turns = append(turns, Turn{
			Role:      t.Role,
			Content:   t.Content,
			Timestamp: timeutil.NewTime(t.Timestamp),
		})
	}
	return Session{
		ID:          s.ID,
		Turns:       turns,
		Profile:     s.Profile,
		CurrentStep: s.CurrentStep,
		TotalSteps:  chatsvc.TopicCount,
		Completed:   s.Completed,
		CreatedAt:   timeutil.NewTime(s.CreatedAt),
		UpdatedAt:   timeutil.NewTime(s.UpdatedAt),
	}
}
