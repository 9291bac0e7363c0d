package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/janisto/portfolio-builder/internal/llm"
	applog "github.com/janisto/portfolio-builder/internal/platform/logging"
	"github.com/janisto/portfolio-builder/internal/profile"
)

// Default call parameters.
const (
	DefaultReplyTimeout   = 20 * time.Second
	DefaultExtractTimeout = 30 * time.Second
)

var (
	defaultReplyOptions   = llm.Options{Temperature: 0.7, MaxTokens: 500}
	defaultExtractOptions = llm.Options{Temperature: 0.3, MaxTokens: 1500, JSONOnly: true}
)

// TurnInput is one user message with the conversation state it answers.
type TurnInput struct {
	Message string
	History []Turn
	Profile profile.Profile
	// Step is the step being answered. Zero derives it from the number of
	// user turns in History.
	Step int
}

// TurnResult is the outcome of a turn.
type TurnResult struct {
	Reply   string
	Profile profile.Profile
	// Delta is what the extraction call contributed, empty when it failed.
	Delta     profile.Profile
	Extracted bool
	// Fallback is set when Reply came from the fallback table; ReplyErr then
	// holds the *llm.UpstreamError of the reply call.
	Fallback  bool
	ReplyErr  error
	Step      int
	NextStep  int
	Completed bool
}

// Assistant produces replies and profile updates for interview turns.
type Assistant struct {
	completer      llm.Completer
	replyTimeout   time.Duration
	extractTimeout time.Duration
	replyOpts      llm.Options
	extractOpts    llm.Options
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithReplyTimeout bounds the reply call.
func WithReplyTimeout(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.replyTimeout = d
		}
	}
}

// WithExtractTimeout bounds the extraction call.
func WithExtractTimeout(d time.Duration) Option {
	return func(a *Assistant) {
		if d > 0 {
			a.extractTimeout = d
		}
	}
}

// WithModelParams overrides the sampling parameters of both calls. The
// extraction call always requests JSON output.
func WithModelParams(reply, extract llm.Options) Option {
	return func(a *Assistant) {
		a.replyOpts = reply
		extract.JSONOnly = true
		a.extractOpts = extract
	}
}

// NewAssistant creates an Assistant backed by completer.
func NewAssistant(completer llm.Completer, opts ...Option) *Assistant {
	a := &Assistant{
		completer:      completer,
		replyTimeout:   DefaultReplyTimeout,
		extractTimeout: DefaultExtractTimeout,
		replyOpts:      defaultReplyOptions,
		extractOpts:    defaultExtractOptions,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Respond runs the reply and extraction calls concurrently and joins them.
// Neither call cancels the other. A failed reply falls back to the step table,
// a failed extraction leaves the profile unchanged. If ctx ends before the
// join, only ctx.Err() is returned.
func (a *Assistant) Respond(ctx context.Context, in TurnInput) (*TurnResult, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, &ValidationError{Field: "message", Reason: "must not be blank"}
	}

	step := in.Step
	if step <= 0 {
		step = userTurns(in.History) + 1
	}

	var (
		reply      string
		replyErr   error
		delta      profile.Profile
		extractErr error
		g          errgroup.Group
	)
	g.Go(func() error {
		reply, replyErr = a.reply(ctx, in.History, message)
		return nil
	})
	g.Go(func() error {
		delta, extractErr = a.extract(ctx, in.History, message)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &TurnResult{
		Reply:     reply,
		Delta:     delta,
		Extracted: extractErr == nil,
		Step:      step,
		NextStep:  step + 1,
	}
	res.Completed = res.NextStep > TopicCount

	if extractErr != nil {
		applog.LogWarn(ctx, "profile extraction failed", zap.Error(extractErr), zap.Int("step", step))
		res.Delta = profile.Profile{}
	}
	res.Profile = profile.Merge(in.Profile, res.Delta)

	if replyErr != nil {
		applog.LogWarn(ctx, "assistant reply failed, using fallback",
			zap.Error(replyErr), zap.Int("step", step))
		res.Reply = fallbackReply(step, message)
		res.Fallback = true
		res.ReplyErr = replyErr
	}

	return res, nil
}

func (a *Assistant) reply(ctx context.Context, history []Turn, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.replyTimeout)
	defer cancel()

	out, err := a.completer.ChatComplete(ctx, interviewPrompt, replyMessages(history, message), a.replyOpts)
	if err != nil {
		return "", asUpstreamError(ctx, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", llm.NewUpstreamError(llm.KindUpstream, 0, llm.ErrEmptyCompletion)
	}
	return out, nil
}

func (a *Assistant) extract(ctx context.Context, history []Turn, message string) (profile.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, a.extractTimeout)
	defer cancel()

	msgs := []llm.Message{{Role: llm.RoleUser, Content: transcript(history, message)}}
	raw, err := a.completer.ChatComplete(ctx, extractionPrompt, msgs, a.extractOpts)
	if err != nil {
		return profile.Profile{}, asUpstreamError(ctx, err)
	}
	return profile.DecodeExtraction(raw)
}

// asUpstreamError ensures completer failures surface as *llm.UpstreamError.
func asUpstreamError(ctx context.Context, err error) error {
	var upstreamErr *llm.UpstreamError
	if errors.As(err, &upstreamErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return llm.NewUpstreamError(llm.KindTimeout, 0, errors.Join(llm.ErrTimeout, err))
	}
	return llm.NewUpstreamError(llm.KindUpstream, 0, errors.Join(llm.ErrUpstream, err))
}

func userTurns(history []Turn) int {
	n := 0
	for _, t := range history {
		if t.Role == RoleUser {
			n++
		}
	}
	return n
}
