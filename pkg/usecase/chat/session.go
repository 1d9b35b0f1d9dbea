// Package chat runs conversational turns against the LLM: it maintains the
// bounded working memory of each session, dispatches tool calls requested by
// the model and appends every turn to the durable session log.
package chat

import (
	"context"
	_ "embed"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/quill/pkg/adapter"
	"github.com/m-mizutani/quill/pkg/model"
	"github.com/m-mizutani/quill/pkg/repository"
	"github.com/m-mizutani/quill/pkg/tool"
	"github.com/m-mizutani/quill/pkg/utils/logging"
	"google.golang.org/genai"
)

//go:embed prompt/system.md
var systemPromptRaw string

// UseCase orchestrates chat turns. Turns of the same session run strictly
// one at a time; different sessions do not block each other.
type UseCase struct {
	repo       repository.Repository
	gemini     adapter.Gemini
	registry   *tool.Registry
	summarizer Summarizer
	owner      model.OwnerID

	policy  *tool.Policy    // optional dispatch gate
	storage adapter.Storage // optional transcript archive
	audit   adapter.Audit   // optional dispatch audit sink
	budget  int
	window  int
	timeout time.Duration // optional per-turn deadline

	mu       sync.Mutex
	sessions map[model.SessionID]*session
}

type session struct {
	mu     sync.Mutex
	memory *Memory
	loaded bool
}

type Option func(*UseCase)

// WithPolicy gates every tool dispatch with a Rego policy
func WithPolicy(p *tool.Policy) Option {
	return func(uc *UseCase) {
		uc.policy = p
	}
}

// WithStorage archives the full session transcript to Cloud Storage after
// each turn
func WithStorage(s adapter.Storage) Option {
	return func(uc *UseCase) {
		uc.storage = s
	}
}

// WithAudit records every tool dispatch to the audit sink
func WithAudit(a adapter.Audit) Option {
	return func(uc *UseCase) {
		uc.audit = a
	}
}

// WithTokenBudget overrides the working-set token budget
func WithTokenBudget(budget int) Option {
	return func(uc *UseCase) {
		uc.budget = budget
	}
}

// WithWindow overrides the verbatim recency window
func WithWindow(window int) Option {
	return func(uc *UseCase) {
		uc.window = window
	}
}

// WithTimeout sets a per-turn deadline. A turn that exceeds it fails with
// model.ErrModelTimeout and records nothing.
func WithTimeout(d time.Duration) Option {
	return func(uc *UseCase) {
		uc.timeout = d
	}
}

func New(repo repository.Repository, gemini adapter.Gemini, registry *tool.Registry, summarizer Summarizer, owner model.OwnerID, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:       repo,
		gemini:     gemini,
		registry:   registry,
		summarizer: summarizer,
		owner:      owner,
		budget:     DefaultTokenBudget,
		window:     DefaultWindow,
		sessions:   map[model.SessionID]*session{},
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func (uc *UseCase) session(id model.SessionID) *session {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	s, ok := uc.sessions[id]
	if !ok {
		s = &session{memory: NewMemory(uc.summarizer, uc.budget, uc.window)}
		uc.sessions[id] = s
	}
	return s
}

// Send runs a single conversational turn: the user message plus the working
// set go to the model, at most one requested tool call is dispatched, and
// the final reply text is returned. All messages of the turn are appended to
// the durable log only after the model has answered, so a failed or timed
// out turn leaves the log untouched.
func (uc *UseCase) Send(ctx context.Context, sessionID model.SessionID, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", goerr.Wrap(model.ErrValidation, "message is empty")
	}

	s := uc.session(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if uc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.timeout)
		defer cancel()
	}

	if !s.loaded {
		msgs, err := uc.repo.ListMessages(ctx, sessionID, uc.window)
		if err != nil {
			return "", goerr.Wrap(err, "failed to load session log")
		}
		s.memory.Restore(msgs)
		s.loaded = true
	}

	contents := append(s.memory.Contents(), genai.NewContentFromText(text, genai.RoleUser))

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(uc.systemPrompt(ctx), ""),
		Tools:             uc.registry.Specs(),
	}

	resp, err := uc.gemini.GenerateContent(ctx, contents, config)
	if err != nil {
		if ctx.Err() != nil {
			return "", goerr.Wrap(model.ErrModelTimeout, "model did not answer in time", goerr.V("session", sessionID))
		}
		return "", goerr.Wrap(err, "failed to generate content")
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", goerr.Wrap(model.ErrEmptyResponse, "model returned no candidates")
	}

	content := resp.Candidates[0].Content
	reply := contentText(content)
	fc := firstFunctionCall(content)

	var toolMsg *model.Message
	if fc != nil {
		result, dispatchErr := uc.dispatch(ctx, sessionID, *fc)
		if dispatchErr != nil {
			if ctx.Err() != nil {
				return "", goerr.Wrap(model.ErrModelTimeout, "tool dispatch did not finish in time", goerr.V("session", sessionID))
			}
			// The failure becomes the reply so the user sees what happened,
			// and is recorded as the tool result.
			result = "The " + fc.Name + " tool failed: " + dispatchErr.Error()
			reply = result
		} else {
			followup, ferr := uc.followUp(ctx, contents, content, config, *fc, result)
			if ferr != nil {
				return "", ferr
			}
			reply = followup
		}

		toolMsg = &model.Message{
			ID:        model.NewMessageID(),
			SessionID: sessionID,
			Role:      model.RoleSystem,
			Content:   result,
			ToolName:  fc.Name,
			CreatedAt: time.Now(),
		}
	}

	if reply == "" {
		return "", goerr.Wrap(model.ErrEmptyResponse, "model returned no reply text")
	}

	userMsg := &model.Message{
		ID:        model.NewMessageID(),
		SessionID: sessionID,
		Role:      model.RoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	}
	assistantMsg := &model.Message{
		ID:        model.NewMessageID(),
		SessionID: sessionID,
		Role:      model.RoleAssistant,
		Content:   reply,
		CreatedAt: time.Now(),
	}

	turn := []*model.Message{userMsg}
	if toolMsg != nil {
		turn = append(turn, toolMsg)
	}
	turn = append(turn, assistantMsg)

	for _, msg := range turn {
		if err := uc.repo.PutMessage(ctx, msg); err != nil {
			return "", goerr.Wrap(err, "failed to record message", goerr.V("session", sessionID))
		}
		s.memory.Append(msg)
	}

	s.memory.Fold(ctx)
	uc.archive(ctx, sessionID)

	return reply, nil
}

// followUp feeds the tool result back to the model to produce the final
// user-facing reply
func (uc *UseCase) followUp(ctx context.Context, contents []*genai.Content, modelTurn *genai.Content, config *genai.GenerateContentConfig, fc genai.FunctionCall, result string) (string, error) {
	resultContent := &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{FunctionResponse: &genai.FunctionResponse{
				Name:     fc.Name,
				Response: map[string]any{"result": result},
			}},
		},
	}

	followup := append(append(contents, modelTurn), resultContent)

	resp, err := uc.gemini.GenerateContent(ctx, followup, config)
	if err != nil {
		if ctx.Err() != nil {
			return "", goerr.Wrap(model.ErrModelTimeout, "model did not answer in time")
		}
		return "", goerr.Wrap(err, "failed to generate reply from tool result")
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", goerr.Wrap(model.ErrEmptyResponse, "model returned no candidates for tool result")
	}

	return contentText(resp.Candidates[0].Content), nil
}

// dispatch gates, executes and audits one tool call
func (uc *UseCase) dispatch(ctx context.Context, sessionID model.SessionID, fc genai.FunctionCall) (string, error) {
	start := time.Now()
	result, err := uc.runTool(ctx, fc)

	if uc.audit != nil {
		args, _ := json.Marshal(fc.Args)
		record := &adapter.AuditRecord{
			SessionID:    string(sessionID),
			ToolName:     fc.Name,
			Arguments:    string(args),
			DurationMS:   time.Since(start).Milliseconds(),
			DispatchedAt: start,
		}
		if err != nil {
			record.Error = err.Error()
		}
		if auditErr := uc.audit.Insert(ctx, record); auditErr != nil {
			logging.From(ctx).Warn("failed to insert audit record",
				"error", auditErr,
				"tool", fc.Name,
			)
		}
	}

	return result, err
}

func (uc *UseCase) runTool(ctx context.Context, fc genai.FunctionCall) (string, error) {
	if uc.policy != nil {
		allowed, err := uc.policy.Allow(ctx, &tool.PolicyInput{
			Tool:  fc.Name,
			Args:  fc.Args,
			Owner: string(uc.owner),
		})
		if err != nil {
			return "", goerr.Wrap(err, "dispatch policy evaluation failed", goerr.V("tool", fc.Name))
		}
		if !allowed {
			return "", goerr.New("dispatch denied by policy", goerr.V("tool", fc.Name))
		}
	}

	fr, err := uc.registry.Execute(ctx, fc)
	if err != nil {
		return "", err
	}

	return responseText(fr), nil
}

// archive writes the whole durable log of the session to Cloud Storage.
// Best effort: an archive failure never fails the turn.
func (uc *UseCase) archive(ctx context.Context, sessionID model.SessionID) {
	if uc.storage == nil {
		return
	}

	msgs, err := uc.repo.ListMessages(ctx, sessionID, 0)
	if err != nil {
		logging.From(ctx).Warn("failed to load session log for archive", "error", err)
		return
	}

	writer, err := uc.storage.Put(ctx, "transcripts/"+string(sessionID)+".json")
	if err != nil {
		logging.From(ctx).Warn("failed to create transcript writer", "error", err)
		return
	}

	data, err := json.Marshal(msgs)
	if err != nil {
		logging.From(ctx).Warn("failed to marshal transcript", "error", err)
		writer.Close()
		return
	}

	if _, err := writer.Write(data); err != nil {
		logging.From(ctx).Warn("failed to write transcript", "error", err)
		writer.Close()
		return
	}

	if err := writer.Close(); err != nil {
		logging.From(ctx).Warn("failed to close transcript writer", "error", err)
	}
}

func (uc *UseCase) systemPrompt(ctx context.Context) string {
	prompt := systemPromptRaw
	if guidance := uc.registry.Prompts(ctx); guidance != "" {
		prompt += "\n\n# Tool guidance\n\n" + guidance
	}
	return prompt
}

func contentText(content *genai.Content) string {
	var b strings.Builder
	for _, part := range content.Parts {
		if part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// firstFunctionCall returns the first tool call the model requested.
// Additional calls in the same turn are ignored.
func firstFunctionCall(content *genai.Content) *genai.FunctionCall {
	for _, part := range content.Parts {
		if part.FunctionCall != nil {
			return part.FunctionCall
		}
	}
	return nil
}

func responseText(fr *genai.FunctionResponse) string {
	if v, ok := fr.Response["result"].(string); ok {
		return v
	}

	raw, err := json.Marshal(fr.Response)
	if err != nil {
		return ""
	}
	return string(raw)
}
