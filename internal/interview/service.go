// Package interview drives mock-interview sessions: it builds prompts from
// session history, asks the model what to do next and applies the decision.
package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/mockinterview/internal/convlog"
	"github.com/ashureev/mockinterview/internal/decision"
	"github.com/ashureev/mockinterview/internal/domain"
	"github.com/ashureev/mockinterview/internal/llm"
	"github.com/ashureev/mockinterview/internal/store"
)

// TranscriptWindow is how many recent turns the model sees on each decision.
const TranscriptWindow = 12

var errEmptyCompletion = errors.New("model returned no text")

// ValidationError rejects a request before any session is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StartRequest carries the candidate details submitted when an interview begins.
type StartRequest struct {
	Name    string
	Email   string
	Role    string
	Persona string
	Resume  string
}

// Reply is the outcome of one interview turn. Exactly one of NextQuestion,
// AnswerText or Summary is set.
type Reply struct {
	NextQuestion string
	AnswerText   string
	Feedback     string
	EndSession   bool
	Summary      string
}

// Service orchestrates interview turns.
type Service struct {
	repo   store.Repository
	gen    llm.Generator
	convo  convlog.Logger
	logger *slog.Logger
}

// NewService wires a Service. A nil conversation log or logger is replaced by a no-op or default.
func NewService(repo store.Repository, gen llm.Generator, convo convlog.Logger, logger *slog.Logger) *Service {
	if convo == nil {
		convo = convlog.Nop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, gen: gen, convo: convo, logger: logger}
}

// Start validates the request, generates the opening question and creates the session
// with a greeting and that question as its first two turns.
func (s *Service) Start(ctx context.Context, req StartRequest) (*domain.Session, error) {
	role := strings.ToLower(strings.TrimSpace(req.Role))
	persona, ok := domain.ParsePersona(req.Persona)
	if !ok {
		return nil, &ValidationError{Field: "persona", Message: "invalid persona"}
	}

	firstQuestion, err := s.generate(ctx,
		firstQuestionPrompt(req.Resume, string(persona), role),
		"Generate first question.",
		firstQuestionParams,
	)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		Name:    req.Name,
		Email:   req.Email,
		Role:    role,
		Persona: persona,
		Resume:  req.Resume,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	for _, text := range []string{greeting(req.Name, role), firstQuestion} {
		if err := s.appendAgentTurn(ctx, session.ID, text); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Interview started",
		"session_id", session.ID,
		"role", role,
		"persona", persona,
		"resume_chars", len([]rune(req.Resume)),
	)
	s.convo.Log(convlog.Event{
		SessionID: session.ID,
		EventType: convlog.EventSessionStarted,
		Meta: map[string]any{
			"role":           role,
			"persona":        string(persona),
			"resume_present": session.HasResume(),
		},
	})

	return s.repo.Get(ctx, session.ID)
}

type deciderInput struct {
	Role              string `json:"role"`
	Persona           string `json:"persona"`
	ResumePresent     bool   `json:"resume_present"`
	RecentTranscript  string `json:"recent_transcript"`
	UserJustSpoke     string `json:"user_just_spoke"`
	UserAskedQuestion bool   `json:"user_asked_question"`
	Turns             int    `json:"turns"`
}

// Next runs one interview turn for sessionID with the candidate's utterance,
// which may be empty.
func (s *Service) Next(ctx context.Context, sessionID, utterance string) (Reply, error) {
	session, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return Reply{}, err
	}
	if !session.Active {
		return Reply{EndSession: true, Summary: AlreadyFinishedSummary}, nil
	}

	utterance = strings.TrimSpace(utterance)
	userIdx := -1
	if utterance != "" {
		turn := domain.Turn{Speaker: domain.SpeakerUser, Text: utterance}
		if err := s.repo.AppendTurn(ctx, sessionID, turn); err != nil {
			return Reply{}, fmt.Errorf("append user turn: %w", err)
		}
		if err := s.repo.IncrementTurns(ctx, sessionID); err != nil {
			return Reply{}, fmt.Errorf("increment turns: %w", err)
		}
		session.History = append(session.History, turn)
		session.Turns++
		userIdx = len(session.History) - 1
		s.convo.Log(convlog.Event{
			SessionID: sessionID,
			EventType: convlog.EventUserMessage,
			Speaker:   string(domain.SpeakerUser),
			Content:   utterance,
		})
	}

	window := renderWindow(session.RecentTurns(TranscriptWindow))
	asked := LooksLikeQuestion(utterance)

	payload, err := json.Marshal(deciderInput{
		Role:              session.Role,
		Persona:           string(session.Persona),
		ResumePresent:     session.HasResume(),
		RecentTranscript:  window,
		UserJustSpoke:     utterance,
		UserAskedQuestion: asked,
		Turns:             session.Turns,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("marshal decider input: %w", err)
	}

	raw, err := s.gen.Generate(ctx, deciderPrompt,
		[]llm.Message{{Role: llm.RoleUser, Content: string(payload)}},
		deciderParams,
	)
	if err != nil {
		return Reply{}, err
	}

	d, parsed := decision.Parse(raw)
	if !parsed {
		d = FallbackDecision(utterance)
		s.logger.Warn("Unparseable decision, using fallback",
			"session_id", sessionID,
			"fallback_action", d.Action,
			"raw_preview", llm.TruncateForLog(raw, 200),
		)
	}
	s.convo.Log(convlog.Event{
		SessionID: sessionID,
		EventType: convlog.EventDecision,
		Content:   string(d.Action),
		Meta: map[string]any{
			"parsed":              parsed,
			"has_content":         d.Content != "",
			"should_score":        d.ShouldScore,
			"user_asked_question": asked,
			"turns":               session.Turns,
		},
	})

	switch d.Action {
	case domain.ActionAnswerUser:
		return s.answerUser(ctx, session, d, utterance)
	case domain.ActionAskFollowup:
		return s.askFollowup(ctx, session, d, window, utterance, userIdx)
	case domain.ActionAskNewTopic:
		return s.askNewTopic(ctx, session, d, window)
	case domain.ActionEndSession:
		return s.endSession(ctx, session)
	default:
		if err := s.appendAgentTurn(ctx, sessionID, ClarificationMessage); err != nil {
			return Reply{}, err
		}
		return Reply{NextQuestion: ClarificationMessage}, nil
	}
}

func (s *Service) answerUser(ctx context.Context, session *domain.Session, d domain.Decision, utterance string) (Reply, error) {
	content := d.Content
	if content == "" {
		answer, err := s.generate(ctx, answerPrompt(string(session.Persona), utterance), utterance, answerParams)
		if err != nil {
			return Reply{}, err
		}
		content = answer
	}
	if err := s.appendAgentTurn(ctx, session.ID, content); err != nil {
		return Reply{}, err
	}
	return Reply{AnswerText: content}, nil
}

func (s *Service) askFollowup(ctx context.Context, session *domain.Session, d domain.Decision, window, utterance string, userIdx int) (Reply, error) {
	content := d.Content
	if content == "" {
		q, err := s.generate(ctx,
			followupPrompt(string(session.Persona), session.HasResume(), window),
			"Generate one follow-up question.",
			questionParams,
		)
		if err != nil {
			return Reply{}, err
		}
		content = firstLine(q)
	}

	// Score before recording the follow-up so a failed evaluation leaves no agent turn behind.
	reply := Reply{NextQuestion: content}
	if d.ShouldScore && utterance != "" {
		question := session.LastAgentTurnBefore(userIdx)
		score, err := ScoreLastAnswer(ctx, s.gen, question, utterance)
		if err != nil {
			return Reply{}, err
		}
		if score.Value != nil {
			s.logger.Info("Answer scored", "session_id", session.ID, "score", *score.Value)
		}
		if score.Feedback != nil {
			reply.Feedback = *score.Feedback
		}
	}

	if err := s.appendAgentTurn(ctx, session.ID, content); err != nil {
		return Reply{}, err
	}
	return reply, nil
}

func (s *Service) askNewTopic(ctx context.Context, session *domain.Session, d domain.Decision, window string) (Reply, error) {
	content := d.Content
	if content == "" {
		q, err := s.generate(ctx,
			newTopicPrompt(session.Role, string(session.Persona), window),
			"Generate new topic question.",
			questionParams,
		)
		if err != nil {
			return Reply{}, err
		}
		content = firstLine(q)
	}
	if err := s.appendAgentTurn(ctx, session.ID, content); err != nil {
		return Reply{}, err
	}
	return Reply{NextQuestion: content}, nil
}

func (s *Service) endSession(ctx context.Context, session *domain.Session) (Reply, error) {
	summary, err := s.generate(ctx, summaryPrompt, renderFull(session.History), summaryParams)
	if err != nil {
		s.logger.Warn("Summary generation failed, using fixed closing message",
			"session_id", session.ID,
			"error", err,
		)
		summary = SummaryUnavailable
	}

	if err := s.repo.SetActive(ctx, session.ID, false); err != nil {
		return Reply{}, fmt.Errorf("end session: %w", err)
	}
	if err := s.appendAgentTurn(ctx, session.ID, EndedMarker); err != nil {
		return Reply{}, err
	}

	s.logger.Info("Interview ended", "session_id", session.ID, "turns", session.Turns)
	s.convo.Log(convlog.Event{
		SessionID: session.ID,
		EventType: convlog.EventSessionEnded,
		Content:   summary,
		Meta:      map[string]any{"turns": session.Turns},
	})
	return Reply{EndSession: true, Summary: summary}, nil
}

// generate runs a single-message completion and rejects blank output so no
// empty agent turn is ever stored.
func (s *Service) generate(ctx context.Context, system, user string, params llm.Params) (string, error) {
	text, err := s.gen.Generate(ctx, system, []llm.Message{{Role: llm.RoleUser, Content: user}}, params)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &llm.UpstreamError{Err: errEmptyCompletion}
	}
	return text, nil
}

func (s *Service) appendAgentTurn(ctx context.Context, sessionID, text string) error {
	if err := s.repo.AppendTurn(ctx, sessionID, domain.Turn{Speaker: domain.SpeakerAgent, Text: text}); err != nil {
		return fmt.Errorf("append agent turn: %w", err)
	}
	s.convo.Log(convlog.Event{
		SessionID: sessionID,
		EventType: convlog.EventAgentMessage,
		Speaker:   string(domain.SpeakerAgent),
		Content:   text,
	})
	return nil
}

// renderWindow formats turns as "SPEAKER: text" lines for the decision prompt.
func renderWindow(turns []domain.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(strings.ToUpper(string(t.Speaker)))
		b.WriteString(": ")
		b.WriteString(t.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// renderFull formats the whole history for the closing summary.
func renderFull(turns []domain.Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, string(t.Speaker)+": "+t.Text)
	}
	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
