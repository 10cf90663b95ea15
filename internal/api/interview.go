package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ashureev/mockinterview/internal/interview"
	"github.com/go-chi/chi/v5"
)

// MaxResumeRunes bounds the resume text kept on a session.
const MaxResumeRunes = 4000

// formOverhead is the extra body allowance for non-file form fields.
const formOverhead = 64 << 10

// InterviewHandler serves the start and next-turn endpoints.
type InterviewHandler struct {
	svc            *interview.Service
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewInterviewHandler creates an InterviewHandler. maxUploadBytes caps the resume upload.
func NewInterviewHandler(svc *interview.Service, maxUploadBytes int64, logger *slog.Logger) *InterviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InterviewHandler{svc: svc, maxUploadBytes: maxUploadBytes, logger: logger}
}

// RegisterRoutes registers interview routes.
func (h *InterviewHandler) RegisterRoutes(r chi.Router) {
	r.Post("/start", h.Start)
	r.Post("/next", h.Next)
}

type startResponse struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Persona   string `json:"persona"`
	StartedAt string `json:"started_at"`
}

// Start creates a session from a multipart or urlencoded form.
func (h *InterviewHandler) Start(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseStartForm(w, r)
	if err != nil {
		h.logger.Warn("Failed to parse start form", "error", err)
		Error(w, http.StatusBadRequest, "invalid form data")
		return
	}

	session, err := h.svc.Start(r.Context(), interview.StartRequest{
		Name:    form.fields.Get("name"),
		Email:   form.fields.Get("email"),
		Role:    form.fields.Get("role"),
		Persona: form.fields.Get("persona"),
		Resume:  form.resume,
	})
	if err != nil {
		writeServiceError(w, h.logger, "start", err)
		return
	}

	JSON(w, http.StatusOK, startResponse{
		SessionID: session.ID,
		Role:      session.Role,
		Persona:   string(session.Persona),
		StartedAt: session.StartedAt.UTC().Format(time.RFC3339Nano),
	})
}

type startForm struct {
	fields url.Values
	resume string
}

// parseStartForm streams the form so an oversize resume is dropped instead of
// failing the request. The body is drained up to twice the upload limit; past
// that, parsing stops and the fields read so far are used.
func (h *InterviewHandler) parseStartForm(w http.ResponseWriter, r *http.Request) (startForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.maxUploadBytes+formOverhead)

	mr, err := r.MultipartReader()
	if errors.Is(err, http.ErrNotMultipart) {
		if err := r.ParseForm(); err != nil {
			return startForm{}, err
		}
		return startForm{fields: r.PostForm}, nil
	}
	if err != nil {
		return startForm{}, err
	}

	form := startForm{fields: url.Values{}}
	for {
		part, err := mr.NextPart()
		// Only a bare EOF marks the closing boundary; a truncated body wraps it.
		if err == io.EOF { //nolint:errorlint
			return form, nil
		}
		if bodyTooLarge(err) {
			h.logger.Warn("Start request exceeds body limit, ignoring the rest", "error", err)
			return form, nil
		}
		if err != nil {
			return startForm{}, err
		}

		name := part.FormName()
		switch {
		case name == "resume" && part.FileName() != "":
			resume, err := h.readResume(part)
			if bodyTooLarge(err) {
				h.logger.Warn("Resume exceeds body limit, continuing without it", "filename", part.FileName())
				return form, nil
			}
			form.resume = resume
		case name != "":
			value, err := io.ReadAll(io.LimitReader(part, formOverhead))
			if bodyTooLarge(err) {
				return form, nil
			}
			if err != nil {
				return startForm{}, err
			}
			form.fields.Add(name, string(value))
		}
	}
}

// readResume returns the uploaded resume as text. A resume over the upload limit
// or one that fails to read is treated as missing.
func (h *InterviewHandler) readResume(part *multipart.Part) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, h.maxUploadBytes+1))
	if err != nil {
		if !bodyTooLarge(err) {
			h.logger.Warn("Failed to read resume, continuing without it", "filename", part.FileName(), "error", err)
		}
		return "", err
	}
	if int64(len(data)) > h.maxUploadBytes {
		h.logger.Warn("Resume exceeds upload limit, continuing without it",
			"filename", part.FileName(),
			"limit_bytes", h.maxUploadBytes,
		)
		return "", nil
	}
	return decodeResume(data), nil
}

func bodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

// decodeResume drops invalid UTF-8 and keeps at most MaxResumeRunes runes.
func decodeResume(data []byte) string {
	text := strings.ToValidUTF8(string(data), "")
	runes := []rune(text)
	if len(runes) > MaxResumeRunes {
		text = string(runes[:MaxResumeRunes])
	}
	return text
}

type nextRequest struct {
	SessionID string `json:"session_id"`
	UserText  string `json:"user_text"`
}

type nextResponse struct {
	NextQuestion string `json:"next_question,omitempty"`
	AnswerText   string `json:"answer_text,omitempty"`
	Feedback     string `json:"feedback,omitempty"`
	EndSession   bool   `json:"end_session"`
	Summary      string `json:"summary,omitempty"`
}

// Next runs one interview turn.
func (h *InterviewHandler) Next(w http.ResponseWriter, r *http.Request) {
	var req nextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := h.svc.Next(r.Context(), req.SessionID, req.UserText)
	if err != nil {
		writeServiceError(w, h.logger, "next", err)
		return
	}

	JSON(w, http.StatusOK, nextResponse{
		NextQuestion: reply.NextQuestion,
		AnswerText:   reply.AnswerText,
		Feedback:     reply.Feedback,
		EndSession:   reply.EndSession,
		Summary:      reply.Summary,
	})
}
