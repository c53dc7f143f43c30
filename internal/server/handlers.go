package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mixingo/mixingo/internal/advisor"
	"github.com/mixingo/mixingo/internal/curriculum"
	"github.com/mixingo/mixingo/internal/demo"
	"github.com/mixingo/mixingo/internal/exercises"
	"github.com/mixingo/mixingo/internal/heatmap"
	"github.com/mixingo/mixingo/internal/session"
	"github.com/mixingo/mixingo/internal/signals"
)

const maxBodyBytes = 1 << 20

// Analyzer produces a curriculum transfer map. *advisor.Advisor implements it.
type Analyzer interface {
	Analyze(ctx context.Context, summary signals.Summary, profile curriculum.Profile) advisor.Result
}

// ExerciseGenerator produces module practice sets. *exercises.Generator
// implements it.
type ExerciseGenerator interface {
	Generate(ctx context.Context, moduleID string, summary *signals.Summary) (*exercises.Set, error)
}

// API holds the handler dependencies.
type API struct {
	catalog   *curriculum.Catalog
	sessions  session.Store
	advisor   Analyzer
	exercises ExerciseGenerator
	logger    *slog.Logger
	now       func() time.Time
}

func NewAPI(catalog *curriculum.Catalog, sessions session.Store, a Analyzer, g ExerciseGenerator, logger *slog.Logger) *API {
	if catalog == nil {
		catalog = curriculum.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		catalog:   catalog,
		sessions:  sessions,
		advisor:   a,
		exercises: g,
		logger:    logger,
		now:       time.Now,
	}
}

// answerPayload uses pointers so missing fields can be told from zero values.
type answerPayload struct {
	QuestionID string   `json:"question_id"`
	Answer     string   `json:"answer"`
	TimeTaken  *float64 `json:"time_taken"`
	Correct    *bool    `json:"correct"`
	Category   string   `json:"category"`
}

type warmupRequest struct {
	UserID  string          `json:"user_id"`
	Answers []answerPayload `json:"answers"`
}

type warmupResponse struct {
	UserID  string          `json:"user_id"`
	Signals signals.Summary `json:"signals"`
}

func (req warmupRequest) validate() ([]signals.Answer, error) {
	if req.Answers == nil {
		return nil, fmt.Errorf("answers is required")
	}
	out := make([]signals.Answer, 0, len(req.Answers))
	for i, a := range req.Answers {
		switch {
		case a.QuestionID == "":
			return nil, fmt.Errorf("answers[%d]: question_id is required", i)
		case a.Category == "":
			return nil, fmt.Errorf("answers[%d]: category is required", i)
		case a.TimeTaken == nil:
			return nil, fmt.Errorf("answers[%d]: time_taken is required", i)
		case *a.TimeTaken < 0:
			return nil, fmt.Errorf("answers[%d]: time_taken must not be negative", i)
		case a.Correct == nil:
			return nil, fmt.Errorf("answers[%d]: correct is required", i)
		}
		out = append(out, signals.Answer{
			QuestionID: a.QuestionID,
			Answer:     a.Answer,
			TimeTaken:  *a.TimeTaken,
			Correct:    *a.Correct,
			Category:   a.Category,
		})
	}
	return out, nil
}

// SubmitWarmup records a warm-up quiz and returns the derived signals. A
// blank user_id starts a new session.
func (a *API) SubmitWarmup(w http.ResponseWriter, r *http.Request) {
	var req warmupRequest
	if !a.decode(w, r, &req) {
		return
	}
	answers, err := req.validate()
	if err != nil {
		writeBadRequest(w, r, err.Error())
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = uuid.NewString()
	}

	profile := curriculum.DefaultProfile()
	prev, err := a.sessions.Get(r.Context(), userID)
	switch {
	case err == nil:
		profile = prev.Profile
	case !errors.Is(err, session.ErrNotFound):
		writeInternal(w, r, a.logger, fmt.Errorf("load session: %w", err))
		return
	}

	summary := signals.Compute(answers)
	sess := &session.Session{
		UserID:    userID,
		Profile:   profile,
		Signals:   summary,
		Answers:   answers,
		UpdatedAt: a.now().UTC(),
	}
	if err := a.sessions.Put(r.Context(), sess); err != nil {
		writeInternal(w, r, a.logger, fmt.Errorf("save session: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, warmupResponse{UserID: userID, Signals: summary})
}

type analyzeRequest struct {
	UserID string `json:"user_id"`
}

// AnalyzeCTM builds the curriculum transfer map for a submitted warm-up.
// The X-CTM-Outcome header tells a generated map from the fallback.
func (a *API) AnalyzeCTM(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeBadRequest(w, r, "user_id is required")
		return
	}

	sess, err := a.sessions.Get(r.Context(), req.UserID)
	if errors.Is(err, session.ErrNotFound) {
		writeNotFound(w, r, "User session not found")
		return
	}
	if err != nil {
		writeInternal(w, r, a.logger, fmt.Errorf("load session: %w", err))
		return
	}

	res := a.advisor.Analyze(r.Context(), sess.Signals, sess.Profile)

	body, err := json.Marshal(res.CTM)
	if err != nil {
		writeInternal(w, r, a.logger, fmt.Errorf("encode ctm: %w", err))
		return
	}
	sess.CTM = body
	sess.UpdatedAt = a.now().UTC()
	if err := a.sessions.Put(r.Context(), sess); err != nil {
		// The map is still useful to the caller; it just won't be cached.
		a.logger.WarnContext(r.Context(), "failed to store ctm on session", "user_id", sess.UserID, "error", err)
	}

	w.Header().Set("X-CTM-Outcome", string(res.Outcome))
	if res.Degraded() {
		w.Header().Set("X-CTM-Reason", res.Reason)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(body, '\n'))
}

type exerciseRequest struct {
	ModuleID string `json:"module_id"`
	UserID   string `json:"user_id"`
}

// GenerateExercises returns a practice set for a module, personalised with
// the user's warm-up signals when a session exists.
func (a *API) GenerateExercises(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.ModuleID == "" {
		writeBadRequest(w, r, "module_id is required")
		return
	}

	var summary *signals.Summary
	if req.UserID != "" {
		sess, err := a.sessions.Get(r.Context(), req.UserID)
		switch {
		case err == nil:
			summary = &sess.Signals
		case !errors.Is(err, session.ErrNotFound):
			a.logger.WarnContext(r.Context(), "session lookup failed, generating without signals",
				"user_id", req.UserID, "error", err)
		}
	}

	set, err := a.exercises.Generate(r.Context(), req.ModuleID, summary)
	if errors.Is(err, exercises.ErrUnknownModule) {
		writeNotFound(w, r, fmt.Sprintf("unknown module %q", req.ModuleID))
		return
	}
	if err != nil {
		writeInternal(w, r, a.logger, err)
		return
	}

	outcome := advisor.OutcomeSuccess
	if set.Degraded {
		outcome = advisor.OutcomeDegraded
	}
	w.Header().Set("X-Exercises-Outcome", string(outcome))
	writeJSON(w, http.StatusOK, set)
}

var demoFiles = map[string]string{
	"profile":   demo.ProfileFile,
	"ctm":       demo.CTMFile,
	"exercises": demo.ExercisesFile,
}

// Demo serves one of the canned payloads.
func (a *API) Demo(w http.ResponseWriter, r *http.Request) {
	file, ok := demoFiles[r.PathValue("name")]
	if !ok {
		writeNotFound(w, r, fmt.Sprintf("no demo payload %q", r.PathValue("name")))
		return
	}
	raw, err := demo.Raw(file)
	if err != nil {
		writeInternal(w, r, a.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (a *API) ListModules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.catalog.Modules())
}

func (a *API) GetModule(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m, ok := a.catalog.Module(id)
	if !ok {
		writeNotFound(w, r, fmt.Sprintf("unknown module %q", id))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type heatmapRequest struct {
	Signals *signals.Summary `json:"signals"`
}

type heatmapResponse struct {
	Heatmap []heatmap.Item `json:"heatmap"`
}

// PreviewHeatmap derives the heatmap for the given signals without touching
// any session.
func (a *API) PreviewHeatmap(w http.ResponseWriter, r *http.Request) {
	var req heatmapRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.Signals == nil {
		writeBadRequest(w, r, "signals is required")
		return
	}
	writeJSON(w, http.StatusOK, heatmapResponse{Heatmap: heatmap.Derive(a.catalog, *req.Signals)})
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode reads a JSON body into v, writing a 400 and returning false on
// failure.
func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			writeBadRequest(w, r, "request body is empty")
		case errors.As(err, &maxErr):
			writeProblem(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
		default:
			writeBadRequest(w, r, fmt.Sprintf("invalid JSON body: %v", err))
		}
		return false
	}
	return true
}
