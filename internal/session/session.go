// Package session holds one user workflow's latest translation and
// guards the translate, explain and test-plan actions against it.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"netxlate/internal/core"
	"netxlate/internal/prompt"
	"netxlate/internal/sanitize"

	"github.com/google/uuid"
)

// State is the translate lifecycle of a Session.
type State int

const (
	StateIdle State = iota
	StateTranslating
	// StateReady holds a non-empty translated text.
	StateReady
	// StateTranslationFailed is passed through on failure and settles
	// back to Idle or Ready straight away.
	StateTranslationFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTranslating:
		return "translating"
	case StateReady:
		return "ready"
	case StateTranslationFailed:
		return "translation_failed"
	default:
		return "unknown"
	}
}

// FollowOn is the input of explain and test-plan.
// An empty TargetVendor reuses the vendor of the stored translation.
type FollowOn struct {
	TargetVendor       string `json:"target_vendor"`
	ModelID            string `json:"model"`
	CustomInstructions string `json:"custom_instructions,omitempty"`
}

// Snapshot is a consistent copy of a Session.
type Snapshot struct {
	ID             string      `json:"id"`
	State          string      `json:"state"`
	TranslatedText string      `json:"translated_text,omitempty"`
	TargetVendor   string      `json:"target_vendor,omitempty"`
	LastError      *core.Error `json:"last_error,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Config wires a Session to its collaborators.
type Config struct {
	Invoker      core.Invoker
	Builder      *prompt.Builder
	DefaultModel string
	Metrics      core.MetricsCollector
	Logger       core.Logger
}

// Session is safe for concurrent use. Only a successful translate
// replaces the stored text.
type Session struct {
	id           string
	invoker      core.Invoker
	builder      *prompt.Builder
	defaultModel string
	metrics      core.MetricsCollector
	logger       core.Logger
	createdAt    time.Time

	mu         sync.Mutex
	state      State
	lastText   string
	lastVendor string
	lastErr    *core.Error
	inFlight   map[string]bool
	updatedAt  time.Time
}

// New creates an idle session. An empty id gets a generated one.
func New(id string, cfg Config) *Session {
	if id == "" {
		id = core.SessionIDPrefix + uuid.NewString()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = &core.NopMetrics{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &core.NopLogger{}
	}
	now := time.Now()
	return &Session{
		id:           id,
		invoker:      cfg.Invoker,
		builder:      cfg.Builder,
		defaultModel: cfg.DefaultModel,
		metrics:      metrics,
		logger:       logger,
		createdAt:    now,
		updatedAt:    now,
		state:        StateIdle,
		inFlight:     make(map[string]bool),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastTranslatedText returns the stored translation, or "" before the first success.
func (s *Session) LastTranslatedText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastText
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:             s.id,
		State:          s.state.String(),
		TranslatedText: s.lastText,
		TargetVendor:   s.lastVendor,
		LastError:      s.lastErr,
		CreatedAt:      s.createdAt,
		UpdatedAt:      s.updatedAt,
	}
}

// Translate runs one translation. It returns Busy without calling the
// backend while another translate is in flight, and a synchronous
// InputError without touching state when req is invalid.
func (s *Session) Translate(ctx context.Context, req core.TranslationRequest) core.ActionResult {
	req = normalize(req)
	if err := req.Validate(); err != nil {
		return core.Failure(err)
	}

	s.mu.Lock()
	if s.state == StateTranslating {
		s.mu.Unlock()
		s.logger.Debug("Session %s: translate ignored, already translating", s.id)
		return core.Busy()
	}
	s.transition(StateTranslating)
	s.mu.Unlock()

	prompts := s.builder.BuildTranslate(req)
	modelID := s.modelFor(req.ModelID)
	result := s.call(ctx, core.ActionTranslate, prompts, modelID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedAt = time.Now()
	if result.OK() {
		s.lastText = result.Text
		s.lastVendor = req.TargetVendor
		s.lastErr = nil
		s.transition(StateReady)
		return result
	}
	s.lastErr = result.Err
	s.transition(StateTranslationFailed)
	s.transition(s.settled())
	return result
}

// Explain describes the stored translation. It returns NoResult unless the session is Ready.
func (s *Session) Explain(ctx context.Context, f FollowOn) core.ActionResult {
	return s.followOn(ctx, core.ActionExplain, f, s.builder.BuildExplain)
}

// TestPlan produces a verification plan for the stored translation. It returns NoResult unless the session is Ready.
func (s *Session) TestPlan(ctx context.Context, f FollowOn) core.ActionResult {
	return s.followOn(ctx, core.ActionTestPlan, f, s.builder.BuildTestPlan)
}

type buildFunc func(targetVendor, translated, customInstructions string) prompt.Prompts

func (s *Session) followOn(ctx context.Context, action string, f FollowOn, build buildFunc) core.ActionResult {
	custom := strings.TrimSpace(f.CustomInstructions)
	if err := core.ValidateCustomInstructions(custom); err != nil {
		return core.Failure(err)
	}

	s.mu.Lock()
	if s.state != StateReady {
		state := s.state
		s.mu.Unlock()
		s.logger.Debug("Session %s: %s skipped in state %s", s.id, action, state)
		return core.NoResult()
	}
	if s.inFlight[action] {
		s.mu.Unlock()
		return core.Busy()
	}
	text, vendor := s.lastText, s.lastVendor
	s.inFlight[action] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, action)
		s.mu.Unlock()
	}()

	if target := strings.TrimSpace(f.TargetVendor); target != "" && !strings.EqualFold(target, core.VendorAuto) {
		vendor = target
	}
	return s.call(ctx, action, build(vendor, text, custom), s.modelFor(f.ModelID))
}

// call invokes the backend once and sanitizes a successful reply.
// The call is not cancelled when ctx is.
func (s *Session) call(ctx context.Context, action string, prompts prompt.Prompts, modelID string) core.ActionResult {
	start := time.Now()
	result := s.invoker.Invoke(context.WithoutCancel(ctx), prompts.System, prompts.User, modelID)
	if result.OK() {
		if cleaned := sanitize.Clean(result.Text); cleaned != "" {
			result = core.Success(cleaned)
		} else {
			result = core.Failure(core.ErrMalformedResponse("The backend returned no text."))
		}
	}
	elapsed := time.Since(start)
	s.metrics.RecordAction(action, modelID, result.OK(), elapsed)

	if result.OK() {
		s.logger.Info("Session %s: %s succeeded with %s in %v", s.id, action, modelID, elapsed)
	} else {
		s.logger.Warn("Session %s: %s failed with %s in %v: %v", s.id, action, modelID, elapsed, result.Err)
	}
	return result
}

func (s *Session) modelFor(modelID string) string {
	if modelID = strings.TrimSpace(modelID); modelID != "" {
		return modelID
	}
	return s.defaultModel
}

// settled is the state a failed translate returns to. Caller holds mu.
func (s *Session) settled() State {
	if s.lastText != "" {
		return StateReady
	}
	return StateIdle
}

// transition moves to next. Caller holds mu.
func (s *Session) transition(next State) {
	s.logger.Debug("Session %s: %s -> %s", s.id, s.state, next)
	s.state = next
}

func normalize(req core.TranslationRequest) core.TranslationRequest {
	req.SourceText = strings.TrimSpace(req.SourceText)
	req.SourceVendor = strings.TrimSpace(req.SourceVendor)
	req.SourceOS = strings.TrimSpace(req.SourceOS)
	req.TargetVendor = strings.TrimSpace(req.TargetVendor)
	req.TargetOS = strings.TrimSpace(req.TargetOS)
	req.ModelID = strings.TrimSpace(req.ModelID)
	req.CustomInstructions = strings.TrimSpace(req.CustomInstructions)
	return req
}
