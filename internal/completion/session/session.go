// Package session decides when to request completions while the user types,
// keeps the ranked list in step with the prompt and turns an accepted
// candidate into the edits to apply.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/atinylittleshell/termsuggest/internal/completion"
	"github.com/atinylittleshell/termsuggest/internal/completion/ranking"
	"github.com/atinylittleshell/termsuggest/internal/config"
	"github.com/atinylittleshell/termsuggest/internal/prompt"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Scheduler runs completion requests.
type Scheduler interface {
	Go(task func())
}

// GoroutineScheduler runs every task on its own goroutine.
type GoroutineScheduler struct{}

// Go implements Scheduler.
func (GoroutineScheduler) Go(task func()) {
	go task()
}

// Config holds configuration for creating a Session.
type Config struct {
	Service *completion.Service

	// Settings defaults to DefaultConfig.
	Settings *config.Config

	ShellType    completion.ShellType
	Capabilities completion.Capabilities

	// SkipExternal limits requests to built-in providers.
	SkipExternal bool

	// Scorer is passed to the ranking model.
	Scorer ranking.Scorer

	// Scheduler defaults to GoroutineScheduler.
	Scheduler Scheduler

	// OnShow receives the ranked items whenever the visible list changes.
	OnShow func(items []ranking.Item)
	// OnHide is called when a visible list is dismissed.
	OnHide func()
	// OnAccept receives the edits for an accepted candidate.
	OnAccept func(edits prompt.EditSequence)

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// Session tracks one prompt. All methods are safe for concurrent use;
// callbacks are never invoked with the session lock held.
type Session struct {
	service      *completion.Service
	settings     *config.Config
	shellType    completion.ShellType
	caps         completion.Capabilities
	skipExternal bool
	scorer       ranking.Scorer
	scheduler    Scheduler
	onShow       func([]ranking.Item)
	onHide       func()
	onAccept     func(prompt.EditSequence)
	logger       *zap.Logger

	mu            sync.Mutex
	stateID       atomic.Int64
	cancelPending context.CancelFunc

	prompt    prompt.State
	hasPrompt bool

	lastInput string
	pasting   bool
	// suppressed is set by Accept and cleared by the next keystroke.
	suppressed bool

	visible    bool
	model      *ranking.Model
	candidates []completion.Candidate

	requestedCursor      int
	replacementStart     int
	filteringDirectories bool
	pathSeparator        byte

	inlineDetail        string
	inlineDocumentation string
}

// New creates a new Session.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	settings := cfg.Settings
	if settings == nil {
		settings = config.DefaultConfig()
	}
	service := cfg.Service
	if service == nil {
		service = completion.NewService(completion.ServiceConfig{Settings: settings, Logger: logger})
	}
	scheduler := cfg.Scheduler
	if scheduler == nil {
		scheduler = GoroutineScheduler{}
	}

	s := &Session{
		service:      service,
		settings:     settings,
		shellType:    cfg.ShellType,
		caps:         cfg.Capabilities,
		skipExternal: cfg.SkipExternal,
		scorer:       cfg.Scorer,
		scheduler:    scheduler,
		onShow:       cfg.OnShow,
		onHide:       cfg.OnHide,
		onAccept:     cfg.OnAccept,
		logger:       logger,
	}
	s.pathSeparator = s.defaultSeparator()
	return s
}

// HandleInput records raw data typed by the user. It must be called before
// the Sync that reflects the keystroke.
func (s *Session) HandleInput(data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastInput = data
	s.suppressed = false
}

// SetPasting marks the start or end of a bracketed paste. No completions
// are requested while pasting.
func (s *Session) SetPasting(pasting bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pasting = pasting
}

// Sync updates the session with the current prompt. It refreshes or
// dismisses the visible list and may start a completion request whose
// result is applied later; ctx bounds that request.
//
// The error reports a provider contract violation observed by a request
// that completed before Sync returned.
func (s *Session) Sync(ctx context.Context, state prompt.State) error {
	if state.CursorIndex < 0 || state.CursorIndex > len(state.Value) {
		return fmt.Errorf("cursor %d outside prompt of length %d", state.CursorIndex, len(state.Value))
	}
	if state.GhostTextIndex < -1 || state.GhostTextIndex > len(state.Value) {
		return fmt.Errorf("ghost text index %d outside prompt of length %d", state.GhostTextIndex, len(state.Value))
	}

	s.mu.Lock()
	prev, hadPrev := s.prompt, s.hasPrompt
	s.prompt, s.hasPrompt = state, true

	// Triggers look at the list as it was before this change.
	request, trigger := s.shouldRequestLocked(prev, hadPrev, state)

	var events []func()
	if s.visible && hadPrev {
		events = s.refreshLocked(prev, state)
	}

	var task func() error
	if request {
		task = s.startRequestLocked(ctx, false, trigger)
	}
	s.mu.Unlock()

	s.emit(events)
	return s.schedule(task)
}

// Request asks for completions at the current prompt. Explicit requests
// come from the user invoking completion directly: they use the longer
// provider timeout and show an empty list rather than nothing.
func (s *Session) Request(ctx context.Context, explicit bool) error {
	s.mu.Lock()
	if !s.hasPrompt {
		s.mu.Unlock()
		return nil
	}
	task := s.startRequestLocked(ctx, explicit, "")
	s.mu.Unlock()

	return s.schedule(task)
}

// Hide dismisses the visible list and abandons any pending request.
func (s *Session) Hide() {
	s.mu.Lock()
	events := s.hideLocked()
	s.mu.Unlock()
	s.emit(events)
}

// Visible reports whether a list is shown.
func (s *Session) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Items returns the visible ranked items.
func (s *Session) Items() []ranking.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.visible || s.model == nil {
		return nil
	}
	return s.model.Items()
}

// Close abandons any pending request.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelPendingLocked()
	s.stateID.Add(1)
}

func (s *Session) startRequestLocked(ctx context.Context, explicit bool, trigger string) func() error {
	s.cancelPendingLocked()
	ctx, cancel := context.WithCancel(ctx)
	s.cancelPending = cancel
	id := s.stateID.Add(1)

	state := s.prompt
	req := completion.Request{
		Value:            state.Prefix,
		Cursor:           state.CursorIndex,
		ShellType:        s.shellType,
		Capabilities:     s.caps,
		AllowFallback:    explicit,
		TriggerCharacter: trigger,
		Explicit:         explicit,
		SkipExternal:     s.skipExternal,
	}
	s.logger.Debug("requesting completions",
		zap.Int64("stateID", id),
		zap.Int("cursor", state.CursorIndex),
		zap.Bool("explicit", explicit),
		zap.String("trigger", trigger))

	return func() error {
		defer cancel()
		candidates, err := s.service.ProvideCompletions(ctx, req)
		return s.finishRequest(id, state, explicit, candidates, err)
	}
}

func (s *Session) finishRequest(id int64, state prompt.State, explicit bool, candidates []completion.Candidate, err error) error {
	s.mu.Lock()
	if s.stateID.Load() != id {
		// Superseded by a newer request or dismissed
		s.mu.Unlock()
		return nil
	}
	s.cancelPending = nil

	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		s.logger.Warn("completion request failed", zap.Error(err))
		return err
	}

	events := s.showResultsLocked(state, explicit, candidates)
	s.mu.Unlock()
	s.emit(events)
	return nil
}

func (s *Session) showResultsLocked(state prompt.State, explicit bool, candidates []completion.Candidate) []func() {
	if len(candidates) == 0 && !explicit {
		return s.hideLocked()
	}

	s.requestedCursor = state.CursorIndex
	s.replacementStart = state.CursorIndex
	for _, c := range candidates {
		s.replacementStart = min(s.replacementStart, c.Range.Start)
	}

	folder, ok := lo.Find(candidates, func(c completion.Candidate) bool {
		return c.Kind.IsFolderLike()
	})
	s.filteringDirectories = ok
	s.pathSeparator = s.defaultSeparator()
	if ok {
		if i := strings.IndexAny(folder.Label.Text, `\/`); i >= 0 {
			s.pathSeparator = folder.Label.Text[i]
		}
	}

	leading := state.Prefix
	if s.filteringDirectories {
		leading = completion.NormalizePathSeparator(leading, s.pathSeparator)
	}

	candidates = s.takeInlineDuplicateLocked(candidates)
	s.candidates = candidates
	s.model = ranking.New(candidates, ranking.LineContext{LeadingLineContent: leading}, ranking.Options{
		Windows: s.windows(),
		Scorer:  s.scorer,
	})
	s.visible = true

	if len(candidates) == 0 {
		return s.showLocked(nil)
	}
	if s.prompt != state {
		// The user kept typing while the request ran
		return s.refreshLocked(state, s.prompt)
	}
	return s.updateLocked(s.prompt)
}

// refreshLocked applies a prompt change to the visible list, dismissing it
// when the change moved outside the word being completed.
func (s *Session) refreshLocked(prev, state prompt.State) []func() {
	cursor := state.CursorIndex

	if cursor > 1 && state.Value[cursor-1] == ' ' && !arrowKey.MatchString(s.lastInput) {
		return s.hideLocked()
	}
	if cursor < s.requestedCursor {
		if cursor <= 0 || crossesSeparatorOrSpace(prev, cursor, max(prev.CursorIndex, s.requestedCursor)) {
			return s.hideLocked()
		}
	}
	if rightArrowKey.MatchString(s.lastInput) && prev.HasGhostText() && !state.HasGhostText() {
		return s.hideLocked()
	}
	if cursor < s.replacementStart {
		return s.hideLocked()
	}
	return s.updateLocked(state)
}

func (s *Session) updateLocked(state prompt.State) []func() {
	leading := state.Prefix
	if s.filteringDirectories {
		leading = completion.NormalizePathSeparator(leading, s.pathSeparator)
	}
	s.model.SetLineContext(ranking.LineContext{
		LeadingLineContent:  leading,
		CharacterCountDelta: state.CursorIndex - s.requestedCursor,
	})
	s.refreshInlineLocked(state)

	items := s.model.Items()
	if len(items) == 0 {
		return s.hideLocked()
	}
	return s.showLocked(items)
}

func (s *Session) showLocked(items []ranking.Item) []func() {
	if s.onShow == nil {
		return nil
	}
	return []func(){func() { s.onShow(items) }}
}

func (s *Session) hideLocked() []func() {
	s.cancelPendingLocked()
	s.stateID.Add(1)

	wasVisible := s.visible
	s.visible = false
	s.model = nil
	s.candidates = nil
	s.inlineDetail, s.inlineDocumentation = "", ""

	if !wasVisible || s.onHide == nil {
		return nil
	}
	return []func(){s.onHide}
}

func (s *Session) cancelPendingLocked() {
	if s.cancelPending != nil {
		s.cancelPending()
		s.cancelPending = nil
	}
}

func (s *Session) emit(events []func()) {
	for _, e := range events {
		e()
	}
}

// schedule hands task to the scheduler. When the scheduler runs it before
// returning, the task's error is returned.
func (s *Session) schedule(task func() error) error {
	if task == nil {
		return nil
	}
	errCh := make(chan error, 1)
	s.scheduler.Go(func() {
		errCh <- task()
	})
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

func (s *Session) windows() bool {
	return s.pathSeparator == '\\' ||
		s.shellType == completion.ShellPowerShell ||
		s.shellType == completion.ShellCommandPrompt
}

func (s *Session) defaultSeparator() byte {
	if s.shellType == completion.ShellPowerShell || s.shellType == completion.ShellCommandPrompt {
		return '\\'
	}
	return '/'
}

// crossesSeparatorOrSpace reports whether prev.Value[from:to] holds a path
// separator or whitespace.
func crossesSeparatorOrSpace(prev prompt.State, from, to int) bool {
	to = min(to, len(prev.Value))
	if from >= to {
		return false
	}
	return strings.ContainsAny(prev.Value[from:to], "/\\ \t")
}
