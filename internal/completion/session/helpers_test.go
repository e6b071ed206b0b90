package session

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/atinylittleshell/termsuggest/internal/completion"
	"github.com/atinylittleshell/termsuggest/internal/completion/ranking"
	"github.com/atinylittleshell/termsuggest/internal/config"
	"github.com/atinylittleshell/termsuggest/internal/prompt"
)

// inlineScheduler runs tasks before returning.
type inlineScheduler struct{}

func (inlineScheduler) Go(task func()) { task() }

// queueScheduler holds tasks until the test runs them.
type queueScheduler struct {
	tasks []func()
}

func (q *queueScheduler) Go(task func()) { q.tasks = append(q.tasks, task) }

// wordProvider completes the word before the cursor from a fixed list.
type wordProvider struct {
	id       string
	labels   []string
	kind     completion.Kind
	triggers []string
	calls    atomic.Int32
	lastReq  atomic.Value
	rangeEnd int
}

func (p *wordProvider) ID() string { return p.id }
func (p *wordProvider) TriggerCharacters() []string { return p.triggers }
func (p *wordProvider) ShellTypes() []completion.ShellType { return nil }

func (p *wordProvider) ProvideCompletions(_ context.Context, value string, cursor int, _ bool) (*completion.ProviderResult, error) {
	p.calls.Add(1)
	p.lastReq.Store(value)
	start := strings.LastIndexByte(value[:cursor], ' ') + 1
	end := cursor
	if p.rangeEnd != 0 {
		end = p.rangeEnd
	}
	items := make([]completion.Candidate, 0, len(p.labels))
	for _, label := range p.labels {
		items = append(items, completion.Candidate{
			Label:  completion.Label{Text: label},
			Kind:   p.kind,
			Detail: p.id + " " + label,
			Range:  completion.ReplacementRange{Start: start, End: end},
		})
	}
	return &completion.ProviderResult{Items: items}, nil
}

type recorder struct {
	shows   [][]ranking.Item
	hides   int
	accepts []prompt.EditSequence
}

func (r *recorder) lastLabels() []string {
	if len(r.shows) == 0 {
		return nil
	}
	return itemLabels(r.shows[len(r.shows)-1])
}

func itemLabels(items []ranking.Item) []string {
	labels := make([]string, 0, len(items))
	for _, item := range items {
		labels = append(labels, item.Candidate.Label.Text)
	}
	return labels
}

type fixture struct {
	session  *Session
	rec      *recorder
	settings *config.Config
}

func newFixture(settings *config.Config, scheduler Scheduler, providers ...completion.Provider) *fixture {
	if settings == nil {
		settings = config.DefaultConfig()
	}
	if scheduler == nil {
		scheduler = inlineScheduler{}
	}
	registry := completion.NewRegistry()
	for _, p := range providers {
		registry.Register(p)
	}
	rec := &recorder{}
	s := New(Config{
		Service:   completion.NewService(completion.ServiceConfig{Registry: registry, Settings: settings}),
		Settings:  settings,
		ShellType: completion.ShellBash,
		Scheduler: scheduler,
		OnShow:    func(items []ranking.Item) { rec.shows = append(rec.shows, items) },
		OnHide:    func() { rec.hides++ },
		OnAccept:  func(edits prompt.EditSequence) { rec.accepts = append(rec.accepts, edits) },
	})
	return &fixture{session: s, rec: rec, settings: settings}
}

// typeText syncs the prompt after every typed byte.
func (f *fixture) typeText(text string) error {
	value := ""
	if f.session.hasPrompt {
		value = f.session.prompt.Value
	}
	for i := range len(text) {
		value += text[i : i+1]
		f.session.HandleInput(text[i : i+1])
		if err := f.session.Sync(context.Background(), prompt.NewState(value, len(value), -1)); err != nil {
			return err
		}
	}
	return nil
}

func (f *fixture) backspace() error {
	value := f.session.prompt.Value
	value = value[:len(value)-1]
	f.session.HandleInput(prompt.KeyBackspace)
	return f.session.Sync(context.Background(), prompt.NewState(value, len(value), -1))
}

// resourceProvider asks the service to list the files under cwd.
type resourceProvider struct {
	cwd string
}

func (p *resourceProvider) ID() string { return "resources" }
func (p *resourceProvider) TriggerCharacters() []string { return nil }
func (p *resourceProvider) ShellTypes() []completion.ShellType { return nil }

func (p *resourceProvider) ProvideCompletions(context.Context, string, int, bool) (*completion.ProviderResult, error) {
	return &completion.ProviderResult{ResourceOptions: &completion.ResourceOptions{
		Cwd:             p.cwd,
		PathSeparator:   '/',
		ShowFiles:       true,
		ShowDirectories: true,
	}}, nil
}
