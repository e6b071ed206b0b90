package completion

import (
	"context"
	"io/fs"
	"sort"
	"testing"
	"time"
)

type fakeFS struct {
	dirs  map[string][]FileInfo
	links map[string]string
}

func newFakeFS() *fakeFS {
	return &fakeFS{
		dirs:  make(map[string][]FileInfo),
		links: make(map[string]string),
	}
}

func (f *fakeFS) addDir(dir string, sep byte, children ...FileInfo) {
	for i := range children {
		children[i].Path = joinPath(dir, children[i].Name, sep)
	}
	f.dirs[dir] = append(f.dirs[dir], children...)
}

func (f *fakeFS) Stat(path string) (FileInfo, error) {
	if _, ok := f.dirs[path]; ok {
		return FileInfo{Path: path, IsDir: true}, nil
	}
	return FileInfo{}, fs.ErrNotExist
}

func (f *fakeFS) ReadDir(path string) ([]FileInfo, error) {
	children, ok := f.dirs[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	out := append([]FileInfo(nil), children...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeFS) Realpath(path string) (string, error) {
	if target, ok := f.links[path]; ok {
		if target == "" {
			return "", fs.ErrNotExist
		}
		return target, nil
	}
	return path, nil
}

func dirEntry(name string) FileInfo {
	return FileInfo{Name: name, IsDir: true}
}

func fileEntry(name string, size int64) FileInfo {
	return FileInfo{Name: name, IsFile: true, Size: size}
}

type fakeProvider struct {
	id       string
	triggers []string
	shells   []ShellType
	fn       func(ctx context.Context, value string, cursor int) (*ProviderResult, error)
}

func (p *fakeProvider) ID() string { return p.id }
func (p *fakeProvider) TriggerCharacters() []string { return p.triggers }
func (p *fakeProvider) ShellTypes() []ShellType { return p.shells }

func (p *fakeProvider) ProvideCompletions(ctx context.Context, value string, cursor int, allowFallback bool) (*ProviderResult, error) {
	return p.fn(ctx, value, cursor)
}

func itemsProvider(id string, labels ...string) *fakeProvider {
	return &fakeProvider{
		id: id,
		fn: func(_ context.Context, value string, cursor int) (*ProviderResult, error) {
			items := make([]Candidate, 0, len(labels))
			for _, label := range labels {
				items = append(items, Candidate{
					Label: Label{Text: label},
					Kind:  KindArgument,
					Range: ReplacementRange{Start: cursor, End: cursor},
				})
			}
			return &ProviderResult{Items: items}, nil
		},
	}
}

// blockingProvider settles only when its request is cancelled or the test
// ends. Every context it is called with is sent on the returned channel.
func blockingProvider(t *testing.T, id string) (*fakeProvider, <-chan context.Context) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	calls := make(chan context.Context, 16)
	return &fakeProvider{
		id: id,
		fn: func(ctx context.Context, _ string, _ int) (*ProviderResult, error) {
			calls <- ctx
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-release:
				return nil, nil
			}
		},
	}, calls
}

// recordingClock fires every timer immediately when fire is closed and
// records the requested durations.
type recordingClock struct {
	fire      chan time.Time
	durations chan time.Duration
}

func newRecordingClock() *recordingClock {
	return &recordingClock{
		fire:      make(chan time.Time),
		durations: make(chan time.Duration, 16),
	}
}

func (c *recordingClock) After(d time.Duration) <-chan time.Time {
	c.durations <- d
	return c.fire
}

func labelsOf(items []Candidate) []string {
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label.Text
	}
	return labels
}
