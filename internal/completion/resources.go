package completion

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/atinylittleshell/termsuggest/internal/config"
	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"
	"go.uber.org/zap"
)

var (
	envAssignmentPrefix = regexp.MustCompile(`^[a-zA-Z_]+=(.+)$`)
	tildeFolderPrefix   = regexp.MustCompile(`^~[\\/]`)
	windowsAbsolutePath = regexp.MustCompile(`^[a-zA-Z]:[\\/]`)
	cdCommand           = regexp.MustCompile(`^\s*cd\s`)
)

const (
	homePlaceholderPosix   = "$HOME"
	homePlaceholderWindows = "Home directory"
)

// folderType classifies the folder portion of the word being completed.
type folderType int

const (
	folderRelative folderType = iota
	folderTilde
	folderAbsolute
)

// ResourceResolverConfig holds configuration for creating a ResourceResolver.
type ResourceResolverConfig struct {
	// FileSystem is used for all filesystem access. Defaults to OSFileSystem.
	FileSystem FileSystem

	// ProcessEnv is the fallback when the shell does not report a variable.
	// Defaults to the environment of this process.
	ProcessEnv EnvSource

	// Settings supplies the CDPATH mode. Defaults to DefaultConfig.
	Settings *config.Config

	// Logger for debug output. If nil, a no-op logger is used.
	Logger *zap.Logger
}

// ResourceResolver turns ResourceOptions into file and folder candidates for
// the word under the cursor.
type ResourceResolver struct {
	fs         FileSystem
	processEnv EnvSource
	settings   *config.Config
	logger     *zap.Logger
}

// NewResourceResolver creates a new ResourceResolver.
func NewResourceResolver(cfg ResourceResolverConfig) *ResourceResolver {
	fs := cfg.FileSystem
	if fs == nil {
		fs = OSFileSystem{}
	}
	env := cfg.ProcessEnv
	if env == nil {
		env = ProcessEnv{}
	}
	settings := cfg.Settings
	if settings == nil {
		settings = config.DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceResolver{
		fs:         fs,
		processEnv: env,
		settings:   settings,
		logger:     logger,
	}
}

// ResolveResources returns the filesystem candidates for the word before
// cursor in promptValue. It returns nil when opts requests neither files nor
// folders.
func (r *ResourceResolver) ResolveResources(
	ctx context.Context,
	opts ResourceOptions,
	promptValue string,
	cursor int,
	providerID string,
	caps Capabilities,
	shellType ShellType,
) []Candidate {
	sep := opts.PathSeparator
	if sep == 0 {
		sep = '/'
	}
	useWindowsPaths := sep == '\\'
	if useWindowsPaths {
		promptValue = NormalizePathSeparator(promptValue, sep)
	}

	showFiles := opts.ShowFiles
	showFolders := opts.ShowDirectories
	if !showFiles && !showFolders {
		return nil
	}

	if cursor < 0 {
		return nil
	}
	if cursor > len(promptValue) {
		cursor = len(promptValue)
	}

	lastWord := lastWordBeforeCursor(promptValue[:cursor])
	if m := envAssignmentPrefix.FindStringSubmatch(lastWord); m != nil {
		lastWord = m[1]
	}
	replacement := ReplacementRange{Start: cursor - len(lastWord), End: cursor}

	var lastSlash int
	if useWindowsPaths {
		lastSlash = strings.LastIndexAny(lastWord, `\/`)
	} else {
		lastSlash = strings.LastIndexByte(lastWord, sep)
	}
	lastWordFolder := ""
	if lastSlash != -1 {
		lastWordFolder = lastWord[:lastSlash+1]
	}

	kind := folderRelative
	switch {
	case tildeFolderPrefix.MatchString(lastWordFolder):
		kind = folderTilde
	case isAbsolutePath(shellType, sep, lastWordFolder, useWindowsPaths):
		kind = folderAbsolute
	}

	// dir is the directory being listed. placeholder is set instead when the
	// directory cannot be determined.
	var dir, placeholder string
	switch kind {
	case folderTilde:
		if home := r.homeDir(caps, useWindowsPaths); home != "" {
			dir = cleanPath(joinPath(home, unescapeSpaces(lastWordFolder[2:]), sep), sep)
		} else {
			placeholder = homePlaceholder(useWindowsPaths)
		}
	case folderAbsolute:
		if shellType == ShellGitBash {
			dir = GitBashToWindowsPath(lastWordFolder, lookupEnv(caps, r.processEnv, "SystemDrive"))
		} else {
			dir = cleanPath(unescapeSpaces(lastWordFolder), sep)
		}
	case folderRelative:
		dir = cleanPath(joinPath(opts.Cwd, unescapeSpaces(lastWordFolder), sep), sep)
	}

	var candidates []Candidate
	add := func(label string, k Kind, detail, documentation string) {
		candidates = append(candidates, Candidate{
			Label:         Label{Text: label},
			Kind:          k,
			Detail:        detail,
			Documentation: documentation,
			Range:         replacement,
			Provider:      providerID,
		})
	}

	// Current folder
	if showFolders {
		label := lastWordFolder
		if kind == folderRelative && label == "" {
			label = "."
		}
		detail := placeholder
		if placeholder == "" {
			detail = friendlyPath(dir, sep, KindFolder, shellType)
		}
		add(label, KindFolder, detail, "")
	}
	if placeholder != "" {
		return candidates
	}

	// Children
	children, err := r.fs.ReadDir(dir)
	if err != nil {
		r.logger.Debug("failed to list directory for completions", zap.String("dir", dir), zap.Error(err))
	}
	if ctx.Err() != nil {
		return nil
	}
	matcher := r.compileGlob(opts.GlobPattern)
	for _, child := range children {
		var childKind Kind
		switch {
		case showFolders && child.IsDir:
			childKind = KindFolder
			if child.IsSymlink {
				childKind = KindSymbolicLinkFolder
			}
		case showFiles && child.IsFile:
			childKind = KindFile
			if child.IsSymlink {
				childKind = KindSymbolicLinkFile
			}
			if matcher != nil && !matcher.Match(child.Name) {
				continue
			}
		default:
			continue
		}

		label := lastWordFolder
		if label != "" && label[len(label)-1] != sep && !(useWindowsPaths && label[len(label)-1] == '/') {
			label += string(sep)
		}
		label += EscapeLabel(child.Name, shellType, sep)
		if child.IsDir {
			label += string(sep)
		}

		childPath := joinPath(dir, child.Name, sep)
		detail := friendlyPath(childPath, sep, childKind, shellType)
		if child.IsSymlink {
			if target, err := r.fs.Realpath(childPath); err != nil {
				r.logger.Debug("failed to resolve symbolic link", zap.String("path", childPath), zap.Error(err))
			} else if target != childPath {
				detail = friendlyPath(childPath, sep, KindFile, shellType) + " -> " + friendlyPath(target, sep, childKind, shellType)
			}
		}

		documentation := ""
		if childKind == KindFile || childKind == KindSymbolicLinkFile {
			documentation = humanize.Bytes(uint64(child.Size))
		}
		add(label, childKind, detail, documentation)
	}

	// CDPATH entries, only for cd
	if showFolders && cdCommand.MatchString(promptValue) {
		candidates = append(candidates, r.cdPathCandidates(ctx, caps, sep, useWindowsPaths, shellType, providerID, replacement)...)
		if ctx.Err() != nil {
			return nil
		}
	}

	if kind == folderRelative && showFolders {
		// Parent folder
		label := ".." + string(sep)
		if lastWordFolder != "" {
			label = lastWordFolder + label
		}
		add(label, KindFolder, friendlyPath(parentPath(dir, sep), sep, KindFolder, shellType), "")

		// Home folder, only until a separator has been typed
		if !strings.ContainsAny(lastWord, `\/`) {
			detail := homePlaceholder(useWindowsPaths)
			if home := r.homeDir(caps, useWindowsPaths); home != "" {
				detail = friendlyPath(home, sep, KindFolder, shellType)
			}
			add("~", KindFolder, detail, "")
		}
	}

	return candidates
}

func (r *ResourceResolver) cdPathCandidates(
	ctx context.Context,
	caps Capabilities,
	sep byte,
	useWindowsPaths bool,
	shellType ShellType,
	providerID string,
	replacement ReplacementRange,
) []Candidate {
	mode := r.settings.CdPath
	if mode != config.CdPathAbsolute && mode != config.CdPathRelative {
		return nil
	}
	cdPath := lookupEnv(caps, r.processEnv, "CDPATH")
	if cdPath == "" {
		return nil
	}

	listSep := ":"
	if useWindowsPaths {
		listSep = ";"
	}

	var candidates []Candidate
	for _, entry := range strings.Split(cdPath, listSep) {
		if entry == "" {
			continue
		}
		children, err := r.fs.ReadDir(entry)
		if err != nil {
			r.logger.Debug("failed to list CDPATH entry", zap.String("entry", entry), zap.Error(err))
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		for _, child := range children {
			if !child.IsDir {
				continue
			}
			childPath := friendlyPath(joinPath(entry, child.Name, sep), sep, KindFolder, shellType)
			label, detail := childPath, "CDPATH"
			if mode == config.CdPathRelative {
				label, detail = child.Name, "CDPATH "+childPath
			}
			candidates = append(candidates, Candidate{
				Label:    Label{Text: label},
				Kind:     KindFolder,
				Detail:   detail,
				Range:    replacement,
				Provider: providerID,
			})
		}
	}
	return candidates
}

func (r *ResourceResolver) homeDir(caps Capabilities, useWindowsPaths bool) string {
	if useWindowsPaths {
		return lookupEnv(caps, r.processEnv, "USERPROFILE")
	}
	return lookupEnv(caps, r.processEnv, "HOME")
}

func (r *ResourceResolver) compileGlob(pattern string) glob.Glob {
	if pattern == "" {
		return nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		r.logger.Debug("ignoring invalid glob pattern", zap.String("pattern", pattern), zap.Error(err))
		return nil
	}
	return g
}

// lastWordBeforeCursor returns the text after the last unescaped space.
func lastWordBeforeCursor(prefix string) string {
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] == ' ' && (i == 0 || prefix[i-1] != '\\') {
			return prefix[i+1:]
		}
	}
	return prefix
}

func isAbsolutePath(shellType ShellType, sep byte, folder string, useWindowsPaths bool) bool {
	if shellType == ShellGitBash {
		return len(folder) > 2 && folder[0] == sep && folder[2] == sep
	}
	if useWindowsPaths {
		return windowsAbsolutePath.MatchString(folder)
	}
	return strings.HasPrefix(folder, string(sep))
}

func homePlaceholder(useWindowsPaths bool) string {
	if useWindowsPaths {
		return homePlaceholderWindows
	}
	return homePlaceholderPosix
}

func unescapeSpaces(s string) string {
	return strings.ReplaceAll(s, `\ `, " ")
}

// cleanPath lexically cleans p while keeping the dialect's separator.
func cleanPath(p string, sep byte) string {
	if p == "" {
		return p
	}
	if sep == '/' {
		return path.Clean(p)
	}
	cleaned := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if len(cleaned) == 2 && cleaned[1] == ':' {
		cleaned += "/"
	}
	return strings.ReplaceAll(cleaned, "/", `\`)
}

// friendlyPath renders p for display, with a trailing separator for folders.
func friendlyPath(p string, sep byte, kind Kind, shellType ShellType) string {
	if shellType == ShellGitBash {
		p = WindowsToGitBashPath(p)
		sep = '/'
	}
	if kind.IsFolderLike() && !strings.HasSuffix(p, string(sep)) {
		p += string(sep)
	}
	return p
}
