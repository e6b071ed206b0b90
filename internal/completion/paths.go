package completion

import (
	"regexp"
	"strings"
)

var (
	shellSignificant = regexp.MustCompile("[\\[\\]()'\"\\\\`*?;&|<>]")
	gitBashDrivePath = regexp.MustCompile(`^/([a-zA-Z])(/.*)?$`)
	windowsDrivePath = regexp.MustCompile(`^([a-zA-Z]):(.*)$`)
	anySeparator     = regexp.MustCompile(`[\\/]`)
)

// EscapeLabel escapes the characters of label that are significant to POSIX
// style shells. PowerShell and Command Prompt labels are returned as is.
func EscapeLabel(label string, shellType ShellType, pathSeparator byte) string {
	if !shellType.IsPosix() {
		return label
	}
	return shellSignificant.ReplaceAllString(label, `\$0`)
}

// GitBashToWindowsPath converts a Git Bash path such as /c/foo to C:\foo.
// Paths without a drive letter are placed on systemDrive, which defaults
// to C:.
func GitBashToWindowsPath(path, systemDrive string) string {
	drive := strings.ToUpper(systemDrive)
	if drive == "" {
		drive = "C:"
	}
	if m := gitBashDrivePath.FindStringSubmatch(path); m != nil {
		rest := `\`
		if m[2] != "" {
			rest = strings.ReplaceAll(m[2], "/", `\`)
		}
		return strings.ToUpper(m[1]) + ":" + rest
	}
	if strings.HasPrefix(path, "/") {
		return drive + strings.ReplaceAll(path, "/", `\`)
	}
	return strings.ReplaceAll(path, "/", `\`)
}

// WindowsToGitBashPath converts C:\foo\bar to /c/foo/bar.
func WindowsToGitBashPath(path string) string {
	if m := windowsDrivePath.FindStringSubmatch(path); m != nil {
		return "/" + strings.ToLower(m[1]) + strings.ReplaceAll(m[2], `\`, "/")
	}
	return strings.ReplaceAll(path, `\`, "/")
}

// NormalizePathSeparator rewrites every path separator in s to sep.
func NormalizePathSeparator(s string, sep byte) string {
	return anySeparator.ReplaceAllLiteralString(s, string(sep))
}

// joinPath appends name to dir using sep.
func joinPath(dir, name string, sep byte) string {
	if dir == "" {
		return name
	}
	if dir[len(dir)-1] == '/' || dir[len(dir)-1] == '\\' {
		return dir + name
	}
	return dir + string(sep) + name
}

// parentPath returns the parent of dir using sep, keeping roots intact.
func parentPath(dir string, sep byte) string {
	trimmed := strings.TrimRight(dir, `\/`)
	idx := strings.LastIndexAny(trimmed, `\/`)
	switch {
	case trimmed == "":
		return string(sep)
	case idx < 0:
		return trimmed
	case idx == 0:
		return trimmed[:1]
	}
	parent := trimmed[:idx]
	if len(parent) == 2 && parent[1] == ':' {
		return parent + string(sep)
	}
	return parent
}
