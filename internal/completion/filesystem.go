package completion

import (
	"os"
	"path/filepath"
	"sort"
)

// FileInfo describes a filesystem entry. For symbolic links IsDir and
// IsFile describe the link target; a dangling link is reported as a file.
type FileInfo struct {
	Name      string
	Path      string
	IsDir     bool
	IsFile    bool
	IsSymlink bool
	Size      int64

	// Executable is set for files with any execute permission bit.
	Executable bool
}

// FileSystem is the filesystem access used by the resource resolver.
type FileSystem interface {
	// Stat describes the entry at path, following symbolic links.
	Stat(path string) (FileInfo, error)
	// ReadDir lists the direct children of a directory sorted by name.
	ReadDir(path string) ([]FileInfo, error)
	// Realpath resolves all symbolic links in path.
	Realpath(path string) (string, error)
}

// OSFileSystem implements FileSystem on top of the os package.
type OSFileSystem struct{}

var _ FileSystem = OSFileSystem{}

// Stat implements FileSystem.
func (OSFileSystem) Stat(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Name:   info.Name(),
		Path:   path,
		IsDir:  info.IsDir(),
		IsFile: info.Mode().IsRegular(),
		Size:   info.Size(),

		Executable: info.Mode().IsRegular() && info.Mode()&0111 != 0,
	}, nil
}

// ReadDir implements FileSystem.
func (OSFileSystem) ReadDir(path string) ([]FileInfo, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	children := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		full := filepath.Join(path, entry.Name())
		child := FileInfo{Name: entry.Name(), Path: full}

		if entry.Type()&os.ModeSymlink != 0 {
			child.IsSymlink = true
			target, err := os.Stat(full)
			if err != nil {
				// Dangling link
				child.IsFile = true
				children = append(children, child)
				continue
			}
			child.IsDir = target.IsDir()
			child.IsFile = !target.IsDir()
			child.Executable = child.IsFile && target.Mode()&0111 != 0
			child.Size = target.Size()
			children = append(children, child)
			continue
		}

		child.IsDir = entry.IsDir()
		child.IsFile = entry.Type().IsRegular()
		if info, err := entry.Info(); err == nil {
			child.Size = info.Size()
			child.Executable = child.IsFile && info.Mode()&0111 != 0
		}
		children = append(children, child)
	}

	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
	return children, nil
}

// Realpath implements FileSystem.
func (OSFileSystem) Realpath(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}
