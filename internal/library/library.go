// Package library exposes a local directory of clips that can be selected
// instead of uploading.
package library

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"overlayd/internal/common/fsutil"
)

var ErrNotFound = errors.New("library: clip not found")

// Item is one clip in the library directory.
type Item struct {
	Name        string `json:"name"`
	Path        string `json:"-"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

var videoExts = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

// LoadDir scans dir for video files. Name is the file name; entries are
// sorted by name.
func LoadDir(dir string) ([]Item, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var items []Item
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ct, ok := contentType(name)
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, Item{Name: name, Path: filepath.Join(abs, name), Size: info.Size(), ContentType: ct})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func contentType(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := videoExts[ext]; ok {
		return ct, true
	}
	if ct := mime.TypeByExtension(ext); strings.HasPrefix(ct, "video/") {
		return ct, true
	}
	return "", false
}

// Library is a rescannable view of a directory. A zero dir yields an empty
// library.
type Library struct {
	dir string

	mu    sync.RWMutex
	items []Item
}

func New(dir string) (*Library, error) {
	l := &Library{dir: dir}
	if dir == "" {
		return l, nil
	}
	if err := l.Rescan(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Library) Rescan() error {
	if l.dir == "" {
		return nil
	}
	items, err := LoadDir(l.dir)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.items = items
	l.mu.Unlock()
	return nil
}

// Items returns a copy of the current listing.
func (l *Library) Items() []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Read returns the bytes of the clip called name.
func (l *Library) Read(name string) (Item, []byte, error) {
	if !fsutil.IsBaseName(name) {
		return Item{}, nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	l.mu.RLock()
	var (
		it    Item
		found bool
	)
	for _, x := range l.items {
		if x.Name == name {
			it, found = x, true
			break
		}
	}
	l.mu.RUnlock()
	if !found || !fsutil.PathExists(it.Path) {
		return Item{}, nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	b, err := os.ReadFile(it.Path)
	if err != nil {
		return Item{}, nil, fmt.Errorf("read %s: %w", name, err)
	}
	return it, b, nil
}
