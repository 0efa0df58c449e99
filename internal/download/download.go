// Package download hands finished documents to the user's side of the system.
package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ContentTypePDF is the content type of every rendered document
const ContentTypePDF = "application/pdf"

// Trigger delivers a named document to the user
type Trigger interface {
	Save(ctx context.Context, filename, contentType string, data []byte) error
}

// SafeFilename strips path separators so a remote-supplied name cannot escape the output directory
func SafeFilename(name string) string {
	name = strings.NewReplacer("/", "", "\\", "", "\x00", "").Replace(strings.TrimSpace(name))
	if name == "" || name == "." || name == ".." {
		return "resume"
	}
	return name
}

// DirTrigger writes documents into a directory on disk
type DirTrigger struct {
	Dir string
}

// NewDirTrigger creates a trigger writing into dir
func NewDirTrigger(dir string) *DirTrigger {
	return &DirTrigger{Dir: dir}
}

// Save writes data to Dir/filename, creating Dir if needed
func (d *DirTrigger) Save(ctx context.Context, filename, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("refusing to save empty document %q", filename)
	}
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(d.Dir, SafeFilename(filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// File is a document held by a MemoryTrigger
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// MemoryTrigger keeps documents in memory so they can be served over HTTP
type MemoryTrigger struct {
	mu    sync.RWMutex
	files map[string]File
}

// NewMemoryTrigger creates an empty in-memory trigger
func NewMemoryTrigger() *MemoryTrigger {
	return &MemoryTrigger{files: make(map[string]File)}
}

// Save stores a copy of data under filename, replacing any previous document of that name
func (m *MemoryTrigger) Save(ctx context.Context, filename, contentType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("refusing to save empty document %q", filename)
	}
	name := SafeFilename(filename)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = File{Name: name, ContentType: contentType, Data: append([]byte(nil), data...)}
	return nil
}

// Get returns the named document
func (m *MemoryTrigger) Get(filename string) (File, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[filename]
	return f, ok
}

