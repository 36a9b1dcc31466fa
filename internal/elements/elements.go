// Package elements keeps the per-course index of custom question elements
// and rebuilds it at the end of every full sync.
package elements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"

	"github.com/maraichr/coursesync/internal/syncer"
)

// ReloadChannel receives a message after each course's elements reload.
const ReloadChannel = "coursesync:reload"

const elementsDir = "elements"

// Element is elements/<name>/info.json.
type Element struct {
	Name         string          `json:"-"`
	Controller   string          `json:"controller"`
	Dependencies json.RawMessage `json:"dependencies,omitempty"`
}

// Registry maps course id to that course's elements.
type Registry struct {
	mu       sync.RWMutex
	byCourse map[uuid.UUID]map[string]Element
}

func NewRegistry() *Registry {
	return &Registry{byCourse: make(map[uuid.UUID]map[string]Element)}
}

// Get returns the element called name for the course.
func (r *Registry) Get(courseID uuid.UUID, name string) (Element, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	el, ok := r.byCourse[courseID][name]
	return el, ok
}

// Names returns the sorted element names for the course.
func (r *Registry) Names(courseID uuid.UUID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byCourse[courseID]))
	for n := range r.byCourse[courseID] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) set(courseID uuid.UUID, els map[string]Element) {
	r.mu.Lock()
	r.byCourse[courseID] = els
	r.mu.Unlock()
}

// Scan reads every elements/<name>/info.json under courseDir. A course
// without an elements directory has no elements.
func Scan(courseDir string) (map[string]Element, error) {
	root := filepath.Join(courseDir, elementsDir)
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]Element{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read elements dir: %w", err)
	}

	out := make(map[string]Element, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, e.Name(), "info.json"))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read element %s: %w", e.Name(), err)
		}
		var el Element
		if err := json.Unmarshal(data, &el); err != nil {
			return nil, fmt.Errorf("parse element %s: %w", e.Name(), err)
		}
		el.Name = e.Name()
		out[el.Name] = el
	}
	return out, nil
}

// Reloader is the terminal pipeline hook. When a Valkey client is set it
// announces each reload so other processes can drop their caches.
type Reloader struct {
	registry *Registry
	client   valkey.Client
}

func NewReloader(registry *Registry, client valkey.Client) *Reloader {
	return &Reloader{registry: registry, client: client}
}

type reloadEvent struct {
	CourseID string   `json:"course_id"`
	RunID    string   `json:"run_id"`
	Elements []string `json:"elements"`
}

func (r *Reloader) Reload(ctx context.Context, rc *syncer.RunContext) error {
	els, err := Scan(rc.CourseDir)
	if err != nil {
		return err
	}
	r.registry.set(rc.CourseID, els)
	rc.Logger.Info("reloaded course elements", slog.Int("elements", len(els)))

	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(reloadEvent{
		CourseID: rc.CourseID.String(),
		RunID:    rc.RunID.String(),
		Elements: r.registry.Names(rc.CourseID),
	})
	if err != nil {
		return fmt.Errorf("marshal reload event: %w", err)
	}
	if err := r.client.Do(ctx, r.client.B().Publish().Channel(ReloadChannel).Message(string(payload)).Build()).Error(); err != nil {
		return fmt.Errorf("publish reload: %w", err)
	}
	return nil
}
