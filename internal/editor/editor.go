// Package editor holds the per-draft editing state machine. One Editor is
// created per draft being edited; it loads the entry, accumulates field
// changes, optionally enriches the draft with an AI reflection, and commits
// the result through the entry service.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"lumina/internal/domain"
	"lumina/internal/reflection"
)

// EntryStore is the slice of the entry service the editor consumes.
type EntryStore interface {
	GetByID(ctx context.Context, user *domain.User, id uuid.UUID) *domain.JournalEntry
	Save(ctx context.Context, user *domain.User, patch domain.EntryPatch) (domain.JournalEntry, error)
}

// State is the editor's lifecycle position. Analyzing is not a State: it is
// an orthogonal flag that may overlap Ready.
type State int

const (
	StateLoading State = iota // constructed, draft not loaded yet
	StateReady                // draft loaded and editable
	StateSaving               // commit in flight
	StateDone                 // committed; the editor is finished
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSaving:
		return "saving"
	case StateDone:
		return "done"
	}
	return "unknown"
}

var (
	// ErrNotOpen is returned when a draft operation runs before Open succeeds.
	ErrNotOpen = errors.New("editor: no draft open")
	// ErrDone is returned for operations on an already-committed draft.
	ErrDone = errors.New("editor: draft already committed")
)

// Draft is the in-memory working copy of an entry. ID is uuid.Nil until the
// first successful commit. Date is display-only: commits never send it, so
// the stored authored date survives edits.
type Draft struct {
	ID           uuid.UUID
	Title        string
	Content      string
	Date         time.Time
	Mood         string
	AIReflection string
}

// Editor coordinates edits to one draft. Commit and RequestReflection are
// mutually exclusive: while either is in flight the other is rejected with
// domain.ErrBusy, so a reflection result can never land mid-save and a save
// can never pick up half-merged mood/reflection fields.
type Editor struct {
	store    EntryStore
	analyzer reflection.Analyzer
	user     *domain.User

	mu        sync.Mutex
	state     State
	analyzing bool
	draft     Draft
}

func New(store EntryStore, analyzer reflection.Analyzer) *Editor {
	return &Editor{store: store, analyzer: analyzer, state: StateLoading}
}

// Open loads the draft and moves the editor to Ready. id == uuid.Nil opens a
// fresh draft with empty fields; any other id is fetched through the store,
// and a missing or inaccessible entry yields domain.ErrNotFound so the
// caller can navigate away instead of presenting a broken editor.
func (e *Editor) Open(ctx context.Context, user *domain.User, id uuid.UUID) error {
	if user == nil {
		return fmt.Errorf("editor.Editor.Open: %w", domain.ErrNotAuthenticated)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateLoading {
		return fmt.Errorf("editor.Editor.Open: already open (%s)", e.state)
	}
	e.user = user

	if id == uuid.Nil {
		e.draft = Draft{}
		e.state = StateReady
		return nil
	}

	entry := e.store.GetByID(ctx, user, id)
	if entry == nil {
		return fmt.Errorf("editor.Editor.Open: %w", domain.ErrNotFound)
	}
	e.draft = Draft{
		ID:           entry.ID,
		Title:        entry.Title,
		Content:      entry.Content,
		Date:         entry.Date,
		Mood:         entry.Mood,
		AIReflection: entry.AIReflection,
	}
	e.state = StateReady
	return nil
}

// SetTitle updates the draft title. Editing is allowed while a reflection is
// running; the analysis snapshot was taken when it started.
func (e *Editor) SetTitle(title string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	e.draft.Title = title
	return nil
}

func (e *Editor) SetContent(content string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	e.draft.Content = content
	return nil
}

// SetInsight places a previously obtained mood/reflection pair on the draft.
// The two fields only ever change together; callers that fetched a
// reflection out of band (e.g. a separate analyze request) merge it here
// before committing.
func (e *Editor) SetInsight(mood, aiReflection string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	if e.analyzing {
		return domain.ErrBusy
	}
	e.draft.Mood = mood
	e.draft.AIReflection = aiReflection
	return nil
}

// RequestReflection runs the analyzer over the current content and merges
// mood and reflection into the draft as one unit. The analyzer is total, so
// the only errors here are state errors: no open draft, empty content, or a
// commit/reflection already in flight.
func (e *Editor) RequestReflection(ctx context.Context) (reflection.Insight, error) {
	e.mu.Lock()
	if err := e.editableLocked(); err != nil {
		e.mu.Unlock()
		return reflection.Insight{}, fmt.Errorf("editor.Editor.RequestReflection: %w", err)
	}
	if e.analyzing {
		e.mu.Unlock()
		return reflection.Insight{}, fmt.Errorf("editor.Editor.RequestReflection: %w", domain.ErrBusy)
	}
	content := strings.TrimSpace(e.draft.Content)
	if content == "" {
		e.mu.Unlock()
		return reflection.Insight{}, fmt.Errorf("editor.Editor.RequestReflection: %w: content is required", domain.ErrValidation)
	}
	e.analyzing = true
	e.mu.Unlock()

	insight := e.analyzer.Analyze(ctx, content)

	e.mu.Lock()
	e.analyzing = false
	e.draft.Mood = insight.Mood
	e.draft.AIReflection = insight.Reflection
	e.mu.Unlock()
	return insight, nil
}

// Commit persists the draft. The patch never carries a date: on create the
// store stamps "now", on update the stored date is left untouched. On a
// store failure the editor returns to Ready with the draft intact so the
// user can retry; on success it moves to Done and the saved entry (with its
// store-assigned id on create) is returned.
func (e *Editor) Commit(ctx context.Context) (domain.JournalEntry, error) {
	e.mu.Lock()
	if err := e.editableLocked(); err != nil {
		e.mu.Unlock()
		return domain.JournalEntry{}, fmt.Errorf("editor.Editor.Commit: %w", err)
	}
	if e.analyzing {
		e.mu.Unlock()
		return domain.JournalEntry{}, fmt.Errorf("editor.Editor.Commit: %w", domain.ErrBusy)
	}
	if strings.TrimSpace(e.draft.Title) == "" || strings.TrimSpace(e.draft.Content) == "" {
		e.mu.Unlock()
		return domain.JournalEntry{}, fmt.Errorf("editor.Editor.Commit: %w: title and content are required", domain.ErrValidation)
	}
	patch := domain.EntryPatch{
		ID:           e.draft.ID,
		Title:        e.draft.Title,
		Content:      e.draft.Content,
		Mood:         e.draft.Mood,
		AIReflection: e.draft.AIReflection,
	}
	e.state = StateSaving
	e.mu.Unlock()

	saved, err := e.store.Save(ctx, e.user, patch)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = StateReady
		return domain.JournalEntry{}, fmt.Errorf("editor.Editor.Commit: %w", err)
	}
	e.state = StateDone
	e.draft.ID = saved.ID
	e.draft.Date = saved.Date
	return saved, nil
}

// State reports the current lifecycle position.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Analyzing reports whether a reflection request is in flight.
func (e *Editor) Analyzing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyzing
}

// Draft returns a copy of the working draft.
func (e *Editor) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

func (e *Editor) editableLocked() error {
	switch e.state {
	case StateLoading:
		return ErrNotOpen
	case StateSaving:
		return domain.ErrBusy
	case StateDone:
		return ErrDone
	}
	return nil
}
