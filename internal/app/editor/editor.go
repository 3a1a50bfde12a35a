// Package editor implements the in-process section list for one page being
// edited: an ordered, mutable collection of typed sections with selection and
// unsaved-change tracking. Every mutation keeps the position invariant intact:
// for N sections the positions are always exactly {0..N-1}.
package editor

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/domain/section"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/logging"
)

// Gateway persists the full section list of a page. storage.PageStore
// satisfies it.
type Gateway interface {
	ListSections(ctx context.Context, pageID string) ([]section.Section, error)
	ReplaceSections(ctx context.Context, pageID string, sections []section.Section) error
}

// Editor is the authoritative in-process section list for a single page
// editing session. Mutations are synchronous and total: invalid input is
// absorbed as a no-op rather than returned as an error, so the builder UI is
// never interrupted by a malformed but harmless local operation.
type Editor struct {
	pageID  string
	gateway Gateway
	log     *logging.Logger

	mu       sync.Mutex
	sections []section.Section
	selected string
	dirty    bool
	gen      uint64
}

// New creates an editor for the given page. The section list starts empty;
// call Load to populate it from the persistence gateway's section list.
func New(pageID string, gateway Gateway, log *logging.Logger) *Editor {
	if log == nil {
		log = logging.NewDefault("section-editor")
	}
	return &Editor{
		pageID:  pageID,
		gateway: gateway,
		log:     log.WithField("page_id", pageID),
	}
}

// PageID returns the page this editor belongs to.
func (e *Editor) PageID() string {
	return e.pageID
}

// Load replaces the whole list with the given sections, renumbering positions
// from the given order. Dirty flag and selection are cleared. Empty input
// yields an empty list.
func (e *Editor) Load(sections []section.Section) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sections = make([]section.Section, len(sections))
	for i := range sections {
		e.sections[i] = sections[i].Clone()
	}
	sort.SliceStable(e.sections, func(i, j int) bool {
		return e.sections[i].Position < e.sections[j].Position
	})
	e.renumberLocked()
	e.selected = ""
	e.dirty = false
	e.gen++
}

// Add appends a new section of the given type with a fresh id, marks it
// visible, selects it and marks the list dirty. A nil initial config yields
// an empty config map.
func (e *Editor) Add(sectionType string, initialConfig map[string]any) section.Section {
	e.mu.Lock()
	defer e.mu.Unlock()

	sec := section.Section{
		ID:       uuid.NewString(),
		Type:     sectionType,
		Position: len(e.sections),
		Visible:  true,
		Config:   initialConfig,
	}
	if sec.Config == nil {
		sec.Config = map[string]any{}
	}
	sec = sec.Clone()

	e.sections = append(e.sections, sec)
	e.selected = sec.ID
	e.markDirtyLocked()
	return sec.Clone()
}

// Remove deletes the section with the given id. Removing an absent id is a
// no-op, not an error. Remaining positions are renumbered and selection is
// cleared if it pointed at the removed section.
func (e *Editor) Remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOfLocked(id)
	if idx < 0 {
		return
	}

	e.sections = append(e.sections[:idx], e.sections[idx+1:]...)
	e.renumberLocked()
	if e.selected == id {
		e.selected = ""
	}
	e.markDirtyLocked()
}

// UpdateConfig shallow-merges the partial config into the target section's
// config: existing keys are overwritten, others preserved. No-op if the id is
// absent.
func (e *Editor) UpdateConfig(id string, partial map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOfLocked(id)
	if idx < 0 || len(partial) == 0 {
		return
	}

	if e.sections[idx].Config == nil {
		e.sections[idx].Config = map[string]any{}
	}
	for k, v := range partial {
		e.sections[idx].Config[k] = v
	}
	e.markDirtyLocked()
}

// ToggleVisibility flips the visible flag of the target section. No-op if the
// id is absent. Visibility affects render-time inclusion only; the section
// stays in the list and in persistence.
func (e *Editor) ToggleVisibility(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOfLocked(id)
	if idx < 0 {
		return
	}

	e.sections[idx].Visible = !e.sections[idx].Visible
	e.markDirtyLocked()
}

// Move reorders by visual index: the section at from is removed and
// reinserted at to, then positions are renumbered. Out-of-range indices
// leave the list unchanged; stale indices from a drag-and-drop UI are
// expected and must not fault the session.
func (e *Editor) Move(from, to int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.sections)
	if from < 0 || from >= n || to < 0 || to >= n {
		return
	}
	if from == to {
		return
	}

	sec := e.sections[from]
	rest := append(e.sections[:from:from], e.sections[from+1:]...)
	e.sections = append(rest[:to:to], append([]section.Section{sec}, rest[to:]...)...)
	e.renumberLocked()
	e.markDirtyLocked()
}

// Duplicate inserts a deep-value copy of the target section (new id, same
// type, visibility and config) immediately after the source, selects the
// duplicate and marks dirty. No-op if the id is absent.
func (e *Editor) Duplicate(id string) (section.Section, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOfLocked(id)
	if idx < 0 {
		return section.Section{}, false
	}

	dup := e.sections[idx].Clone()
	dup.ID = uuid.NewString()

	e.sections = append(e.sections[:idx+1:idx+1], append([]section.Section{dup}, e.sections[idx+1:]...)...)
	e.renumberLocked()
	e.selected = dup.ID
	e.markDirtyLocked()
	return dup.Clone(), true
}

// Select marks the section with the given id as selected. Selecting an
// absent id clears the selection.
func (e *Editor) Select(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.indexOfLocked(id) < 0 {
		e.selected = ""
		return
	}
	e.selected = id
}

// Selected returns the id of the currently selected section, or "".
func (e *Editor) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// Dirty reports whether there are unsaved changes.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// Sections returns the current list in position order as a deep copy.
func (e *Editor) Sections() []section.Section {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Save delegates the current list, in position order, to the persistence
// gateway. On success the dirty flag is cleared unless further mutations
// happened while the save was in flight; on failure the dirty flag stays set
// and the error is returned for the caller to decide on retry. Concurrent
// Save calls each issue an independent persistence call.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	snapshot := e.snapshotLocked()
	gen := e.gen
	e.mu.Unlock()

	if err := e.gateway.ReplaceSections(ctx, e.pageID, snapshot); err != nil {
		e.log.WithContext(ctx).WithError(err).Warn("section save failed")
		return err
	}

	e.mu.Lock()
	if e.gen == gen {
		e.dirty = false
	}
	e.mu.Unlock()

	e.log.WithContext(ctx).WithField("sections", len(snapshot)).Debug("section list saved")
	return nil
}

// Reload fetches the persisted section list from the gateway and loads it,
// discarding local edits.
func (e *Editor) Reload(ctx context.Context) error {
	sections, err := e.gateway.ListSections(ctx, e.pageID)
	if err != nil {
		return err
	}
	e.Load(sections)
	return nil
}

// indexOfLocked returns the slice index of the section with the given id, or
// -1. The slice is always kept in position order, so slice index and visual
// index coincide.
func (e *Editor) indexOfLocked(id string) int {
	for i := range e.sections {
		if e.sections[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Editor) renumberLocked() {
	for i := range e.sections {
		e.sections[i].Position = i
	}
}

// markDirtyLocked flips the dirty flag together with the data change, under
// the same lock, so no observer can see changed data with a clean flag.
func (e *Editor) markDirtyLocked() {
	e.dirty = true
	e.gen++
}

func (e *Editor) snapshotLocked() []section.Section {
	out := make([]section.Section, len(e.sections))
	for i := range e.sections {
		out[i] = e.sections[i].Clone()
	}
	return out
}
