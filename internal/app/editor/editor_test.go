package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/domain/section"
	"github.com/minhtm92-gif/PixEcom-sub002/internal/app/storage/memory"
)

func checkDense(t *testing.T, e *Editor) {
	t.Helper()
	sections := e.Sections()
	for i, sec := range sections {
		if sec.Position != i {
			t.Fatalf("position invariant broken: index %d has position %d (%#v)", i, sec.Position, sections)
		}
	}
}

func TestEditor_AddRemoveKeepsDensePositions(t *testing.T) {
	e := New("page-1", nil, nil)

	hero := e.Add("hero", nil)
	pricing := e.Add("pricing", map[string]any{"currency": "USD"})
	e.Add("faq", nil)
	checkDense(t, e)

	if !e.Dirty() {
		t.Fatalf("expected dirty after add")
	}
	if e.Selected() == "" {
		t.Fatalf("expected new section selected")
	}

	e.Remove(pricing.ID)
	checkDense(t, e)
	if got := len(e.Sections()); got != 2 {
		t.Fatalf("expected 2 sections, got %d", got)
	}

	// Idempotent deletion: a second remove of the same id changes nothing.
	before := e.Sections()
	e.Remove(pricing.ID)
	after := e.Sections()
	if len(before) != len(after) {
		t.Fatalf("second remove changed the list")
	}

	e.Select(hero.ID)
	e.Remove(hero.ID)
	if e.Selected() != "" {
		t.Fatalf("expected selection cleared after removing selected section")
	}
	checkDense(t, e)
}

func TestEditor_MoveOutOfRangeIsNoOp(t *testing.T) {
	e := New("page-1", nil, nil)
	e.Add("hero", nil)
	e.Add("pricing", nil)
	e.Add("faq", nil)
	e.Load(e.Sections()) // clear dirty, keep order

	before := e.Sections()
	e.Move(-1, 1)
	e.Move(0, 3)
	e.Move(5, 0)
	after := e.Sections()

	for i := range before {
		if before[i].ID != after[i].ID {
			t.Fatalf("out-of-range move reordered the list")
		}
	}
	if e.Dirty() {
		t.Fatalf("out-of-range move must not mark dirty")
	}
}

func TestEditor_MoveReorders(t *testing.T) {
	e := New("page-1", nil, nil)
	a := e.Add("a", nil)
	b := e.Add("b", nil)
	c := e.Add("c", nil)

	e.Move(0, 2)
	checkDense(t, e)

	got := e.Sections()
	want := []string{b.ID, c.ID, a.ID}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("unexpected order at %d: got %s want %s", i, got[i].ID, want[i])
		}
	}
}

func TestEditor_DuplicateCopiesConfigByValue(t *testing.T) {
	e := New("page-1", nil, nil)
	src := e.Add("hero", map[string]any{"headline": "Sale", "cta": map[string]any{"label": "Buy"}})

	dup, ok := e.Duplicate(src.ID)
	if !ok {
		t.Fatalf("expected duplicate to succeed")
	}
	if dup.ID == src.ID {
		t.Fatalf("duplicate must get a new id")
	}
	if dup.Type != src.Type || dup.Visible != src.Visible {
		t.Fatalf("duplicate must copy type and visibility: %#v", dup)
	}
	if e.Selected() != dup.ID {
		t.Fatalf("duplicate must be selected")
	}
	checkDense(t, e)

	// Duplicate sits immediately after the source.
	sections := e.Sections()
	if sections[0].ID != src.ID || sections[1].ID != dup.ID {
		t.Fatalf("duplicate not inserted after source: %#v", sections)
	}

	// Mutating the duplicate's config must not leak into the original.
	e.UpdateConfig(dup.ID, map[string]any{"headline": "Changed"})
	sections = e.Sections()
	if sections[0].Config["headline"] != "Sale" {
		t.Fatalf("original config mutated through duplicate")
	}
	if sections[1].Config["headline"] != "Changed" {
		t.Fatalf("duplicate config update not applied")
	}
}

func TestEditor_UpdateConfigShallowMerge(t *testing.T) {
	e := New("page-1", nil, nil)
	sec := e.Add("hero", map[string]any{"headline": "Sale", "theme": "dark"})

	e.UpdateConfig(sec.ID, map[string]any{"headline": "New", "badge": "hot"})

	cfg := e.Sections()[0].Config
	if cfg["headline"] != "New" || cfg["theme"] != "dark" || cfg["badge"] != "hot" {
		t.Fatalf("unexpected merged config: %#v", cfg)
	}

	// Absent id is a no-op.
	e.Load(e.Sections())
	e.UpdateConfig("missing", map[string]any{"x": 1})
	if e.Dirty() {
		t.Fatalf("update of absent id must not mark dirty")
	}
}

func TestEditor_ToggleVisibilityKeepsSectionInList(t *testing.T) {
	e := New("page-1", nil, nil)
	sec := e.Add("hero", nil)

	e.ToggleVisibility(sec.ID)
	if got := e.Sections(); len(got) != 1 || got[0].Visible {
		t.Fatalf("expected hidden section still present: %#v", got)
	}
	e.ToggleVisibility(sec.ID)
	if !e.Sections()[0].Visible {
		t.Fatalf("expected visibility restored")
	}
}

func TestEditor_LoadClearsDirtyAndSelection(t *testing.T) {
	e := New("page-1", nil, nil)
	e.Add("hero", nil)

	e.Load([]section.Section{
		{ID: "s2", Type: "faq", Position: 7, Visible: true},
		{ID: "s1", Type: "hero", Position: 2, Visible: true},
	})
	if e.Dirty() || e.Selected() != "" {
		t.Fatalf("load must clear dirty and selection")
	}

	// Positions are renumbered from the given order.
	got := e.Sections()
	if got[0].ID != "s1" || got[0].Position != 0 || got[1].ID != "s2" || got[1].Position != 1 {
		t.Fatalf("load did not renumber by position order: %#v", got)
	}
}

func TestEditor_SaveRoundTrip(t *testing.T) {
	mem := memory.New()
	pg, err := mem.CreatePage(context.Background(), section.Page{StoreID: "st", Slug: "home", Kind: section.KindHomepage})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}

	e := New(pg.ID, mem, nil)
	e.Add("hero", map[string]any{"headline": "Hi"})
	e.Add("pricing", nil)
	e.ToggleVisibility(e.Sections()[1].ID)

	if err := e.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if e.Dirty() {
		t.Fatalf("expected dirty cleared after successful save")
	}

	restored := New(pg.ID, mem, nil)
	if err := restored.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	a, b := e.Sections(), restored.Sections()
	if len(a) != len(b) {
		t.Fatalf("round trip lost sections: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Type != b[i].Type || a[i].Visible != b[i].Visible || a[i].Position != b[i].Position {
			t.Fatalf("round trip mismatch at %d: %#v vs %#v", i, a[i], b[i])
		}
	}
	if b[0].Config["headline"] != "Hi" {
		t.Fatalf("config lost in round trip: %#v", b[0].Config)
	}
}

type failingGateway struct{}

func (failingGateway) ListSections(context.Context, string) ([]section.Section, error) {
	return nil, errors.New("unreachable")
}

func (failingGateway) ReplaceSections(context.Context, string, []section.Section) error {
	return errors.New("connection reset")
}

func TestEditor_SaveFailureKeepsDirty(t *testing.T) {
	e := New("page-1", failingGateway{}, nil)
	e.Add("hero", nil)

	if err := e.Save(context.Background()); err == nil {
		t.Fatalf("expected save error")
	}
	if !e.Dirty() {
		t.Fatalf("failed save must leave dirty flag set")
	}
}

func TestEditor_MutationDuringSaveKeepsDirty(t *testing.T) {
	mem := memory.New()
	pg, err := mem.CreatePage(context.Background(), section.Page{StoreID: "st", Slug: "home", Kind: section.KindHomepage})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}

	e := New(pg.ID, blockingGateway{inner: mem, during: func() {}}, nil)
	e.Add("hero", nil)

	gw := blockingGateway{inner: mem, during: func() { e.Add("late", nil) }}
	e.gateway = gw

	if err := e.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !e.Dirty() {
		t.Fatalf("edits made while a save was in flight must keep the editor dirty")
	}
}

type blockingGateway struct {
	inner  Gateway
	during func()
}

func (g blockingGateway) ListSections(ctx context.Context, pageID string) ([]section.Section, error) {
	return g.inner.ListSections(ctx, pageID)
}

func (g blockingGateway) ReplaceSections(ctx context.Context, pageID string, sections []section.Section) error {
	g.during()
	return g.inner.ReplaceSections(ctx, pageID, sections)
}
