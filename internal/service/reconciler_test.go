package service

import (
	"context"
	"reflect"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	trelloDomain "hufschlaeger.net/trello-housekeeper/internal/domain/trello"
)

func item(id, name string, state trelloDomain.CheckItemState) trelloDomain.CheckItem {
	return trelloDomain.CheckItem{ID: id, Name: name, State: state}
}

func newTestReconciler(board Board) (*Reconciler, *test.Hook) {
	logger, hook := test.NewNullLogger()
	return NewReconciler(board, NewMapper(testConfig()), logger), hook
}

func TestPlanChecklist_Convergence(t *testing.T) {
	items := []trelloDomain.CheckItem{
		item("i1", "task A", trelloDomain.StateComplete),
		item("i2", "task C", trelloDomain.StateIncomplete),
	}
	entries := []Contribution{
		{Title: "task A", Closed: false},
		{Title: "task B", Closed: true},
	}

	plan := PlanChecklist(items, entries)

	wantUpdates := []ItemUpdate{{Item: items[0], State: trelloDomain.StateIncomplete}}
	if !reflect.DeepEqual(plan.Updates, wantUpdates) {
		t.Errorf("Updates = %+v, want %+v", plan.Updates, wantUpdates)
	}
	if !reflect.DeepEqual(plan.Deletes, []trelloDomain.CheckItem{items[1]}) {
		t.Errorf("Deletes = %+v", plan.Deletes)
	}
	if !reflect.DeepEqual(plan.Inserts, []Contribution{{Title: "task B", Closed: true}}) {
		t.Errorf("Inserts = %+v", plan.Inserts)
	}
}

func TestPlanChecklist_InSyncIsEmpty(t *testing.T) {
	items := []trelloDomain.CheckItem{
		item("i1", "task A", trelloDomain.StateIncomplete),
		item("i2", "task B", trelloDomain.StateComplete),
	}
	entries := []Contribution{{Title: "task B", Closed: true}, {Title: "task A", Closed: false}}

	if plan := PlanChecklist(items, entries); !plan.Empty() {
		t.Fatalf("expected empty plan, got %+v", plan)
	}
}

func TestPlanChecklist_DuplicateTitlesMatchedOneToOne(t *testing.T) {
	items := []trelloDomain.CheckItem{
		item("i1", "Water plants", trelloDomain.StateIncomplete),
		item("i2", "Water plants", trelloDomain.StateIncomplete),
		item("i3", "Water plants", trelloDomain.StateIncomplete),
	}
	// Zwei Karten mit gleichem Titel, davon die zweite erledigt
	entries := []Contribution{
		{Title: "Water plants", Closed: false},
		{Title: "Water plants", Closed: true},
	}

	plan := PlanChecklist(items, entries)

	// i1 passt zum ersten Beitrag, i2 zum zweiten (erledigt), i3 bleibt übrig
	wantUpdates := []ItemUpdate{{Item: items[1], State: trelloDomain.StateComplete}}
	if !reflect.DeepEqual(plan.Updates, wantUpdates) {
		t.Errorf("Updates = %+v", plan.Updates)
	}
	if !reflect.DeepEqual(plan.Deletes, []trelloDomain.CheckItem{items[2]}) {
		t.Errorf("Deletes = %+v", plan.Deletes)
	}
	if len(plan.Inserts) != 0 {
		t.Errorf("Inserts = %+v", plan.Inserts)
	}
}

func TestPlanChecklist_InsertsKeepAggregatedOrder(t *testing.T) {
	items := []trelloDomain.CheckItem{item("i1", "b", trelloDomain.StateIncomplete)}
	entries := []Contribution{
		{Title: "a", Closed: false},
		{Title: "b", Closed: false},
		{Title: "c", Closed: true},
		{Title: "b", Closed: true},
		{Title: "a", Closed: true},
	}

	plan := PlanChecklist(items, entries)

	want := []Contribution{
		{Title: "a", Closed: false},
		{Title: "c", Closed: true},
		{Title: "b", Closed: true},
		{Title: "a", Closed: true},
	}
	if !reflect.DeepEqual(plan.Inserts, want) {
		t.Fatalf("Inserts = %+v, want %+v", plan.Inserts, want)
	}
}

func TestPlanChecklist_EmptyChecklist(t *testing.T) {
	entries := []Contribution{{Title: "x", Closed: false}}
	plan := PlanChecklist(nil, entries)
	if !reflect.DeepEqual(plan.Inserts, entries) || len(plan.Updates) != 0 || len(plan.Deletes) != 0 {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestPlanChecklist_NoEntriesDeletesAll(t *testing.T) {
	items := []trelloDomain.CheckItem{item("i1", "x", trelloDomain.StateComplete)}
	plan := PlanChecklist(items, nil)
	if !reflect.DeepEqual(plan.Deletes, items) || len(plan.Inserts) != 0 {
		t.Fatalf("unexpected plan %+v", plan)
	}
}

func TestSelfLabel(t *testing.T) {
	home := projectLabel("lbl-home", "Home")
	homeTwin := projectLabel("lbl-home-2", "Home")
	other := projectLabel("lbl-work", "Work")
	colored := trelloDomain.Label{ID: "lbl-home-red", Name: "Home", Color: strPtr("red")}

	projects := Projects{
		"lbl-home":     {{Title: "t"}},
		"lbl-home-2":   {{Title: "t"}},
		"lbl-work":     {{Title: "t"}},
		"lbl-home-red": {{Title: "t"}},
	}

	tests := []struct {
		name        string
		master      trelloDomain.Card
		projects    Projects
		wantLabel   string
		wantIgnored []string
	}{
		{"match", card("p", "Home", testListProjects, false, other, home), projects, "lbl-home", nil},
		{"first wins", card("p", "Home", testListProjects, false, home, homeTwin), projects, "lbl-home", []string{"lbl-home-2"}},
		{"colored ignored", card("p", "Home", testListProjects, false, colored), projects, "", nil},
		{"name mismatch", card("p", "Garden", testListProjects, false, home), projects, "", nil},
		{"no contributions", card("p", "Home", testListProjects, false, home), Projects{}, "", nil},
		{"skips empty first", card("p", "Home", testListProjects, false, home, homeTwin), Projects{"lbl-home-2": {{Title: "t"}}}, "lbl-home-2", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, ignored := SelfLabel(tt.master, tt.projects)
			got := ""
			if label != nil {
				got = label.ID
			}
			if got != tt.wantLabel {
				t.Errorf("label = %q, want %q", got, tt.wantLabel)
			}
			if !reflect.DeepEqual(ignored, tt.wantIgnored) {
				t.Errorf("ignored = %v, want %v", ignored, tt.wantIgnored)
			}
		})
	}
}

func TestReconcile_ConvergesExistingChecklist(t *testing.T) {
	board := &fakeBoard{}
	r, _ := newTestReconciler(board)

	master := card("p1", "P", testListProjects, false, projectLabel("lbl-p", "P"))
	master.Checklists = []trelloDomain.Checklist{
		{ID: "cl-other", Name: "Notes"},
		{ID: "cl-p", Name: "@P", CheckItems: []trelloDomain.CheckItem{
			item("i1", "task A", trelloDomain.StateComplete),
			item("i2", "task C", trelloDomain.StateIncomplete),
		}},
	}
	projects := Projects{"lbl-p": {{Title: "task A", Closed: false}, {Title: "task B", Closed: true}}}

	var stats Stats
	if err := r.Reconcile(context.Background(), master, projects, &stats); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	want := []string{
		"update-item i1 incomplete",
		"delete-item i2",
		"create-item cl-p task B=true",
	}
	if !reflect.DeepEqual(board.ops(), want) {
		t.Fatalf("ops = %v, want %v", board.ops(), want)
	}
	if stats.ItemsUpdated != 1 || stats.ItemsDeleted != 1 || stats.ItemsCreated != 1 || stats.ChecklistsCreated != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestReconcile_CreatesMissingChecklist(t *testing.T) {
	board := &fakeBoard{}
	r, _ := newTestReconciler(board)

	master := card("p1", "Home", testListProjects, false, projectLabel("lbl-home", "Home"))
	projects := Projects{"lbl-home": {{Title: "Buy milk", Closed: false}, {Title: "Fix sink", Closed: true}}}

	var stats Stats
	if err := r.Reconcile(context.Background(), master, projects, &stats); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	want := []string{
		"create-checklist p1 @Home",
		"create-item cl-1 Buy milk=false",
		"create-item cl-1 Fix sink=true",
	}
	if !reflect.DeepEqual(board.ops(), want) {
		t.Fatalf("ops = %v, want %v", board.ops(), want)
	}
	if stats.ChecklistsCreated != 1 || stats.ItemsCreated != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestReconcile_IdempotentOnConvergedBoard(t *testing.T) {
	board := &fakeBoard{}
	r, _ := newTestReconciler(board)

	master := card("p1", "Home", testListProjects, false, projectLabel("lbl-home", "Home"))
	projects := Projects{"lbl-home": {{Title: "A", Closed: false}, {Title: "B", Closed: true}, {Title: "A", Closed: true}}}

	var stats Stats
	if err := r.Reconcile(context.Background(), master, projects, &stats); err != nil {
		t.Fatalf("first Reconcile() error = %v", err)
	}

	// Ergebnis des ersten Laufs als neuen Snapshot aufbauen
	converged := trelloDomain.Checklist{ID: "cl-1", Name: "@Home"}
	for _, c := range board.calls {
		if c.Op != "create-item" {
			continue
		}
		name, checked, _ := strings.Cut(c.Arg, "=")
		converged.CheckItems = append(converged.CheckItems,
			item(board.id("item"), name, trelloDomain.StateFor(checked == "true")))
	}
	master.Checklists = []trelloDomain.Checklist{converged}

	second := &fakeBoard{}
	r2, _ := newTestReconciler(second)
	if err := r2.Reconcile(context.Background(), master, projects, &stats); err != nil {
		t.Fatalf("second Reconcile() error = %v", err)
	}
	if len(second.calls) != 0 {
		t.Fatalf("second run must not write, got %v", second.ops())
	}
}

func TestReconcile_OrphanChecklistDeleted(t *testing.T) {
	board := &fakeBoard{}
	r, hook := newTestReconciler(board)

	master := card("p1", "Home", testListProjects, false, projectLabel("lbl-home", "Home"))
	master.Checklists = []trelloDomain.Checklist{{ID: "cl-home", Name: "@Home", CheckItems: []trelloDomain.CheckItem{
		item("i1", "old", trelloDomain.StateComplete),
	}}}

	var stats Stats
	// Label existiert, aber keine Karte trägt es mehr
	if err := r.Reconcile(context.Background(), master, Projects{}, &stats); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if !reflect.DeepEqual(board.ops(), []string{"delete-checklist cl-home"}) {
		t.Fatalf("ops = %v", board.ops())
	}
	if stats.ChecklistsDeleted != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if hook.LastEntry() == nil || hook.LastEntry().Message != "Verwaiste Projekt-Checkliste gelöscht" {
		t.Errorf("expected orphan log entry, got %+v", hook.LastEntry())
	}
}

func TestReconcile_NoLabelNoChecklistIsNoop(t *testing.T) {
	board := &fakeBoard{}
	r, _ := newTestReconciler(board)

	master := card("p1", "Home", testListProjects, false)
	var stats Stats
	if err := r.Reconcile(context.Background(), master, Projects{"lbl-x": {{Title: "t"}}}, &stats); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(board.calls) != 0 {
		t.Fatalf("expected no writes, got %v", board.ops())
	}
}

func TestReconcile_MultipleSelfLabelsWarns(t *testing.T) {
	board := &fakeBoard{}
	r, hook := newTestReconciler(board)

	master := card("p1", "Home", testListProjects, false,
		projectLabel("lbl-home", "Home"), projectLabel("lbl-home-2", "Home"))
	projects := Projects{
		"lbl-home":   {{Title: "from first"}},
		"lbl-home-2": {{Title: "from second"}},
	}

	var stats Stats
	if err := r.Reconcile(context.Background(), master, projects, &stats); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	for _, op := range board.ops() {
		if strings.Contains(op, "from second") {
			t.Errorf("second label must be ignored, got %s", op)
		}
	}

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == log.WarnLevel {
			warned = true
			if ids, _ := e.Data["ignored_labels"].([]string); !reflect.DeepEqual(ids, []string{"lbl-home-2"}) {
				t.Errorf("ignored_labels = %v", e.Data["ignored_labels"])
			}
		}
	}
	if !warned {
		t.Fatal("expected a warning about ignored labels")
	}
}

func TestReconcile_StopsProjectOnFailure(t *testing.T) {
	board := &fakeBoard{failOn: []string{"update-item"}}
	r, _ := newTestReconciler(board)

	master := card("p1", "P", testListProjects, false, projectLabel("lbl-p", "P"))
	master.Checklists = []trelloDomain.Checklist{{ID: "cl-p", Name: "@P", CheckItems: []trelloDomain.CheckItem{
		item("i1", "A", trelloDomain.StateComplete),
	}}}
	projects := Projects{"lbl-p": {{Title: "A", Closed: false}, {Title: "B", Closed: false}}}

	var stats Stats
	err := r.Reconcile(context.Background(), master, projects, &stats)
	if err == nil || !strings.Contains(err.Error(), "update-item failed 500") {
		t.Fatalf("expected update failure, got %v", err)
	}
	// Nach dem Fehler wird nichts mehr geschrieben
	if !reflect.DeepEqual(board.ops(), []string{"update-item i1 incomplete"}) {
		t.Fatalf("ops = %v", board.ops())
	}
}
