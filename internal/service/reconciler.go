package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	trelloDomain "hufschlaeger.net/trello-housekeeper/internal/domain/trello"
)

// ItemUpdate ändert den Status eines bestehenden Eintrags
type ItemUpdate struct {
	Item  trelloDomain.CheckItem
	State trelloDomain.CheckItemState
}

// ChecklistPlan sind die Schreibzugriffe, mit denen eine Checkliste den
// Beiträgen angeglichen wird
type ChecklistPlan struct {
	Updates []ItemUpdate
	Deletes []trelloDomain.CheckItem
	Inserts []Contribution
}

func (p ChecklistPlan) Empty() bool {
	return len(p.Updates) == 0 && len(p.Deletes) == 0 && len(p.Inserts) == 0
}

// pendingEntries ist eine Multimenge der noch nicht zugeordneten Beiträge,
// nach Titel gruppiert. Gleiche Titel werden in Snapshot-Reihenfolge
// einzeln verbraucht.
type pendingEntries map[string][]bool

func newPendingEntries(entries []Contribution) pendingEntries {
	p := make(pendingEntries, len(entries))
	for _, e := range entries {
		p[e.Title] = append(p[e.Title], e.Closed)
	}
	return p
}

// take verbraucht den ältesten Beitrag mit diesem Titel
func (p pendingEntries) take(title string) (closed bool, ok bool) {
	queue := p[title]
	if len(queue) == 0 {
		return false, false
	}
	closed, p[title] = queue[0], queue[1:]
	return closed, true
}

// PlanChecklist vergleicht die Einträge einer Checkliste über den Titel mit
// den Beiträgen. Passende Einträge bekommen den Status der Karte, übrige
// Einträge werden gelöscht, übrige Beiträge neu angelegt.
func PlanChecklist(items []trelloDomain.CheckItem, entries []Contribution) ChecklistPlan {
	var plan ChecklistPlan
	pending := newPendingEntries(entries)
	consumed := make(map[string]int)

	for _, item := range items {
		closed, ok := pending.take(item.Name)
		if !ok {
			plan.Deletes = append(plan.Deletes, item)
			continue
		}
		consumed[item.Name]++

		if want := trelloDomain.StateFor(closed); item.State != want {
			plan.Updates = append(plan.Updates, ItemUpdate{Item: item, State: want})
		}
	}

	// Verbraucht wurden je Titel die ersten Beiträge, der Rest wird angelegt
	for _, e := range entries {
		if consumed[e.Title] > 0 {
			consumed[e.Title]--
			continue
		}
		plan.Inserts = append(plan.Inserts, e)
	}

	return plan
}

// SelfLabel sucht das Projekt-Label einer Projektkarte: farblos, gleicher
// Name wie die Karte und mindestens ein Beitrag. Es gilt der erste Treffer;
// weitere passende Labels werden als ignored zurückgegeben.
func SelfLabel(master trelloDomain.Card, projects Projects) (label *trelloDomain.Label, ignored []string) {
	for i := range master.Labels {
		l := master.Labels[i]
		if !l.Colorless() || l.Name != master.Name {
			continue
		}
		if len(projects[l.ID]) == 0 {
			continue
		}
		if label == nil {
			label = &master.Labels[i]
			continue
		}
		ignored = append(ignored, l.ID)
	}
	return label, ignored
}

// Reconciler hält die Checklisten der Projektkarten synchron
type Reconciler struct {
	board  Board
	mapper *Mapper
	logger log.FieldLogger
}

func NewReconciler(board Board, mapper *Mapper, logger log.FieldLogger) *Reconciler {
	return &Reconciler{board: board, mapper: mapper, logger: logger}
}

// Reconcile bringt die Checkliste einer Projektkarte auf den Stand der
// Beiträge. Ein Fehler bricht nur dieses Projekt ab.
func (r *Reconciler) Reconcile(ctx context.Context, master trelloDomain.Card, projects Projects, stats *Stats) error {
	name := r.mapper.ChecklistName(master.Name)
	logger := r.logger.WithFields(log.Fields{"card": master.ID, "project": master.Name})

	label, ignored := SelfLabel(master, projects)
	if len(ignored) > 0 {
		logger.WithField("ignored_labels", ignored).
			Warn("Mehrere Projekt-Labels gefunden, nur das erste wird abgeglichen")
	}

	existing := master.FindChecklist(name)

	if label == nil {
		if existing == nil {
			return nil
		}
		// Ohne Beiträge gibt es keine Checkliste
		if err := r.board.DeleteChecklist(ctx, existing.ID); err != nil {
			return fmt.Errorf("checkliste %q löschen: %w", name, err)
		}
		stats.ChecklistsDeleted++
		logger.Info("Verwaiste Projekt-Checkliste gelöscht")
		return nil
	}

	checklist := existing
	if checklist == nil {
		created, err := r.board.CreateChecklist(ctx, master.ID, name)
		if err != nil {
			return fmt.Errorf("checkliste %q anlegen: %w", name, err)
		}
		checklist = created
		stats.ChecklistsCreated++
		logger.Info("Projekt-Checkliste angelegt")
	}

	plan := PlanChecklist(checklist.CheckItems, projects[label.ID])
	if plan.Empty() {
		return nil
	}

	for _, u := range plan.Updates {
		if err := r.board.UpdateCheckItem(ctx, master.ID, u.Item.ID, u.State); err != nil {
			return fmt.Errorf("eintrag %q aktualisieren: %w", u.Item.Name, err)
		}
		stats.ItemsUpdated++
	}

	for _, item := range plan.Deletes {
		if err := r.board.DeleteCheckItem(ctx, checklist.ID, item.ID); err != nil {
			return fmt.Errorf("eintrag %q löschen: %w", item.Name, err)
		}
		stats.ItemsDeleted++
	}

	for _, e := range plan.Inserts {
		if _, err := r.board.CreateCheckItem(ctx, checklist.ID, e.Title, e.Closed); err != nil {
			return fmt.Errorf("eintrag %q anlegen: %w", e.Title, err)
		}
		stats.ItemsCreated++
	}

	logger.WithFields(log.Fields{
		"updated": len(plan.Updates),
		"deleted": len(plan.Deletes),
		"created": len(plan.Inserts),
	}).Info("Projekt-Checkliste abgeglichen")

	return nil
}
