package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"hufschlaeger.net/trello-housekeeper/internal/config"
	trelloDomain "hufschlaeger.net/trello-housekeeper/internal/domain/trello"
	"hufschlaeger.net/trello-housekeeper/pkg/utils"
)

// Stats zählt die Schreibzugriffe eines Laufs
type Stats struct {
	Restored  int
	Delayed   int
	Snoozed   int
	Woken     int
	Scheduled int
	Deleted   int

	ChecklistsCreated int
	ChecklistsDeleted int
	ItemsCreated      int
	ItemsUpdated      int
	ItemsDeleted      int

	Failed int
}

func (s Stats) Fields() log.Fields {
	return log.Fields{
		"restored":           s.Restored,
		"delayed":            s.Delayed,
		"snoozed":            s.Snoozed,
		"woken":              s.Woken,
		"scheduled":          s.Scheduled,
		"deleted":            s.Deleted,
		"checklists_created": s.ChecklistsCreated,
		"checklists_deleted": s.ChecklistsDeleted,
		"items_created":      s.ItemsCreated,
		"items_updated":      s.ItemsUpdated,
		"items_deleted":      s.ItemsDeleted,
		"failed":             s.Failed,
	}
}

// Maintainer führt einen kompletten Lauf über das Board aus
type Maintainer struct {
	config     *config.Config
	board      Board
	mapper     *Mapper
	reconciler *Reconciler
	logger     log.FieldLogger
	now        func() time.Time
}

func NewMaintainer(cfg *config.Config, board Board, logger log.FieldLogger) *Maintainer {
	mapper := NewMapper(cfg)
	return &Maintainer{
		config:     cfg,
		board:      board,
		mapper:     mapper,
		reconciler: NewReconciler(board, mapper, logger),
		logger:     logger,
		now:        time.Now,
	}
}

// Run liest das Board einmal und arbeitet alle Schritte nacheinander ab.
// Geschriebene Änderungen fließen nicht in den Snapshot zurück. Fehler
// einzelner Karten oder Projekte brechen nur diese ab und werden gesammelt
// zurückgegeben.
func (m *Maintainer) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	now := m.now()

	// 1. Snapshot laden
	cards, err := m.board.ListCards(ctx)
	if err != nil {
		return stats, fmt.Errorf("fehler beim Laden der Karten: %w", err)
	}

	working := m.mapper.WorkingSet(cards)
	m.logger.Infof("Total board/open cards: %d/%d", len(cards), len(working))

	var errs []error
	fail := func(err error) {
		stats.Failed++
		errs = append(errs, err)
	}

	// 2. Zustandsmaschine je Karte
	for _, card := range working {
		if err := m.processCard(ctx, card, now, &stats); err != nil {
			fail(err)
		}
	}

	// 3. Morgen-Planung nur im nächtlichen Fenster
	inWindow, err := m.InTomorrowWindow(now)
	if err != nil {
		fail(err)
	}
	if inWindow {
		m.logger.Info("Running tomorrow scheduling")
		for _, card := range working {
			if err := m.scheduleTomorrow(ctx, card, &stats); err != nil {
				fail(err)
			}
		}
	}

	// 4. Projekt-Checklisten
	projects := Aggregate(cards, m.mapper.AggregateOptions())
	for _, card := range cards {
		if !m.mapper.IsProjectMaster(card) {
			continue
		}
		if err := m.reconciler.Reconcile(ctx, card, projects, &stats); err != nil {
			fail(fmt.Errorf("projekt %s: %w", card.ID, err))
		}
	}

	// 5. Watchdog-Karte entfernen
	if err := m.removeWatchdog(ctx, cards, &stats); err != nil {
		fail(err)
	}

	m.logger.WithFields(stats.Fields()).Info("Done")

	return stats, errors.Join(errs...)
}

// processCard wertet die Zustandsmaschine aus und schreibt die Effekte.
// Der erste Fehler beendet die Bearbeitung dieser Karte.
func (m *Maintainer) processCard(ctx context.Context, card trelloDomain.Card, now time.Time, stats *Stats) error {
	t := Evaluate(m.mapper.CardView(card), now, m.mapper.StatusLabels())
	if len(t.Effects) == 0 {
		return nil
	}

	logger := m.logger.WithFields(log.Fields{
		"card": card.ID,
		"name": utils.TruncateText(card.Name, 60),
		"from": t.From,
		"to":   t.To,
	})

	for _, effect := range t.Effects {
		if err := m.board.UpdateCard(ctx, card.ID, effect.Update); err != nil {
			return fmt.Errorf("karte %s (%s): %w", card.ID, effect.Kind, err)
		}

		switch effect.Kind {
		case EffectRestore:
			stats.Restored++
			logger.Warn("Card restored")
		case EffectDelay:
			stats.Delayed++
			logger.WithField("due", utils.FormatDue(*effect.Update.Due)).Info("Card $ handled")
		case EffectClose:
			stats.Snoozed++
			logger.Info("Card snoozed")
		case EffectWake:
			stats.Woken++
			logger.Info("Card awaken")
		}
	}

	return nil
}

// InTomorrowWindow prüft, ob now (in der konfigurierten Zeitzone) im
// Fenster liegt. Beide Grenzen zählen dazu; ein Fenster über Mitternacht
// ist erlaubt.
func (m *Maintainer) InTomorrowWindow(now time.Time) (bool, error) {
	start, end, loc, err := m.config.Schedule.Window()
	if err != nil {
		return false, fmt.Errorf("zeitfenster ungültig: %w", err)
	}

	local := now.In(loc)
	// Sekunden zählen mit: 02:00:30 liegt nicht mehr im Fenster bis 02:00
	from, to := start.On(local), end.On(local)

	if !from.After(to) {
		return !local.Before(from) && !local.After(to), nil
	}
	return !local.Before(from) || !local.After(to), nil
}

// scheduleTomorrow verschiebt Karten mit Morgen-Label in die Morgen-Liste
// und entfernt das Label
func (m *Maintainer) scheduleTomorrow(ctx context.Context, card trelloDomain.Card, stats *Stats) error {
	label := m.config.Labels.Tomorrow
	if !card.HasLabel(label) {
		return nil
	}

	if err := m.board.UpdateCard(ctx, card.ID, m.mapper.TomorrowUpdate()); err != nil {
		return fmt.Errorf("karte %s verschieben: %w", card.ID, err)
	}
	if err := m.board.RemoveLabel(ctx, card.ID, label); err != nil {
		return fmt.Errorf("karte %s: morgen-Label entfernen: %w", card.ID, err)
	}

	stats.Scheduled++
	m.logger.WithFields(log.Fields{"card": card.ID, "name": card.Name}).
		Info("Card scheduled for tomorrow")
	return nil
}

// removeWatchdog löscht die erste Prüfkarte des externen Monitors
func (m *Maintainer) removeWatchdog(ctx context.Context, cards []trelloDomain.Card, stats *Stats) error {
	title := m.config.Housekeeping.WatchdogTitle
	if title == "" {
		return nil
	}

	for _, card := range cards {
		if card.Name != title {
			continue
		}
		if err := m.board.DeleteCard(ctx, card.ID); err != nil {
			return fmt.Errorf("watchdog-Karte %s löschen: %w", card.ID, err)
		}
		stats.Deleted++
		m.logger.WithField("card", card.ID).Info("Deleted watchdog check card")
		return nil
	}

	return nil
}
