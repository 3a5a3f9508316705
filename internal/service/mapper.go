package service

import (
	"hufschlaeger.net/trello-housekeeper/internal/config"
	trelloDomain "hufschlaeger.net/trello-housekeeper/internal/domain/trello"
)

// Mapper übersetzt Karten anhand der Konfiguration (Listen, Labels)
type Mapper struct {
	config *config.Config
}

func NewMapper(cfg *config.Config) *Mapper {
	return &Mapper{config: cfg}
}

// StatusLabels liefert die Labels für die Zustandsmaschine
func (m *Mapper) StatusLabels() StatusLabels {
	return StatusLabels{
		Snooze:    m.config.Labels.Snooze,
		Important: m.config.Labels.Important,
	}
}

// AggregateOptions liefert die Filter für die Projekt-Aggregation
func (m *Mapper) AggregateOptions() AggregateOptions {
	return AggregateOptions{
		ProjectsListID: m.config.Lists.Projects,
		SnoozeLabelID:  m.config.Labels.Snooze,
	}
}

// CardView erzeugt die Sicht der Zustandsmaschine auf eine Karte
func (m *Mapper) CardView(card trelloDomain.Card) CardView {
	return CardView{
		Title:    card.Name,
		Desc:     card.Desc,
		Closed:   card.Closed,
		Due:      card.Due,
		LabelIDs: append([]string(nil), card.LabelIDs...),
	}
}

// InWorkingSet: offene Karten und archivierte Karten mit Progress-Label.
// Snooze zählt immer als Progress-Label.
func (m *Mapper) InWorkingSet(card trelloDomain.Card) bool {
	if !card.Closed {
		return true
	}
	return card.HasLabel(m.config.Labels.Snooze) || card.HasAnyLabel(m.config.Labels.Progress)
}

// WorkingSet filtert die Karten für die Zustandsmaschine
func (m *Mapper) WorkingSet(cards []trelloDomain.Card) []trelloDomain.Card {
	var working []trelloDomain.Card
	for _, card := range cards {
		if m.InWorkingSet(card) {
			working = append(working, card)
		}
	}
	return working
}

// IsProjectMaster: Karten in der Projekt-Liste
func (m *Mapper) IsProjectMaster(card trelloDomain.Card) bool {
	return card.ListID == m.config.Lists.Projects
}

// ChecklistName ist der Name der Projekt-Checkliste einer Projektkarte
func (m *Mapper) ChecklistName(title string) string {
	return "@" + title
}

// TomorrowUpdate verschiebt eine Karte in die Morgen-Liste
func (m *Mapper) TomorrowUpdate() trelloDomain.CardUpdate {
	list := m.config.Lists.Tomorrow
	return trelloDomain.CardUpdate{ListID: &list}
}
