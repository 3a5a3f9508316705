package service

import (
	trelloDomain "hufschlaeger.net/trello-housekeeper/internal/domain/trello"
)

// Contribution ist der Beitrag einer Karte zur Checkliste ihres Projekts
type Contribution struct {
	Title  string
	Closed bool
}

// Projects ordnet jeder Projekt-Label-ID die Beiträge in Snapshot-Reihenfolge zu
type Projects map[string][]Contribution

// AggregateOptions bestimmt, welche Karten nicht beitragen
type AggregateOptions struct {
	ProjectsListID string
	SnoozeLabelID  string
}

// Aggregate sammelt für jedes farblose Label die Titel und den Status aller
// Karten, die es tragen. Projektkarten und Snooze-Karten tragen nichts bei.
func Aggregate(cards []trelloDomain.Card, opts AggregateOptions) Projects {
	projects := make(Projects)

	for _, card := range cards {
		if card.ListID == opts.ProjectsListID {
			continue
		}
		if card.HasLabel(opts.SnoozeLabelID) {
			continue
		}

		for _, label := range card.Labels {
			if !label.Colorless() {
				continue
			}
			projects[label.ID] = append(projects[label.ID], Contribution{
				Title:  card.Name,
				Closed: card.Closed,
			})
		}
	}

	return projects
}
