package trello

import "time"

// CheckItemState ist der Erledigt-Status eines Checklisten-Eintrags
type CheckItemState string

const (
	StateComplete   CheckItemState = "complete"
	StateIncomplete CheckItemState = "incomplete"
)

// StateFor liefert den Eintrags-Status passend zum closed-Flag einer Karte
func StateFor(closed bool) CheckItemState {
	if closed {
		return StateComplete
	}
	return StateIncomplete
}

type Label struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

// Colorless ist true für Projekt-Labels (Status-Labels haben immer eine Farbe)
func (l Label) Colorless() bool {
	return l.Color == nil
}

type CheckItem struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	State CheckItemState `json:"state"`
}

type Checklist struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	CheckItems []CheckItem `json:"checkItems"`
}

type Card struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Desc       string      `json:"desc"`
	Closed     bool        `json:"closed"`
	Due        *time.Time  `json:"due"`
	ListID     string      `json:"idList"`
	LabelIDs   []string    `json:"idLabels"`
	Labels     []Label     `json:"labels"`
	Checklists []Checklist `json:"checklists"`
}

// HasLabel prüft, ob die Label-ID an der Karte hängt
func (c Card) HasLabel(labelID string) bool {
	for _, id := range c.LabelIDs {
		if id == labelID {
			return true
		}
	}
	return false
}

// HasAnyLabel prüft, ob mindestens eine der IDs an der Karte hängt
func (c Card) HasAnyLabel(labelIDs []string) bool {
	for _, id := range labelIDs {
		if c.HasLabel(id) {
			return true
		}
	}
	return false
}

// FindChecklist sucht eine Checkliste nach Namen
func (c Card) FindChecklist(name string) *Checklist {
	for i := range c.Checklists {
		if c.Checklists[i].Name == name {
			return &c.Checklists[i]
		}
	}
	return nil
}

// CardUpdate beschreibt ein partielles Update einer Karte. Nur gesetzte
// Felder werden übertragen; LabelIDs ersetzt das komplette Label-Set.
type CardUpdate struct {
	Name     *string
	Desc     *string
	Closed   *bool
	Due      *time.Time
	ClearDue bool
	ListID   *string
	LabelIDs []string
}

func (u CardUpdate) Empty() bool {
	return u.Name == nil && u.Desc == nil && u.Closed == nil && u.Due == nil &&
		!u.ClearDue && u.ListID == nil && u.LabelIDs == nil
}
