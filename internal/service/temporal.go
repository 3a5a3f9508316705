package service

import (
	"time"

	trelloDomain "hufschlaeger.net/trello-housekeeper/internal/domain/trello"
	"hufschlaeger.net/trello-housekeeper/pkg/utils"
)

// RestoreReason landet in der Beschreibung wiederhergestellter Karten
const RestoreReason = "Card does have delay label without any date set"

// CardState ist der zeitliche Zustand einer Karte. Er wird nicht gespeichert,
// sondern jedes Mal aus Labels, closed und due abgeleitet.
type CardState int

const (
	StateActive CardState = iota
	StateSnoozed
	StateDueForWake
	StateBroken
)

func (s CardState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateSnoozed:
		return "snoozed"
	case StateDueForWake:
		return "due-for-wake"
	case StateBroken:
		return "broken"
	}
	return "unknown"
}

// StatusLabels sind die Label-IDs, mit denen die Zustandsmaschine arbeitet
type StatusLabels struct {
	Snooze    string
	Important string
}

// CardView ist die Projektion einer Karte, die für Übergänge relevant ist
type CardView struct {
	Title    string
	Desc     string
	Closed   bool
	Due      *time.Time
	LabelIDs []string
}

func (v CardView) hasLabel(id string) bool {
	for _, l := range v.LabelIDs {
		if l == id {
			return true
		}
	}
	return false
}

// withLabel hängt id an, falls es noch fehlt. Das Slice wird kopiert.
func (v CardView) withLabel(id string) []string {
	labels := append([]string(nil), v.LabelIDs...)
	if v.hasLabel(id) {
		return labels
	}
	return append(labels, id)
}

type EffectKind int

const (
	EffectRestore EffectKind = iota
	EffectDelay
	EffectClose
	EffectWake
)

func (k EffectKind) String() string {
	switch k {
	case EffectRestore:
		return "restore"
	case EffectDelay:
		return "delay"
	case EffectClose:
		return "snooze"
	case EffectWake:
		return "wake"
	}
	return "unknown"
}

// Effect ist ein einzelner Schreibzugriff auf die Karte
type Effect struct {
	Kind   EffectKind
	Update trelloDomain.CardUpdate
}

// Transition ist das Ergebnis von Evaluate. Effects müssen in der
// angegebenen Reihenfolge geschrieben werden.
type Transition struct {
	From    CardState
	To      CardState
	Effects []Effect
}

// Classify leitet den Zustand einer Karte ab
func Classify(v CardView, now time.Time, labels StatusLabels) CardState {
	snoozed := v.hasLabel(labels.Snooze)
	switch {
	case snoozed && v.Closed && v.Due == nil:
		return StateBroken
	case snoozed && v.Due != nil && !now.Before(*v.Due):
		return StateDueForWake
	case snoozed && v.Due != nil:
		return StateSnoozed
	}
	return StateActive
}

// phase ist ein Schritt der Zustandsmaschine. Sie bekommt die durch vorige
// Phasen veränderte Sicht. halt beendet die Auswertung.
type phase func(v CardView, now time.Time, labels StatusLabels) (next CardView, effect *Effect, halt bool)

// phases legt die Reihenfolge fest: Integrität, $-Kürzel, Snooze, Wecken
var phases = [...]phase{
	restorePhase,
	directivePhase,
	snoozePhase,
	wakePhase,
}

// Evaluate berechnet ohne Seiteneffekte alle Übergänge einer Karte für
// den Zeitpunkt now.
func Evaluate(v CardView, now time.Time, labels StatusLabels) Transition {
	t := Transition{From: Classify(v, now, labels)}

	for _, p := range phases {
		next, effect, halt := p(v, now, labels)
		v = next
		if effect != nil {
			t.Effects = append(t.Effects, *effect)
		}
		if halt {
			break
		}
	}

	t.To = Classify(v, now, labels)
	return t
}

// restorePhase repariert archivierte Snooze-Karten ohne Datum
func restorePhase(v CardView, now time.Time, labels StatusLabels) (CardView, *Effect, bool) {
	if Classify(v, now, labels) != StateBroken {
		return v, nil, false
	}

	open := false
	next := CardView{
		Title:    utils.RestoreTitle(v.Title),
		Desc:     utils.RestoreDescription(RestoreReason, v.Desc),
		Closed:   false,
		Due:      nil,
		LabelIDs: v.withLabel(labels.Important),
	}

	return next, &Effect{
		Kind: EffectRestore,
		Update: trelloDomain.CardUpdate{
			Name:     &next.Title,
			Desc:     &next.Desc,
			Closed:   &open,
			ClearDue: true,
			LabelIDs: next.LabelIDs,
		},
	}, true
}

// directivePhase setzt "$n" im Titel in Fälligkeit und Snooze-Label um
func directivePhase(v CardView, now time.Time, labels StatusLabels) (CardView, *Effect, bool) {
	d, ok := ParseDirective(v.Title)
	if !ok {
		return v, nil, false
	}

	due := now.UTC().AddDate(0, 0, d.Days)
	next := v
	next.Title = d.Title
	next.Due = &due
	next.LabelIDs = v.withLabel(labels.Snooze)

	return next, &Effect{
		Kind: EffectDelay,
		Update: trelloDomain.CardUpdate{
			Name:     &next.Title,
			Due:      &due,
			LabelIDs: next.LabelIDs,
		},
	}, false
}

// snoozePhase archiviert Snooze-Karten, deren Termin noch nicht erreicht ist.
// Ist der Termin genau jetzt, bleibt die Karte für wakePhase offen.
func snoozePhase(v CardView, now time.Time, labels StatusLabels) (CardView, *Effect, bool) {
	if !v.hasLabel(labels.Snooze) || v.Due == nil || v.Closed {
		return v, nil, false
	}
	if !now.Before(*v.Due) {
		return v, nil, false
	}

	closed := true
	next := v
	next.Closed = true

	return next, &Effect{
		Kind:   EffectClose,
		Update: trelloDomain.CardUpdate{Closed: &closed},
	}, false
}

// wakePhase holt Snooze-Karten zurück, sobald ihr Termin erreicht ist. Das
// Snooze-Label bleibt an der Karte.
func wakePhase(v CardView, now time.Time, labels StatusLabels) (CardView, *Effect, bool) {
	if !v.hasLabel(labels.Snooze) || v.Due == nil {
		return v, nil, false
	}
	if now.Before(*v.Due) {
		return v, nil, false
	}

	open := false
	next := v
	next.Closed = false
	next.Due = nil

	return next, &Effect{
		Kind:   EffectWake,
		Update: trelloDomain.CardUpdate{Closed: &open, ClearDue: true},
	}, false
}
