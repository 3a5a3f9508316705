package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"hufschlaeger.net/trello-housekeeper/internal/config"
	trelloDomain "hufschlaeger.net/trello-housekeeper/internal/domain/trello"
)

const (
	testSnooze       = "lbl-snooze"
	testImportant    = "lbl-important"
	testTomorrow     = "lbl-tomorrow"
	testProgress     = "lbl-doing"
	testListInbox    = "list-inbox"
	testListProjects = "list-projects"
	testListTomorrow = "list-tomorrow"
)

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Trello.Key = "key"
	cfg.Trello.Token = "token"
	cfg.Trello.Board = "board"
	cfg.Lists.Projects = testListProjects
	cfg.Lists.Tomorrow = testListTomorrow
	cfg.Labels.Snooze = testSnooze
	cfg.Labels.Important = testImportant
	cfg.Labels.Tomorrow = testTomorrow
	cfg.Labels.Progress = []string{testProgress}
	cfg.Schedule.Timezone = "UTC"
	return cfg
}

func nullLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

func strPtr(s string) *string { return &s }

func projectLabel(id, name string) trelloDomain.Label {
	return trelloDomain.Label{ID: id, Name: name}
}

func statusLabel(id, color string) trelloDomain.Label {
	return trelloDomain.Label{ID: id, Name: id, Color: strPtr(color)}
}

func card(id, name, list string, closed bool, labels ...trelloDomain.Label) trelloDomain.Card {
	c := trelloDomain.Card{ID: id, Name: name, ListID: list, Closed: closed, Labels: labels}
	for _, l := range labels {
		c.LabelIDs = append(c.LabelIDs, l.ID)
	}
	return c
}

// call ist ein aufgezeichneter Schreibzugriff der fakeBoard
type call struct {
	Op     string
	Target string
	Arg    string
	Update trelloDomain.CardUpdate
}

func (c call) String() string {
	if c.Arg == "" {
		return c.Op + " " + c.Target
	}
	return c.Op + " " + c.Target + " " + c.Arg
}

// fakeBoard ist ein Board im Speicher. Schreibzugriffe werden nur
// aufgezeichnet, ListCards liefert immer denselben Snapshot.
type fakeBoard struct {
	cards   []trelloDomain.Card
	listErr error
	// failOn lässt Aufrufe fehlschlagen, deren call.String() mit dem
	// Präfix beginnt
	failOn []string
	calls  []call
	nextID int
}

func (b *fakeBoard) record(c call) error {
	b.calls = append(b.calls, c)
	for _, prefix := range b.failOn {
		if strings.HasPrefix(c.String(), prefix) {
			return fmt.Errorf("%s failed 500: boom", c.Op)
		}
	}
	return nil
}

func (b *fakeBoard) id(prefix string) string {
	b.nextID++
	return fmt.Sprintf("%s-%d", prefix, b.nextID)
}

func (b *fakeBoard) ops() []string {
	out := make([]string, len(b.calls))
	for i, c := range b.calls {
		out[i] = c.String()
	}
	return out
}

func (b *fakeBoard) ListCards(ctx context.Context) ([]trelloDomain.Card, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	return b.cards, nil
}

func (b *fakeBoard) UpdateCard(ctx context.Context, cardID string, update trelloDomain.CardUpdate) error {
	return b.record(call{Op: "update", Target: cardID, Update: update})
}

func (b *fakeBoard) RemoveLabel(ctx context.Context, cardID, labelID string) error {
	return b.record(call{Op: "remove-label", Target: cardID, Arg: labelID})
}

func (b *fakeBoard) DeleteCard(ctx context.Context, cardID string) error {
	return b.record(call{Op: "delete-card", Target: cardID})
}

func (b *fakeBoard) CreateChecklist(ctx context.Context, cardID, name string) (*trelloDomain.Checklist, error) {
	if err := b.record(call{Op: "create-checklist", Target: cardID, Arg: name}); err != nil {
		return nil, err
	}
	return &trelloDomain.Checklist{ID: b.id("cl"), Name: name}, nil
}

func (b *fakeBoard) DeleteChecklist(ctx context.Context, checklistID string) error {
	return b.record(call{Op: "delete-checklist", Target: checklistID})
}

func (b *fakeBoard) CreateCheckItem(ctx context.Context, checklistID, name string, checked bool) (*trelloDomain.CheckItem, error) {
	if err := b.record(call{Op: "create-item", Target: checklistID, Arg: fmt.Sprintf("%s=%t", name, checked)}); err != nil {
		return nil, err
	}
	return &trelloDomain.CheckItem{ID: b.id("item"), Name: name, State: trelloDomain.StateFor(checked)}, nil
}

func (b *fakeBoard) UpdateCheckItem(ctx context.Context, cardID, itemID string, state trelloDomain.CheckItemState) error {
	return b.record(call{Op: "update-item", Target: itemID, Arg: string(state)})
}

func (b *fakeBoard) DeleteCheckItem(ctx context.Context, checklistID, itemID string) error {
	return b.record(call{Op: "delete-item", Target: itemID})
}
