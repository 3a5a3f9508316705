package service

import (
	"context"

	trelloDomain "hufschlaeger.net/trello-housekeeper/internal/domain/trello"
)

// Board ist der entfernte Speicher. Schreibende Aufrufe sind einzeln
// idempotent; es gibt keine Transaktion über mehrere Aufrufe.
type Board interface {
	ListCards(ctx context.Context) ([]trelloDomain.Card, error)
	UpdateCard(ctx context.Context, cardID string, update trelloDomain.CardUpdate) error
	RemoveLabel(ctx context.Context, cardID, labelID string) error
	DeleteCard(ctx context.Context, cardID string) error

	CreateChecklist(ctx context.Context, cardID, name string) (*trelloDomain.Checklist, error)
	DeleteChecklist(ctx context.Context, checklistID string) error

	CreateCheckItem(ctx context.Context, checklistID, name string, checked bool) (*trelloDomain.CheckItem, error)
	UpdateCheckItem(ctx context.Context, cardID, itemID string, state trelloDomain.CheckItemState) error
	DeleteCheckItem(ctx context.Context, checklistID, itemID string) error
}
