package trello

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"hufschlaeger.net/trello-housekeeper/internal/config"
	trelloDomain "hufschlaeger.net/trello-housekeeper/internal/domain/trello"
	"hufschlaeger.net/trello-housekeeper/pkg/utils"
)

type Repository struct {
	config     *config.Config
	httpClient *http.Client
	baseURL    string
}

func NewRepository(cfg *config.Config) *Repository {
	return &Repository{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Trello.Timeout},
		baseURL:    cfg.GetAPIBaseURL(),
	}
}

// Card operations

// ListCards lädt alle Karten des Boards (auch archivierte) inkl. Checklisten
func (r *Repository) ListCards(ctx context.Context) ([]trelloDomain.Card, error) {
	params := url.Values{}
	params.Set("filter", "all")
	params.Set("checklists", "all")

	var cards []trelloDomain.Card
	path := fmt.Sprintf("/boards/%s/cards", url.PathEscape(r.config.Trello.Board))
	if err := r.do(ctx, http.MethodGet, path, params, "list cards", &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// UpdateCard überträgt nur die gesetzten Felder des Updates
func (r *Repository) UpdateCard(ctx context.Context, cardID string, update trelloDomain.CardUpdate) error {
	if update.Empty() {
		return nil
	}
	path := fmt.Sprintf("/cards/%s", url.PathEscape(cardID))
	return r.do(ctx, http.MethodPut, path, encodeCardUpdate(update), "update card", nil)
}

// RemoveLabel entfernt ein einzelnes Label. Über UpdateCard lässt sich das
// Label-Set nicht leeren.
func (r *Repository) RemoveLabel(ctx context.Context, cardID, labelID string) error {
	path := fmt.Sprintf("/cards/%s/idLabels/%s", url.PathEscape(cardID), url.PathEscape(labelID))
	return r.do(ctx, http.MethodDelete, path, nil, "remove label", nil)
}

func (r *Repository) DeleteCard(ctx context.Context, cardID string) error {
	path := fmt.Sprintf("/cards/%s", url.PathEscape(cardID))
	return r.do(ctx, http.MethodDelete, path, nil, "delete card", nil)
}

// Checklist operations

func (r *Repository) CreateChecklist(ctx context.Context, cardID, name string) (*trelloDomain.Checklist, error) {
	params := url.Values{}
	params.Set("name", name)

	var checklist trelloDomain.Checklist
	path := fmt.Sprintf("/cards/%s/checklists", url.PathEscape(cardID))
	if err := r.do(ctx, http.MethodPost, path, params, "create checklist", &checklist); err != nil {
		return nil, err
	}
	return &checklist, nil
}

func (r *Repository) DeleteChecklist(ctx context.Context, checklistID string) error {
	path := fmt.Sprintf("/checklists/%s", url.PathEscape(checklistID))
	return r.do(ctx, http.MethodDelete, path, nil, "delete checklist", nil)
}

// CheckItem operations

func (r *Repository) CreateCheckItem(ctx context.Context, checklistID, name string, checked bool) (*trelloDomain.CheckItem, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("checked", strconv.FormatBool(checked))

	var item trelloDomain.CheckItem
	path := fmt.Sprintf("/checklists/%s/checkItems", url.PathEscape(checklistID))
	if err := r.do(ctx, http.MethodPost, path, params, "create check item", &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) UpdateCheckItem(ctx context.Context, cardID, itemID string, state trelloDomain.CheckItemState) error {
	params := url.Values{}
	params.Set("state", string(state))

	path := fmt.Sprintf("/cards/%s/checkItem/%s", url.PathEscape(cardID), url.PathEscape(itemID))
	return r.do(ctx, http.MethodPut, path, params, "update check item", nil)
}

func (r *Repository) DeleteCheckItem(ctx context.Context, checklistID, itemID string) error {
	path := fmt.Sprintf("/checklists/%s/checkItems/%s", url.PathEscape(checklistID), url.PathEscape(itemID))
	return r.do(ctx, http.MethodDelete, path, nil, "delete check item", nil)
}

// ValidateConnection prüft ob Key und Token akzeptiert werden
func (r *Repository) ValidateConnection(ctx context.Context) error {
	if err := r.do(ctx, http.MethodGet, "/members/me", nil, "get member", nil); err != nil {
		return fmt.Errorf("trello connection failed: %w", err)
	}
	return nil
}

// Private helper methods

func (r *Repository) do(ctx context.Context, method, path string, params url.Values, op string, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", r.config.Trello.Key)
	params.Set("token", r.config.Trello.Token)

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnf("closing response body of %s: %v", op, err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s failed %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}

	if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func encodeCardUpdate(update trelloDomain.CardUpdate) url.Values {
	params := url.Values{}

	if update.Name != nil {
		params.Set("name", *update.Name)
	}
	if update.Desc != nil {
		params.Set("desc", *update.Desc)
	}
	if update.Closed != nil {
		params.Set("closed", strconv.FormatBool(*update.Closed))
	}
	if update.ClearDue {
		params.Set("due", utils.DueNull)
	} else if update.Due != nil {
		params.Set("due", utils.FormatDue(*update.Due))
	}
	if update.ListID != nil {
		params.Set("idList", *update.ListID)
	}
	if update.LabelIDs != nil {
		params.Set("idLabels", strings.Join(update.LabelIDs, ","))
	}

	return params
}
