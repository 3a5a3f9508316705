package cli

import (
	"context"

	urfave "github.com/urfave/cli/v3"
)

const (
	ConfigFlag        = "config"
	DefaultConfigFile = "config.yaml"
	ConfigEnv         = "APP_CONFIG_FILE"
)

// Action bekommt den Pfad der Konfigurationsdatei
type Action func(ctx context.Context, configPath string) error

const description = `Räumt ein Trello-Board auf. Gedacht für den Aufruf per Cron.

Ein Lauf:
  - repariert archivierte Snooze-Karten ohne Fälligkeit
  - setzt "$n" im Kartentitel in eine Fälligkeit in n Tagen um
  - archiviert Snooze-Karten bis zur Fälligkeit und holt sie danach zurück
  - verschiebt im nächtlichen Fenster Karten mit Morgen-Label
  - gleicht die Checklisten der Projektkarten ab

Environment Variables:
  TRELLO_KEY      API Key
  TRELLO_TOKEN    API Token
  TRELLO_BOARD    Board-ID
  LOG_LEVEL       debug, info, warn, error

Exit Codes:
  0    Lauf erfolgreich
  1    Fehler (Konfiguration, API)
  100  es wartet bereits ein anderer Lauf`

// NewCommand baut das Kommando mit dem --config Flag
func NewCommand(action Action) *urfave.Command {
	return &urfave.Command{
		Name:        "trello-housekeeper",
		Usage:       "Snooze, Wecken und Projekt-Checklisten für ein Trello-Board",
		Description: description,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:        ConfigFlag,
				Aliases:     []string{"c"},
				Usage:       "Pfad zur Konfigurationsdatei",
				DefaultText: DefaultConfigFile,
				Value:       DefaultConfigFile,
				Sources:     urfave.EnvVars(ConfigEnv),
			},
		},
		Action: func(ctx context.Context, cmd *urfave.Command) error {
			return action(ctx, cmd.String(ConfigFlag))
		},
	}
}
