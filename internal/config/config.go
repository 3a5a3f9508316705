package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"hufschlaeger.net/trello-housekeeper/pkg/utils"
)

const (
	DefaultAPIURL        = "https://api.trello.com/1"
	DefaultWatchdogTitle = "[CHECK] Problem with Trello script"
	DefaultLogFile       = "logging.log"
)

type Config struct {
	Trello       TrelloConfig       `yaml:"trello"`
	Lists        ListConfig         `yaml:"lists"`
	Labels       LabelConfig        `yaml:"labels"`
	Schedule     ScheduleConfig     `yaml:"schedule"`
	Housekeeping HousekeepingConfig `yaml:"housekeeping"`
	App          AppConfig          `yaml:"app"`
}

// TrelloConfig enthält Zugangsdaten und das Board
type TrelloConfig struct {
	APIURL  string        `yaml:"api_url"`
	Key     string        `yaml:"key"`
	Token   string        `yaml:"token"`
	Board   string        `yaml:"board"`
	Timeout time.Duration `yaml:"timeout"`
}

func (c *TrelloConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.APIURL, validation.Required),
		validation.Field(&c.Key, validation.Required.Error("Trello Key fehlt (TRELLO_KEY)")),
		validation.Field(&c.Token, validation.Required.Error("Trello Token fehlt (TRELLO_TOKEN)")),
		validation.Field(&c.Board, validation.Required.Error("Board-ID fehlt (TRELLO_BOARD)")),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

type ListConfig struct {
	Projects string `yaml:"projects"`
	Tomorrow string `yaml:"tomorrow"`
}

func (c *ListConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Projects, validation.Required),
		validation.Field(&c.Tomorrow, validation.Required),
	)
}

// LabelConfig enthält die IDs der Status-Labels. Progress sind die Labels,
// mit denen auch archivierte Karten bearbeitet werden; Snooze gehört immer
// dazu und muss nicht aufgeführt werden.
type LabelConfig struct {
	Snooze    string   `yaml:"snooze"`
	Important string   `yaml:"important"`
	Tomorrow  string   `yaml:"tomorrow"`
	Progress  []string `yaml:"progress"`
}

func (c *LabelConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Snooze, validation.Required),
		validation.Field(&c.Important, validation.Required),
		validation.Field(&c.Tomorrow, validation.Required),
		validation.Field(&c.Progress, validation.Each(validation.Required)),
	)
}

// ScheduleConfig beschreibt das nächtliche Fenster für die Morgen-Planung
type ScheduleConfig struct {
	TomorrowStart string `yaml:"tomorrow_start"`
	TomorrowEnd   string `yaml:"tomorrow_end"`
	Timezone      string `yaml:"timezone"`
}

func (c *ScheduleConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TomorrowStart, validation.Required, validation.By(isClock)),
		validation.Field(&c.TomorrowEnd, validation.Required, validation.By(isClock)),
		validation.Field(&c.Timezone, validation.By(isTimezone)),
	)
}

// Window liefert Beginn, Ende und Zeitzone des Fensters
func (c *ScheduleConfig) Window() (start, end utils.ClockTime, loc *time.Location, err error) {
	if start, err = utils.ParseClock(c.TomorrowStart); err != nil {
		return
	}
	if end, err = utils.ParseClock(c.TomorrowEnd); err != nil {
		return
	}
	loc, err = loadLocation(c.Timezone)
	return
}

type HousekeepingConfig struct {
	WatchdogTitle string `yaml:"watchdog_title"`
}

// AppConfig steuert Logging und Lock-Verzeichnis. Leere Pfade werden
// relativ zum Programm aufgelöst.
type AppConfig struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	LockDir  string `yaml:"lock_dir"`
}

func (c *AppConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.By(isLogLevel)),
	)
}

// Validate prüft die komplette Konfiguration
func (c *Config) Validate() error {
	if err := c.Trello.Validate(); err != nil {
		return fmt.Errorf("trello: %w", err)
	}
	if err := c.Lists.Validate(); err != nil {
		return fmt.Errorf("lists: %w", err)
	}
	if err := c.Labels.Validate(); err != nil {
		return fmt.Errorf("labels: %w", err)
	}
	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	return c.App.Validate()
}

// NewDefaultConfig liefert eine Konfiguration mit Standardwerten
func NewDefaultConfig() *Config {
	return &Config{
		Trello: TrelloConfig{
			APIURL:  DefaultAPIURL,
			Timeout: 30 * time.Second,
		},
		Schedule: ScheduleConfig{
			TomorrowStart: "01:00",
			TomorrowEnd:   "02:00",
			Timezone:      "Local",
		},
		Housekeeping: HousekeepingConfig{
			WatchdogTitle: DefaultWatchdogTitle,
		},
		App: AppConfig{
			LogLevel: "info",
		},
	}
}

// Load lädt .env, die YAML-Datei (mit ${VAR}-Expansion) und die
// Umgebungsvariablen und validiert das Ergebnis.
func Load(filename string) (*Config, error) {
	// .env laden (ignoriere Fehler wenn Datei nicht existiert)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Warnung beim Laden der .env: %v", err)
	}

	cfg := NewDefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv überschreibt Zugangsdaten aus der Umgebung
func (c *Config) applyEnv() {
	c.Trello.Key = getEnv("TRELLO_KEY", c.Trello.Key)
	c.Trello.Token = getEnv("TRELLO_TOKEN", c.Trello.Token)
	c.Trello.Board = getEnv("TRELLO_BOARD", c.Trello.Board)
	c.App.LogLevel = getEnv("LOG_LEVEL", c.App.LogLevel)
}

func (c *Config) GetAPIBaseURL() string {
	return strings.TrimSuffix(c.Trello.APIURL, "/")
}

// ResolvePath macht relative Pfade relativ zu base
func ResolvePath(base, path string) string {
	if path == "" || path == "-" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// LogFilePath liefert den Pfad der Log-Datei ("-" für stdout)
func (c *Config) LogFilePath(programDir string) string {
	if c.App.LogFile == "" {
		return filepath.Join(programDir, DefaultLogFile)
	}
	return ResolvePath(programDir, c.App.LogFile)
}

// LockDirPath liefert das Verzeichnis der Lock-Dateien
func (c *Config) LockDirPath(programDir string) string {
	if c.App.LockDir == "" {
		return programDir
	}
	return ResolvePath(programDir, c.App.LockDir)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func isClock(value interface{}) error {
	s, _ := value.(string)
	_, err := utils.ParseClock(s)
	return err
}

func isTimezone(value interface{}) error {
	s, _ := value.(string)
	_, err := loadLocation(s)
	return err
}

func isLogLevel(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := log.ParseLevel(s)
	return err
}
