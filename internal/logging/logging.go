// Package logging richtet den logrus-Logger ein.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Stdout als Ziel statt einer Datei
const Stdout = "-"

// New erzeugt einen Logger, der an path anhängt. Der zurückgegebene Closer
// schließt die Log-Datei.
func New(path, level string) (*log.Logger, io.Closer, error) {
	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		DisableColors:   path != Stdout,
		TimestampFormat: "2006-01-02 15:04:05.000000",
	})

	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	logger.SetLevel(lvl)

	if path == "" || path == Stdout {
		logger.SetOutput(os.Stdout)
		return logger, io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(f)

	return logger, f, nil
}
