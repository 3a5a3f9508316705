package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"hufschlaeger.net/trello-housekeeper/internal/cli"
	"hufschlaeger.net/trello-housekeeper/internal/config"
	"hufschlaeger.net/trello-housekeeper/internal/lock"
	"hufschlaeger.net/trello-housekeeper/internal/logging"
	"hufschlaeger.net/trello-housekeeper/internal/repository/trello"
	"hufschlaeger.net/trello-housekeeper/internal/service"
)

// ExitQueueBusy wird gemeldet, wenn bereits ein Lauf wartet
const ExitQueueBusy = 100

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("fehler beim Laden der Konfiguration: %w", err)
	}

	dir, err := programDir()
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.LogFilePath(dir), cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("fehler beim Einrichten des Loggings: %w", err)
	}
	defer closer.Close()

	lck, err := lock.Acquire(cfg.LockDirPath(dir))
	if errors.Is(err, lock.ErrQueueBusy) {
		logger.Info("Program lock cannot be acquired.")
		return err
	}
	if err != nil {
		logger.WithError(err).Error("Lock fehlgeschlagen")
		return err
	}
	defer func() {
		if err := lck.Release(); err != nil {
			logger.WithError(err).Warn("Lock konnte nicht freigegeben werden")
		}
	}()

	repo := trello.NewRepository(cfg)
	if err := repo.ValidateConnection(ctx); err != nil {
		logger.WithError(err).Error("Verbindung zu Trello fehlgeschlagen")
		return err
	}

	if _, err := service.NewMaintainer(cfg, repo, logger).Run(ctx); err != nil {
		logger.WithError(err).Error("Lauf mit Fehlern beendet")
		return err
	}

	return nil
}

// programDir ist das Verzeichnis der ausführbaren Datei
func programDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("programmverzeichnis: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, lock.ErrQueueBusy):
		return ExitQueueBusy
	}
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.NewCommand(run).Run(ctx, os.Args)
	stop()

	if err != nil && !errors.Is(err, lock.ErrQueueBusy) {
		fmt.Fprintf(os.Stderr, "❌ Lauf fehlgeschlagen: %v\n", err)
	}
	os.Exit(exitCode(err))
}
