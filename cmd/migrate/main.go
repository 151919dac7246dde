// migrate aplica o revierte el esquema embebido.
//
// Uso: go run ./cmd/migrate [up|down|steps N|force V|version]
// Sin argumentos equivale a "up". La conexión sale de DATABASE_URL o DB_*.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jhoicas/backoffice-api/internal/infrastructure/migration"
	"github.com/jhoicas/backoffice-api/pkg/config"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("migrate")

	m, err := migration.New(cfg.DB.ConnectionString(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir migraciones")
	}
	defer func() { _ = m.Close() }()

	cmd := "up"
	var args []string
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}
	if err := run(m, cmd, args); err != nil {
		log.Error().Err(err).Str("cmd", cmd).Msg("migración fallida")
		_ = m.Close()
		os.Exit(1)
	}
}

func run(m *migration.Migrator, cmd string, args []string) error {
	switch cmd {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps", "force":
		if len(args) != 1 {
			return fmt.Errorf("%s requiere un número", cmd)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
		if cmd == "steps" {
			return m.Steps(n)
		}
		return m.Force(n)
	case "version":
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", v, dirty)
		return nil
	default:
		return fmt.Errorf("comando desconocido %q (up|down|steps N|force V|version)", cmd)
	}
}
