package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/abdoelngaar-maker/housing-management/common/database"
	"github.com/abdoelngaar-maker/housing-management/common/logger"
	"github.com/abdoelngaar-maker/housing-management/internal/config"
	"github.com/abdoelngaar-maker/housing-management/internal/migrations"

	"go.uber.org/zap"
)

// apply-migration runs the embedded schema migrations against DB_* settings.
//
//	apply-migration up
//	apply-migration down -steps 1
//	apply-migration version
func main() {
	steps := flag.Int("steps", 1, "number of migrations to roll back with down")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-steps n] up|down|version\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log, err := logger.NewLogger(cfg.Log.Level, "console", "apply-migration")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("cannot connect to database", zap.String("host", cfg.Database.Host), zap.Error(err))
	}
	defer database.Close(db)

	switch flag.Arg(0) {
	case "up":
		err = migrations.Up(db)
	case "down":
		if *steps <= 0 {
			log.Fatal("steps must be positive", zap.Int("steps", *steps))
		}
		err = migrations.Down(db, *steps)
	case "version":
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("migration failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}

	v, dirty, err := migrations.Version(db)
	if err != nil {
		log.Fatal("failed to read schema version", zap.Error(err))
	}
	log.Info("schema version", zap.Uint("version", v), zap.Bool("dirty", dirty), zap.String("db", cfg.Database.Database))
}
