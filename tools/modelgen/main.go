package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gen"
	"gorm.io/gorm"
)

// tables are the sourplanet tables with hand-maintained repositories over generated models.
var tables = []string{"planet_states", "planet_events", "player_credentials"}

func main() {
	var dsn, out, only string
	flag.StringVar(&dsn, "dsn", os.Getenv("SOURPLANET_DB_DSN"), "postgres dsn")
	flag.StringVar(&out, "out", "internal/adapter/repo/gorm/model", "output dir for generated models")
	flag.StringVar(&only, "tables", strings.Join(tables, ","), "comma separated tables to generate")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if dsn == "" {
		logger.Error("missing --dsn or SOURPLANET_DB_DSN")
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("open postgres", "err", err)
		os.Exit(1)
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:      out,
		ModelPkgPath: "model",
		Mode:         gen.WithoutContext,
	})
	g.UseDB(db)
	for _, table := range strings.Split(only, ",") {
		if table = strings.TrimSpace(table); table != "" {
			g.GenerateModel(table)
		}
	}
	g.Execute()

	logger.Info("generated gorm models", "out", out, "tables", only)
}
