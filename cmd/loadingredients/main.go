package main

import (
	"encoding/json"
	"flag"
	"os"

	"go.uber.org/zap"

	"foodgram/config"
	"foodgram/internal/database"
	"foodgram/internal/logger"
	"foodgram/internal/models"
)

type fixtureRow struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// Bulk-loads the ingredient catalog from a JSON fixture:
// [{"name": "milk", "measurement_unit": "ml"}, ...]
func main() {
	path := flag.String("file", "data/ingredients.json", "path to the ingredients fixture")
	flag.Parse()

	if err := logger.Init(); err != nil {
		panic(err)
	}
	log := logger.L()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatal("failed to read fixture", zap.String("file", *path), zap.Error(err))
	}
	var rows []fixtureRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		log.Fatal("failed to parse fixture", zap.Error(err))
	}

	ingredients := make([]models.Ingredient, 0, len(rows))
	for _, row := range rows {
		if row.Name == "" || row.MeasurementUnit == "" {
			continue
		}
		ingredients = append(ingredients, models.Ingredient{
			Name:            row.Name,
			MeasurementUnit: row.MeasurementUnit,
		})
	}

	if err := db.CreateInBatches(&ingredients, 500).Error; err != nil {
		log.Fatal("failed to insert ingredients", zap.Error(err))
	}
	log.Info("ingredients loaded", zap.Int("count", len(ingredients)))
}
