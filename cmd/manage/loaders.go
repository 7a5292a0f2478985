package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

func detectFormat(path, override string) (string, error) {
	format := strings.ToLower(strings.TrimSpace(override))
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch format {
	case formatJSON, formatCSV:
		return format, nil
	}
	return "", fmt.Errorf("unsupported format %q (expected json or csv)", format)
}

type ingredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// parseIngredients reads ingredient rows. CSV rows are name,measurement_unit
// with an optional header line.
func parseIngredients(r io.Reader, format string) ([]models.Ingredient, error) {
	var records []ingredientRecord
	switch format {
	case formatJSON:
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode ingredients: %w", err)
		}
	case formatCSV:
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = 2
		reader.TrimLeadingSpace = true
		for line := 1; ; line++ {
			row, err := reader.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read ingredients: %w", err)
			}
			if line == 1 && strings.EqualFold(row[0], "name") {
				continue
			}
			records = append(records, ingredientRecord{Name: row[0], MeasurementUnit: row[1]})
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	items := make([]models.Ingredient, 0, len(records))
	for _, rec := range records {
		items = append(items, models.Ingredient{Name: rec.Name, MeasurementUnit: rec.MeasurementUnit})
	}
	return items, nil
}

// parseTags reads a JSON array of tags, validating each against the same
// rules as the tag admin endpoint.
func parseTags(r io.Reader, v *validator.Validate) ([]models.Tag, error) {
	var records []types.CreateTagRequest
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}

	tags := make([]models.Tag, 0, len(records))
	for i := range records {
		if err := v.Struct(&records[i]); err != nil {
			return nil, fmt.Errorf("tag %d: %s", i+1, validation.Message(err))
		}
		tags = append(tags, models.Tag{Name: records[i].Name, Color: records[i].Color, Slug: records[i].Slug})
	}
	return tags, nil
}
