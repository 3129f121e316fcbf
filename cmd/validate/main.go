package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/vitals-engine/pkg/inventory"
	"github.com/jwebster45206/vitals-engine/pkg/trade"
)

func main() {
	dataDir := "./data"
	if len(os.Args) > 1 {
		dataDir = os.Args[1]
	}

	validator := &DataValidator{}
	if err := validator.validateDir(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Data directory is valid!")
}

// DataValidator checks the item catalog and merchant files of a data directory
type DataValidator struct {
	errors []string
}

func (v *DataValidator) validateDir(dataDir string) error {
	v.errors = nil

	catalog, err := v.validateCatalog(filepath.Join(dataDir, "items.json"))
	if err != nil {
		return err
	}

	files, err := filepath.Glob(filepath.Join(dataDir, "merchants", "*.json"))
	if err != nil {
		return fmt.Errorf("failed to list merchants: %w", err)
	}
	for _, f := range files {
		v.validateMerchant(f, catalog)
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", dataDir, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *DataValidator) validateCatalog(filename string) (*inventory.Catalog, error) {
	fmt.Printf("Validating %s...\n", filename)

	var f struct {
		Items []inventory.Item `json:"items"`
	}
	if err := decodeStrict(filename, &f); err != nil {
		return nil, err
	}

	for _, it := range f.Items {
		v.validateIDFormat("item ID", it.ID)
		for _, m := range it.Modifiers {
			v.validateIDFormat(fmt.Sprintf("morph in item %s", it.ID), m.Morph)
		}
		for _, shape := range it.Shapes {
			v.validateIDFormat(fmt.Sprintf("shape in item %s", it.ID), shape)
		}
	}

	catalog, err := inventory.NewCatalog(f.Items...)
	if err != nil {
		return nil, fmt.Errorf("file %s has invalid items: %w", filename, err)
	}
	return catalog, nil
}

func (v *DataValidator) validateMerchant(filename string, catalog *inventory.Catalog) {
	fmt.Printf("Validating %s...\n", filename)

	id := strings.TrimSuffix(filepath.Base(filename), ".json")
	v.validateIDFormat("merchant filename", id)

	var spec trade.MerchantSpec
	if err := decodeStrict(filename, &spec); err != nil {
		v.addError(err.Error())
		return
	}
	if spec.ID != "" && spec.ID != id {
		v.addError(fmt.Sprintf("merchant %s declares id '%s'", filename, spec.ID))
	}
	spec.ID = id

	if spec.Greed < 0 || spec.Greed > 90 {
		v.addError(fmt.Sprintf("merchant %s greed %d is outside 0..90 and will be clamped", id, spec.Greed))
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := trade.NewMerchant(&spec, catalog, quiet); err != nil {
		v.addError(fmt.Sprintf("merchant %s: %v", id, err))
	}
}

func decodeStrict(filename string, out any) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}
	return nil
}

func (v *DataValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}
	if !validIDRegex.MatchString(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *DataValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
