package excel

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/psychstudy/pkg/models"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath        string // Path to the Excel or CSV file
	IDColumn        string // Optional column with a stable card ID
	LessonColumn    string // Column with the lesson number
	FrontColumn     string // Column with the term
	BackColumn      string // Column with the definition
	VideoIDColumn   string // Optional column with the YouTube video ID
	TimestampColumn string // Optional column with the video timestamp
	SheetName       string // Name of the sheet to import
	StartRow        int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		LessonColumn:    "A",
		FrontColumn:     "B",
		BackColumn:      "C",
		VideoIDColumn:   "D",
		TimestampColumn: "E",
		SheetName:       "Sheet1",
		StartRow:        2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	Cards          []models.Card
	TotalProcessed int
	Skipped        int
	Errors         []string
}

// ImportCards reads flashcards from an Excel or CSV file
func ImportCards(config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	var rows [][]string
	var err error
	if ext == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	return processRows(rows, config), nil
}

// readExcel returns the rows of a sheet
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV returns the records of a CSV file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func processRows(rows [][]string, config ImportConfig) *ImportResult {
	result := &ImportResult{
		Cards:  make([]models.Card, 0, len(rows)),
		Errors: make([]string, 0),
	}

	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		if isBlank(row) {
			continue
		}

		result.TotalProcessed++

		card, err := processRow(row, config)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		result.Cards = append(result.Cards, card)
	}

	return result
}

// processRow converts a single row into a card
func processRow(row []string, config ImportConfig) (models.Card, error) {
	card := models.Card{
		ID:        cell(row, config.IDColumn),
		Front:     cell(row, config.FrontColumn),
		Back:      cell(row, config.BackColumn),
		VideoID:   cell(row, config.VideoIDColumn),
		Timestamp: cell(row, config.TimestampColumn),
	}

	if card.Front == "" {
		return card, fmt.Errorf("front cannot be empty")
	}
	if card.Back == "" {
		return card, fmt.Errorf("back cannot be empty")
	}

	lesson, err := strconv.Atoi(cell(row, config.LessonColumn))
	if err != nil {
		return card, fmt.Errorf("invalid lesson %q", cell(row, config.LessonColumn))
	}
	card.Lesson = lesson

	return card, nil
}

// WriteCatalog writes cards as the JSON catalog the study engine loads
func WriteCatalog(path string, cards []models.Card) error {
	data, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}

// cell returns the trimmed value of a column, or "" if the column is unset or missing
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
