// Package storage persists analysis artifacts as JSON documents under a data
// directory: one file per symbol plus the run summary.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/marketsnap/internal/analysis"
	"github.com/aristath/marketsnap/internal/domain"
	"github.com/aristath/marketsnap/internal/report"
)

const (
	stocksDir    = "stocks"
	summaryFile  = "summary.json"
	lastRunFile  = "last_run.json"
	recordSuffix = ".json"
)

var (
	// ErrNotFound means the requested artifact does not exist.
	ErrNotFound = errors.New("artifact not found")

	// ErrInvalidSymbol means a symbol cannot be used as an artifact name.
	ErrInvalidSymbol = errors.New("invalid symbol")
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-=^]{0,19}$`)

// Store reads and writes artifacts under one data directory. Each symbol owns
// its own file, so concurrent SaveRecord calls for different symbols are safe.
type Store struct {
	dataDir string
	log     zerolog.Logger
}

// NewStore creates a store rooted at dataDir.
func NewStore(dataDir string, log zerolog.Logger) *Store {
	return &Store{
		dataDir: dataDir,
		log:     log.With().Str("component", "store").Logger(),
	}
}

// DataDir returns the root directory.
func (s *Store) DataDir() string {
	return s.dataDir
}

// NormalizeSymbol upper-cases symbol and checks it is a safe artifact name.
func NormalizeSymbol(symbol string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if !symbolPattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return normalized, nil
}

func (s *Store) recordPath(symbol string) string {
	return filepath.Join(s.dataDir, stocksDir, symbol+recordSuffix)
}

// SaveRecord writes record to stocks/<SYMBOL>.json.
func (s *Store) SaveRecord(record *domain.AnalysisRecord) error {
	symbol, err := NormalizeSymbol(record.Symbol)
	if err != nil {
		return err
	}
	if err := writeJSON(s.recordPath(symbol), record); err != nil {
		return fmt.Errorf("failed to save record for %s: %w", symbol, err)
	}

	s.log.Debug().Str("symbol", symbol).Msg("Record saved")
	return nil
}

// LoadRecord reads the record for symbol.
func (s *Store) LoadRecord(symbol string) (*domain.AnalysisRecord, error) {
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	var record domain.AnalysisRecord
	if err := readJSON(s.recordPath(normalized), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListSymbols returns the symbols that have a record, in name order.
func (s *Store) ListSymbols() ([]string, error) {
	names, err := s.recordFiles()
	if err != nil {
		return nil, err
	}

	symbols := make([]string, len(names))
	for i, name := range names {
		symbols[i] = strings.TrimSuffix(name, recordSuffix)
	}
	return symbols, nil
}

// LoadRecords reads every record in file name order. Files that cannot be
// parsed or fail validation are returned as ValidationErrors and left out of
// the records; they never fail the load.
func (s *Store) LoadRecords() ([]*domain.AnalysisRecord, []ValidationError, error) {
	names, err := s.recordFiles()
	if err != nil {
		return nil, nil, err
	}

	records := make([]*domain.AnalysisRecord, 0, len(names))
	var invalid []ValidationError
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dataDir, stocksDir, name))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		record, verr := decodeRecord(name, data)
		if verr != nil {
			s.log.Warn().Str("file", name).Msg(verr.Error())
			invalid = append(invalid, *verr)
			continue
		}
		records = append(records, record)
	}

	s.log.Info().
		Int("loaded", len(records)).
		Int("invalid", len(invalid)).
		Msg("Records loaded")
	return records, invalid, nil
}

// SaveSummary writes summary.json.
func (s *Store) SaveSummary(summary *report.SummaryReport) error {
	if err := writeJSON(filepath.Join(s.dataDir, summaryFile), summary); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// LoadSummary reads summary.json.
func (s *Store) LoadSummary() (*report.SummaryReport, error) {
	var summary report.SummaryReport
	if err := readJSON(filepath.Join(s.dataDir, summaryFile), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// SaveBatchReport writes the outcome of the latest analysis run.
func (s *Store) SaveBatchReport(batch *analysis.BatchReport) error {
	if err := writeJSON(filepath.Join(s.dataDir, lastRunFile), batch); err != nil {
		return fmt.Errorf("failed to save run report: %w", err)
	}
	return nil
}

// LoadBatchReport reads the outcome of the latest analysis run.
func (s *Store) LoadBatchReport() (*analysis.BatchReport, error) {
	var batch analysis.BatchReport
	if err := readJSON(filepath.Join(s.dataDir, lastRunFile), &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// Artifacts returns the paths of every artifact, relative to the data
// directory and using forward slashes, in name order.
func (s *Store) Artifacts() ([]string, error) {
	names, err := s.recordFiles()
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(names)+2)
	for _, top := range []string{summaryFile, lastRunFile} {
		if _, err := os.Stat(filepath.Join(s.dataDir, top)); err == nil {
			paths = append(paths, top)
		}
	}
	for _, name := range names {
		paths = append(paths, stocksDir+"/"+name)
	}
	return paths, nil
}

func (s *Store) recordFiles() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dataDir, stocksDir))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// writeJSON encodes v with two-space indentation into a temp file in the
// target directory, then renames it over path.
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename into place: %w", err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
		}
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
