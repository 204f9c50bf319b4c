package policy

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"lending-workers/internal/models"
)

// CSVSource reads policies from a CSV file with a header row. When Reader is
// set it is used instead of opening Path.
type CSVSource struct {
	Path   string
	Reader io.Reader
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

func (s *CSVSource) Name() string {
	if s.Path != "" {
		return "csv:" + s.Path
	}
	return "csv"
}

func (s *CSVSource) Load(_ context.Context) ([]models.LenderPolicy, error) {
	r := s.Reader
	if r == nil {
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("open policy file: %w", err)
		}
		defer f.Close()
		r = f
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Columns)
	reader.Comment = '#'

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Source: s.Name(), Err: ErrEmptyTable}
		}
		return nil, &LoadError{Source: s.Name(), Line: 1, Err: err}
	}
	if err := checkHeader(header); err != nil {
		return nil, &LoadError{Source: s.Name(), Line: 1, Err: err}
	}

	var policies []models.LenderPolicy
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &LoadError{Source: s.Name(), Line: errorLine(err), Err: err}
		}
		line, _ := reader.FieldPos(0)

		p, err := ParseRecord(record)
		if err != nil {
			return nil, &LoadError{Source: s.Name(), Line: line, Lender: p.ID, Err: err}
		}
		policies = append(policies, p)
	}

	return policies, nil
}

func checkHeader(header []string) error {
	for i, col := range Columns {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return fmt.Errorf("header column %d: expected %q, got %q", i+1, col, header[i])
		}
	}
	return nil
}

func errorLine(err error) int {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Line
	}
	return 0
}
