package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/smallbiznis/churnlens/internal/customer/domain"
)

type csvRepository struct {
	path string
}

// NewCSV reads the table from a CSV file whose first line is the header.
func NewCSV(path string) domain.Repository {
	return &csvRepository{path: path}
}

func (r *csvRepository) Rows(ctx context.Context) ([]domain.Row, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, r.path)
		}
		return nil, err
	}
	defer f.Close()

	return readCSV(ctx, f)
}

func readCSV(ctx context.Context, in io.Reader) ([]domain.Row, error) {
	reader := csv.NewReader(in)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []domain.Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read customer csv header: %w", err)
	}
	for i, name := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}

	rows := make([]domain.Row, 0, 1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read customer csv: %w", err)
		}

		row := make(domain.Row, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			row[name] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}
