package contracts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"

	apperrors "optstrat/internal/errors"
	"optstrat/internal/models"
)

// Table is an in-memory contract reference table keyed by contract id.
type Table struct {
	rows map[int64]models.Contract
	ids  []int64
}

// NewTable creates a table from records. Later duplicates of an id replace earlier ones.
func NewTable(records []models.Contract) *Table {
	t := &Table{rows: make(map[int64]models.Contract, len(records))}
	for _, r := range records {
		if _, seen := t.rows[r.ID]; !seen {
			t.ids = append(t.ids, r.ID)
		}
		t.rows[r.ID] = r
	}
	sort.Slice(t.ids, func(i, j int) bool { return t.ids[i] < t.ids[j] })
	return t
}

// Load reads a reference file, choosing the decoder by extension (.csv or .json).
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening contracts file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(f)
	case ".json":
		return LoadJSON(f)
	default:
		return nil, fmt.Errorf("unsupported contracts file format: %s", path)
	}
}

// LoadCSV decodes a CSV with a ConId,Right,Strike,Symbol,Expiry,Multiplier header.
func LoadCSV(r io.Reader) (*Table, error) {
	var records []models.Contract
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("decoding contracts csv: %w", err)
	}
	return NewTable(records), nil
}

// LoadJSON decodes a JSON array of contract records.
func LoadJSON(r io.Reader) (*Table, error) {
	var records []models.Contract
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding contracts json: %w", err)
	}
	return NewTable(records), nil
}

// GetContract returns the contract with the given id.
func (t *Table) GetContract(_ context.Context, id int64) (models.Contract, error) {
	c, ok := t.rows[id]
	if !ok {
		return models.Contract{}, apperrors.NewContractError(id, "lookup by id", apperrors.ErrContractNotFound)
	}
	return c, nil
}

// FindContracts returns matching contracts ordered by id.
func (t *Table) FindContracts(_ context.Context, filter Filter) ([]models.Contract, error) {
	var out []models.Contract
	for _, id := range t.ids {
		if c := t.rows[id]; filter.Matches(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// All returns every contract ordered by id.
func (t *Table) All() []models.Contract {
	out := make([]models.Contract, 0, len(t.ids))
	for _, id := range t.ids {
		out = append(out, t.rows[id])
	}
	return out
}

// Len returns the number of contracts.
func (t *Table) Len() int {
	return len(t.ids)
}
