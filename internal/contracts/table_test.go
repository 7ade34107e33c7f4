package contracts

import (
	"context"
	"errors"
	"strings"
	"testing"

	apperrors "optstrat/internal/errors"
	"optstrat/internal/models"
)

func TestLoadCSV(t *testing.T) {
	table, err := Load("testdata/contracts.csv")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if table.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", table.Len())
	}

	c, err := table.GetContract(context.Background(), 198003980)
	if err != nil {
		t.Fatalf("GetContract failed: %v", err)
	}
	want := models.Contract{ID: 198003980, Right: "P", Strike: 2070, Symbol: "ES", Expiry: "20160617", Multiplier: 50}
	if c != want {
		t.Errorf("GetContract = %+v, want %+v", c, want)
	}
}

func TestLoadJSON(t *testing.T) {
	table, err := Load("testdata/contracts.json")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", table.Len())
	}
	future, err := table.GetContract(context.Background(), 187532577)
	if err != nil {
		t.Fatalf("GetContract failed: %v", err)
	}
	if _, ok := future.Kind(); ok {
		t.Error("future must not parse as an option kind")
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	if _, err := Load("testdata/contracts.xlsx"); err == nil {
		t.Fatal("expected error for missing/unsupported file")
	}
}

func TestGetContract_Missing(t *testing.T) {
	table, err := LoadCSV(strings.NewReader("ConId,Right,Strike,Symbol,Expiry,Multiplier\n1,C,10,X,20240119,100\n"))
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	_, err = table.GetContract(context.Background(), 2)
	if !errors.Is(err, apperrors.ErrContractNotFound) {
		t.Fatalf("expected ErrContractNotFound, got %v", err)
	}
}

func TestFindContracts(t *testing.T) {
	table, err := Load("testdata/contracts.csv")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		name   string
		filter Filter
		ids    []int64
	}{
		{"puts", Filter{Kind: models.Put}, []int64{198003948, 198003954, 198003965, 198003980}},
		{"put 2000", Filter{Kind: models.Put, Strike: 2000}, []int64{198003948}},
		{"strike 2070", Filter{Strike: 2070}, []int64{198003244, 198003980}},
		{"symbol case-insensitive", Filter{Kind: models.Call, Symbol: "es"}, []int64{198003214, 198003244, 215521192}},
		{"expiry dashed", Filter{Strike: 2090, Expiry: "2016-06-17"}, []int64{215521192}},
		{"no match", Filter{Symbol: "NQ"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.FindContracts(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("FindContracts failed: %v", err)
			}
			if len(got) != len(tt.ids) {
				t.Fatalf("got %d contracts, want %d: %+v", len(got), len(tt.ids), got)
			}
			for i, c := range got {
				if c.ID != tt.ids[i] {
					t.Errorf("contract %d: id %d, want %d", i, c.ID, tt.ids[i])
				}
			}
		})
	}
}

func TestFilterIsEmpty(t *testing.T) {
	if !(Filter{}).IsEmpty() {
		t.Error("zero filter should be empty")
	}
	if (Filter{Symbol: "ES"}).IsEmpty() {
		t.Error("filter with symbol should not be empty")
	}
}
