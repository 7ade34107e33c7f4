package option

import (
	"context"
	"errors"
	"testing"
	"time"

	"optstrat/internal/contracts"
	apperrors "optstrat/internal/errors"
	"optstrat/internal/models"
)

func referenceTable() *contracts.Table {
	return contracts.NewTable([]models.Contract{
		{ID: 187532577, Right: "", Strike: 0, Symbol: "ES", Expiry: "20160617", Multiplier: 50},
		{ID: 198003244, Right: "C", Strike: 2070, Symbol: "ES", Expiry: "20160617", Multiplier: 50},
		{ID: 198003948, Right: "P", Strike: 2000, Symbol: "ES", Expiry: "20160617", Multiplier: 50},
		{ID: 198003954, Right: "P", Strike: 2010, Symbol: "ES", Expiry: "20160617", Multiplier: 50},
		{ID: 198003980, Right: "P", Strike: 2070, Symbol: "ES", Expiry: "20160617", Multiplier: 50},
	})
}

func TestFromContractID(t *testing.T) {
	pos, err := FromContractID(context.Background(), referenceTable(), 198003980, models.Long, 10)
	if err != nil {
		t.Fatalf("FromContractID failed: %v", err)
	}

	if pos.Kind() != models.Put {
		t.Errorf("Kind() = %s, want Put", pos.Kind())
	}
	if pos.Strike() != 2070 {
		t.Errorf("Strike() = %v, want 2070", pos.Strike())
	}
	if pos.ContractID() != 198003980 {
		t.Errorf("ContractID() = %d, want 198003980", pos.ContractID())
	}
	if pos.Symbol() != "ES" {
		t.Errorf("Symbol() = %q, want ES", pos.Symbol())
	}
	if want := time.Date(2016, 6, 17, 0, 0, 0, 0, time.UTC); !pos.Expiry().Equal(want) {
		t.Errorf("Expiry() = %v, want %v", pos.Expiry(), want)
	}
	if pos.Multiplier() != 50 {
		t.Errorf("Multiplier() = %v, want 50", pos.Multiplier())
	}
	if pos.Premium() != 500 {
		t.Errorf("Premium() = %v, want 500 (10 * 1 * 50)", pos.Premium())
	}
}

func TestFromContractID_ScalesPremium(t *testing.T) {
	pos, err := FromContractID(context.Background(), referenceTable(), 198003244, models.Long, 1, WithQuantity(2))
	if err != nil {
		t.Fatalf("FromContractID failed: %v", err)
	}
	if pos.Premium() != 100 {
		t.Errorf("Premium() = %v, want 100", pos.Premium())
	}
	if got, want := pos.String(), "2 Long ES June-16 Call 2070 at 100"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	overridden, err := FromContractID(context.Background(), referenceTable(), 198003244, models.Short, 2, WithMultiplier(100))
	if err != nil {
		t.Fatalf("FromContractID failed: %v", err)
	}
	if overridden.Multiplier() != 100 || overridden.Premium() != 200 {
		t.Errorf("got multiplier %v premium %v, want 100 and 200", overridden.Multiplier(), overridden.Premium())
	}
}

func TestFromContractID_NonOption(t *testing.T) {
	_, err := FromContractID(context.Background(), referenceTable(), 187532577, models.Long, 10)
	if !errors.Is(err, apperrors.ErrInvalidContractKind) {
		t.Fatalf("expected ErrInvalidContractKind, got %v", err)
	}
}

func TestFromContractID_Missing(t *testing.T) {
	_, err := FromContractID(context.Background(), referenceTable(), 198003981, models.Long, 10)
	if !errors.Is(err, apperrors.ErrContractNotFound) {
		t.Fatalf("expected ErrContractNotFound, got %v", err)
	}
}

func TestFromDescription(t *testing.T) {
	pos, err := FromDescription(context.Background(), referenceTable(),
		contracts.Filter{Kind: models.Put, Strike: 2000}, models.Long, 10)
	if err != nil {
		t.Fatalf("FromDescription failed: %v", err)
	}
	if pos.ContractID() != 198003948 {
		t.Errorf("ContractID() = %d, want 198003948", pos.ContractID())
	}
	if pos.Symbol() != "ES" || pos.Multiplier() != 50 {
		t.Errorf("got symbol %q multiplier %v", pos.Symbol(), pos.Multiplier())
	}
}

func TestFromDescription_Ambiguous(t *testing.T) {
	_, err := FromDescription(context.Background(), referenceTable(),
		contracts.Filter{Kind: models.Put}, models.Long, 10)
	if !errors.Is(err, apperrors.ErrSelectionAmbiguous) {
		t.Fatalf("expected ErrSelectionAmbiguous, got %v", err)
	}
}

func TestFromDescription_NoMatch(t *testing.T) {
	_, err := FromDescription(context.Background(), referenceTable(),
		contracts.Filter{Kind: models.Call, Strike: 9999}, models.Long, 10)
	if !errors.Is(err, apperrors.ErrContractNotFound) {
		t.Fatalf("expected ErrContractNotFound, got %v", err)
	}
}
