package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestOutputColor(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{writer: &buf, colorEnabled: true, currency: "$"}

	colored := out.FormatPnL(-400)
	if colored == "-$400.00" {
		t.Fatalf("expected escape codes, got %q", colored)
	}
	if got := stripANSI(colored); got != "-$400.00" {
		t.Errorf("stripANSI = %q", got)
	}

	out.colorEnabled = false
	if got := out.ColoredString(color.FgGreen, "ok"); got != "ok" {
		t.Errorf("uncolored string = %q", got)
	}
}

func TestTableAlignsColoredCells(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{writer: &buf, colorEnabled: true, currency: "$"}

	table := NewTable(out, "PRICE", "PAYOFF")
	table.AddRow("30", out.FormatPnL(-400))
	table.AddRow("2070", out.FormatPnL(100))
	table.Render()

	lines := strings.Split(strings.TrimSpace(stripANSI(buf.String())), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[2], "30     -$400.00") {
		t.Errorf("row not padded to column width: %q", lines[2])
	}
}
