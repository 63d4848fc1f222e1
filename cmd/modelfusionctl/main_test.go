package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"modelfusion/internal/supervised"
)

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		name    string
		want    supervised.MissingStrategy
		wantErr bool
	}{
		{"", supervised.LastPrediction, false},
		{"last_prediction", supervised.LastPrediction, false},
		{"proportional", supervised.Proportional, false},
		{"bogus", 0, true},
	}
	for _, tc := range tests {
		got, err := parseStrategy(tc.name)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseStrategy(%q): expected an error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseStrategy(%q): %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseStrategy(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestReadInput(t *testing.T) {
	input, err := readInput(`{"petal length": 1.4}`, "")
	if err != nil {
		t.Fatalf("readInput: %v", err)
	}
	if input["petal length"] != 1.4 {
		t.Errorf("input = %v", input)
	}

	path := filepath.Join(t.TempDir(), "row.json")
	if err := os.WriteFile(path, []byte(`{"species": "setosa"}`), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	input, err = readInput("", path)
	if err != nil {
		t.Fatalf("readInput from file: %v", err)
	}
	if input["species"] != "setosa" {
		t.Errorf("input = %v", input)
	}

	if _, err := readInput(`{}`, path); err == nil {
		t.Error("expected an error when both sources are given")
	}

	input, err = readInput("", "")
	if err != nil || len(input) != 0 {
		t.Errorf("empty input = %v, err = %v", input, err)
	}

	if _, err := readInput(`not-json`, ""); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"bogus"}); err == nil {
		t.Fatal("expected a usage error")
	}
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected a usage error for no arguments")
	}
}
