package models

import (
	"encoding/json"
	"testing"
)

func TestAnswerValueAcceptsStringOrArray(t *testing.T) {
	var single AnswerValue
	if err := json.Unmarshal([]byte(`"Paris"`), &single); err != nil {
		t.Fatalf("string form rejected: %v", err)
	}
	if len(single) != 1 || single[0] != "Paris" {
		t.Errorf("single = %v", single)
	}

	var multi AnswerValue
	if err := json.Unmarshal([]byte(`["a","b"]`), &multi); err != nil {
		t.Fatalf("array form rejected: %v", err)
	}
	if len(multi) != 2 {
		t.Errorf("multi = %v", multi)
	}

	var bad AnswerValue
	if err := json.Unmarshal([]byte(`42`), &bad); err == nil {
		t.Error("numeric answer accepted")
	}

	// Single values marshal back to the string form.
	out, err := json.Marshal(single)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"Paris"` {
		t.Errorf("marshal = %s", out)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		part, whole, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{5, 5, 100},
		{1, 8, 13},
	}
	for _, tt := range tests {
		if got := Percentage(tt.part, tt.whole); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tt.part, tt.whole, got, tt.want)
		}
	}
}
