package domain

import (
	"errors"
	"testing"
)

func TestParseDifficulty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Difficulty
		wantErr bool
	}{
		{input: "Beginner", want: DifficultyBeginner},
		{input: "intermediate", want: DifficultyIntermediate},
		{input: "  ADVANCED ", want: DifficultyAdvanced},
		{input: "expert", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseDifficulty(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidDifficulty) {
					t.Fatalf("Expected ErrInvalidDifficulty, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tc.want {
				t.Errorf("Expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDifficultyIsValid(t *testing.T) {
	t.Parallel()

	for _, d := range Difficulties() {
		if !d.IsValid() {
			t.Errorf("Expected %q to be valid", d)
		}
	}

	if Difficulty("beginner").IsValid() {
		t.Error("Expected lowercase literal to be invalid without parsing")
	}
}
