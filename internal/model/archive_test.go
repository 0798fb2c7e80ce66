package model

import "testing"

func TestArchive_Filename(t *testing.T) {
	tests := []struct {
		identifier string
		want       string
	}{
		{"Amsterdam", "Amsterdam.zip"},
		{"s-Gravenhage", "s-Gravenhage.zip"},
		{"'s-Hertogenbosch", "'s-Hertogenbosch.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			a := &Archive{Identifier: tt.identifier}
			if got := a.Filename(); got != tt.want {
				t.Errorf("Filename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArchive_Size(t *testing.T) {
	a := &Archive{Data: make([]byte, 1234)}
	if got := a.Size(); got != 1234 {
		t.Errorf("Size() = %d, want %d", got, 1234)
	}
}
