package catalog

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"uppercase receipt name", "LECHE ENTERA 1L", "Leche Entera 1L"},
		{"code token with trailing id", "COCA COLA 3L COD 123456", "Coca Cola 3L"},
		{"attached code token", "ARROZ GRADO 2 SKU:44556677", "Arroz Grado 2"},
		{"parenthesized code", "PAN HALLULLA (78945612)", "Pan Hallulla"},
		{"isolated long number", "DETERGENTE 99887766 LIQ", "Detergente Liq"},
		{"short numbers kept", "YOGURT PACK 4", "Yogurt Pack 4"},
		{"accented characters kept", "TÉ VERDE CEYLÁN", "Té Verde Ceylán"},
		{"symbols stripped", "PAN & QUESO", "Pan Queso"},
		{"symbol between letters", "PAN&QUESO", "Panqueso"},
		{"percent and dot kept", "LECHE DESC. 1.5% GRASA", "Leche Desc. 1.5% Grasa"},
		{"whitespace collapsed", "  ACEITE   VEGETAL  ", "Aceite Vegetal"},
		{"pure code collapses to empty", "COD 12345 (678901)", ""},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeName(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	inputs := []string{
		"LECHE ENTERA 1L",
		"COCA COLA 3L COD 123456",
		"PAN & QUESO",
		"PAN&QUESO",
		"DETERGENTE 99887766 LIQ",
		"TÉ VERDE CEYLÁN",
		"pan!! integral @@ 500g",
		"(111222) COD999 SKU888",
		"",
	}
	for _, in := range inputs {
		once := NormalizeName(in)
		twice := NormalizeName(once)
		if once != twice {
			t.Errorf("NormalizeName not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNamePrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Leche Entera", "lec"},
		{"Pa", "pa"},
		{"Té Verde", "té "},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NamePrefix(tt.in); got != tt.want {
			t.Errorf("NamePrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
