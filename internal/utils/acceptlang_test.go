package utils

import "testing"

func TestDetermineLocale(t *testing.T) {
	cases := []struct {
		name, query, accept, want string
	}{
		{"query wins", "pt-BR", "en-US,en;q=0.9", "pt"},
		{"header order", "", "en-US,en;q=0.9,pt;q=0.8", "en"},
		{"higher q", "", "pt;q=0.9,en;q=0.8", "pt"},
		{"q zero excluded", "", "pt;q=0,en;q=0.1", "en"},
		{"fallback", "", "fr-FR,es;q=0.9", "en"},
		{"unsupported query", "de", "pt-BR", "pt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetermineLocale(tc.query, tc.accept, SupportedLocales, DefaultLocale); got != tc.want {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}
