package lang

import "testing"

func TestCanonical(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"fr", "fr"},
		{"FR", "fr"},
		{" es ", "es"},
		{"zh-TW", "zh-TW"},
		{"zh-tw", "zh-TW"},
		{"zh", "zh"},
		{"pt-BR", "pt"},
	}
	for _, tc := range cases {
		got, err := Canonical(tc.in)
		if err != nil {
			t.Fatalf("Canonical(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Canonical(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonical_Unsupported(t *testing.T) {
	for _, in := range []string{"sw", "not a language", ""} {
		if got, err := Canonical(in); err == nil {
			t.Fatalf("Canonical(%q) = %q, want error", in, got)
		}
	}
}

func TestSupported(t *testing.T) {
	codes, table := Supported()
	if len(codes) != 19 || len(table) != 19 {
		t.Fatalf("supported table has %d codes, %d names", len(codes), len(table))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	if table["zh-TW"] != "Chinese (Traditional)" {
		t.Fatalf("zh-TW name = %q", table["zh-TW"])
	}
	if Name("fr") != "French" {
		t.Fatalf("Name(fr) = %q", Name("fr"))
	}
	if Name("xx") != "" {
		t.Fatalf("unknown code has a name")
	}
}

func TestDetectBase(t *testing.T) {
	if got := DetectBase("short"); got != DefaultBase {
		t.Fatalf("thin text detected as %q", got)
	}

	en := `This course introduces students to the fundamental principles of
	economics, including supply and demand, market equilibrium, and the role
	of government policy in shaping economic outcomes.`
	if got := DetectBase(en); got != "en" {
		t.Fatalf("english text detected as %q", got)
	}

	fr := `Ce cours présente aux étudiants les principes fondamentaux de
	l'économie, notamment l'offre et la demande, l'équilibre du marché et le
	rôle des politiques publiques.`
	if got := DetectBase(fr); got != "fr" {
		t.Fatalf("french text detected as %q", got)
	}
}
