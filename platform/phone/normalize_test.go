package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"612 34 56 78", "+34612345678"},
		{"+34 612-34-56-78", "+34612345678"},
		{"  not a number  ", "not a number"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeE164(tc.in); got != tc.want {
			t.Fatalf("NormalizeE164(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestInternationalKeepsInvalidInput(t *testing.T) {
	if got := International("12"); got != "12" {
		t.Fatalf("expected invalid input to be returned as-is, got %q", got)
	}
}
