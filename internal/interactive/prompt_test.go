package interactive

import (
	"bytes"
	"strings"
	"testing"
)

func TestConfirm(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{"yes", "y\n", true},
		{"yes word", "yes\n", true},
		{"uppercase yes", "YES\n", true},
		{"no", "n\n", false},
		{"empty line defaults to no", "\n", false},
		{"garbage", "sure\n", false},
		{"eof", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompterWithIO(strings.NewReader(tc.input), &out)
			if got := p.Confirm("Remove everything?"); got != tc.want {
				t.Errorf("Confirm(%q) = %v, want %v", tc.input, got, tc.want)
			}
			if !strings.Contains(out.String(), "[y/N]") {
				t.Errorf("prompt missing default marker: %q", out.String())
			}
		})
	}
}
