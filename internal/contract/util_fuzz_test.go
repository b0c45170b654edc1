package contract

import (
	"testing"
)

// FuzzParseBoolString fuzzes ParseBoolString so that every accepted value
// round-trips through its canonical spelling.
func FuzzParseBoolString(f *testing.F) {
	for _, seed := range []string{"yes", "NO", "true", "False", "1", "0", "", "maybe"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, s string) {
		v, err := ParseBoolString(s)
		if err != nil {
			return
		}
		canonical := "false"
		if v {
			canonical = "true"
		}
		again, err := ParseBoolString(canonical)
		if err != nil || again != v {
			t.Fatalf("ParseBoolString(%q) = %v but canonical %q gave %v, %v", s, v, canonical, again, err)
		}
	})
}

// FuzzTruncatePath checks that truncated paths never exceed the width and
// always keep the end of the original path.
func FuzzTruncatePath(f *testing.F) {
	f.Add("/home/dev/src/github.com/acme/monorepo", 12)
	f.Add("short", 40)
	f.Add("한국어/경로/파일", 5)

	f.Fuzz(func(t *testing.T, path string, width int) {
		if width < 4 || width > 4096 {
			return
		}
		got := []rune(TruncatePath(path, width))
		if len(got) > width {
			t.Fatalf("TruncatePath(%q, %d) has %d runes", path, width, len(got))
		}
		orig := []rune(path)
		tail := min(len(orig), width-3)
		if string(got[len(got)-tail:]) != string(orig[len(orig)-tail:]) {
			t.Fatalf("TruncatePath(%q, %d) = %q lost the path tail", path, width, string(got))
		}
	})
}
