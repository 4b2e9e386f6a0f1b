package colors

import (
	"strings"
	"testing"
)

func TestANSIColorConstants(t *testing.T) {
	t.Parallel()

	if Reset == "" || BrightWhite == "" || Green == "" || Red == "" || Yellow == "" {
		t.Fatal("expected color constants to be non-empty")
	}

	for _, c := range []string{Red, Green, Yellow, BrightWhite} {
		if !strings.HasPrefix(c, "\033[") {
			t.Fatalf("expected ANSI escape prefix, got %q", c)
		}
	}
}
