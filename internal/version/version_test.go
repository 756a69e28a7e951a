package version

import (
	"regexp"
	"testing"
)

func TestCurrentIsBareSemver(t *testing.T) {
	t.Parallel()

	if !regexp.MustCompile(`^\d+\.\d+\.\d+$`).MatchString(Current) {
		t.Fatalf("Current=%q must be <major>.<minor>.<patch> with no v prefix", Current)
	}
}
