package cli

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/tierpack/pkg/pipeline"
)

// captureStatus redirects status output for the duration of the test.
func captureStatus(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := statusOut
	statusOut = &buf
	t.Cleanup(func() { statusOut = prev })
	return &buf
}

func TestPlural(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 bundles"},
		{1, "1 bundle"},
		{12, "12 bundles"},
	}
	for _, tt := range tests {
		if got := plural(tt.n, "bundle"); got != tt.want {
			t.Errorf("plural(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestPrintStage(t *testing.T) {
	buf := captureStatus(t)

	printStage(pipeline.StageResult{Stage: pipeline.StageModules, Bundles: 2, Duration: 1500 * time.Millisecond})
	printStage(pipeline.StageResult{Stage: pipeline.StageScreens, Bundles: 1, Err: stderrors.New("exit status 1")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	for _, want := range []string{"modules", "2 bundles", "1.5s", statusOK} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("line %q missing %q", lines[0], want)
		}
	}
	for _, want := range []string{"screens", "1 bundle", statusFailed} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("line %q missing %q", lines[1], want)
		}
	}
}

func TestStatusLines(t *testing.T) {
	buf := captureStatus(t)

	printWarning("No module with prefix %q", "orders")
	printKeyValue("Directory", "/app/dist/ios")
	printNextStep("Build everything", "tierpack build -p ios --basics --modules")

	out := buf.String()
	for _, want := range []string{iconWarning, `No module with prefix "orders"`, "Directory", "/app/dist/ios", "tierpack build -p ios"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
