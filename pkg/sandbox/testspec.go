package sandbox

import (
	"encoding/json"
	"strings"
)

// Test spec modes.
const (
	ModeStdout = "stdout"
	ModeSuite  = "suite"
)

// TestSpec tells the runner how to grade a submission: either run the program
// and compare trimmed stdout against an expected literal, or run it against a
// provided Go test file.
type TestSpec struct {
	Mode           string `json:"mode"`
	ExpectedOutput string `json:"expected_output,omitempty"`
	TestCode       string `json:"test_code,omitempty"`
}

// ParseTestSpec decodes the lesson's test_code column. A JSON object with a
// known mode is used as-is; any other non-empty text is treated as a raw Go
// test file (legacy catalog rows predate the structured format). Returns
// ok=false when no usable spec can be derived.
func ParseTestSpec(raw string) (TestSpec, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TestSpec{}, false
	}

	if strings.HasPrefix(trimmed, "{") {
		var spec TestSpec
		if err := json.Unmarshal([]byte(trimmed), &spec); err == nil {
			switch spec.Mode {
			case ModeStdout:
				return spec, spec.ExpectedOutput != ""
			case ModeSuite:
				return spec, spec.TestCode != ""
			}
		}
		return TestSpec{}, false
	}

	return TestSpec{Mode: ModeSuite, TestCode: trimmed}, true
}
