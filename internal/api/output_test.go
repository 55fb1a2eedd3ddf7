package api

import (
	"bytes"
	"strings"
	"testing"
)

func TestOutputTo(t *testing.T) {
	data := map[string]any{"name": "greeting", "dirty": false}

	var buf bytes.Buffer
	if err := OutputTo(&buf, FormatYAML, data); err != nil {
		t.Fatalf("yaml output failed: %v", err)
	}
	if !strings.Contains(buf.String(), "name: greeting") {
		t.Errorf("unexpected yaml output: %q", buf.String())
	}

	buf.Reset()
	if err := OutputTo(&buf, FormatJSON, data); err != nil {
		t.Fatalf("json output failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"name": "greeting"`) {
		t.Errorf("unexpected json output: %q", buf.String())
	}
}

func TestSetOutputFormatFallsBackToYAML(t *testing.T) {
	SetOutputFormat("json")
	if outputFormat != FormatJSON {
		t.Errorf("expected json, got %s", outputFormat)
	}
	SetOutputFormat("csv")
	if outputFormat != FormatYAML {
		t.Errorf("expected fallback to yaml, got %s", outputFormat)
	}
}
