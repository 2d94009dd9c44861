package observability_test

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"library_gateway/internal/adapters/observability"
)

func TestNewLogger_Level(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":      zerolog.InfoLevel,
		"debug": zerolog.DebugLevel,
		"WARN":  zerolog.WarnLevel,
		"nope":  zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := observability.NewLogger(io.Discard, "prod", in).GetLevel(); got != want {
			t.Fatalf("level %q: got %v want %v", in, got, want)
		}
	}
}

func TestNewLogger_WritesToGivenWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(&buf, "prod", "info")
	logger.Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "library-gateway" || line["message"] != "hello" {
		t.Fatalf("unexpected line %v", line)
	}
}
