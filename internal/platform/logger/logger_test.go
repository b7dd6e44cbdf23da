package logger

import (
	"bytes"
	"context"
	"testing"

	kit "callerid/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":     zerolog.TraceLevel,
		"INFO":      zerolog.InfoLevel,
		" warning ": zerolog.WarnLevel,
		"warn":      zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"":          zerolog.DebugLevel,
		"chatty":    zerolog.DebugLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_SERVICE", "callerid-api")
	t.Setenv("LOG_CALLER", "true")

	got := FromEnv()
	want := Options{Level: "warn", Format: "json", Service: "callerid-api", WithCaller: true}
	if got != want {
		t.Fatalf("FromEnv = %+v, want %+v", got, want)
	}
}

// Init only runs once per process, so everything that depends on the
// buffer lives in this one test
func TestInit_ChildrenCarryFields(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "json", Service: "callerid-api", Writer: &buf})

	Get().Info().Msg("root-msg")
	Named("namesync").Info().Msg("named-msg")
	C(WithRequest(context.Background(), "req-123", "pixel-7")).Info().Msg("ctx-msg")
	C(context.Background()).Debug().Msg("filtered")

	out := buf.String()
	for _, s := range []string{
		"root-msg", "named-msg", "ctx-msg",
		`"service":"callerid-api"`,
		`"component":"namesync"`,
		`"request_id":"req-123"`,
		`"device_id":"pixel-7"`,
	} {
		kit.MustContain(t, out, s)
	}
	if bytes.Contains(buf.Bytes(), []byte("filtered")) {
		t.Fatal("debug line should be below the info level")
	}
}
