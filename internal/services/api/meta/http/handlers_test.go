package http

import (
	"context"
	"errors"
	"testing"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestProbe(t *testing.T) {
	cases := []struct {
		name    string
		backend any
		want    string
	}{
		{"absent", nil, "skipped"},
		{"not pingable", struct{}{}, "unknown"},
		{"up", pinger{}, "ok"},
		{"down", pinger{err: errors.New("refused")}, "fail"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := probe(context.Background(), "pg", tc.backend)
			if got.Status != tc.want {
				t.Fatalf("status = %q, want %q", got.Status, tc.want)
			}
			if tc.want == "fail" && got.Error != "refused" {
				t.Fatalf("error = %q", got.Error)
			}
		})
	}
}
