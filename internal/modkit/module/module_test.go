package module

import (
	"context"
	"testing"

	phttp "callerid/internal/platform/net/http"
	"callerid/internal/platform/testkit"
)

type enqueuer interface{ Enqueue(number string) bool }
type recorder interface{ Record(ctx context.Context, kind string) }

type queue struct{}

func (queue) Enqueue(string) bool { return true }

type sink struct{}

func (sink) Record(context.Context, string) {}

type workerPorts struct {
	Enqueuer enqueuer
	Recorder recorder
	hidden   recorder
}

type stub struct{ ports any }

func (stub) MountRoutes(phttp.Router) {}
func (s stub) Ports() any             { return s.ports }
func (stub) Name() string             { return "stub" }

func TestPortsOf(t *testing.T) {
	cases := []struct {
		name  string
		ports any
		enq   bool
		rec   bool
	}{
		{"nil ports", nil, false, false},
		{"direct value", queue{}, true, false},
		{"struct fields", workerPorts{Enqueuer: queue{}, Recorder: sink{}}, true, true},
		{"unexported field ignored", workerPorts{hidden: sink{}}, false, false},
		{"pointer is not walked", &workerPorts{Enqueuer: queue{}}, false, false},
		{"primitive", 42, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := stub{ports: tc.ports}
			if _, ok := PortsOf[enqueuer](m); ok != tc.enq {
				t.Fatalf("enqueuer found = %v", ok)
			}
			if _, ok := PortsOf[recorder](m); ok != tc.rec {
				t.Fatalf("recorder found = %v", ok)
			}
		})
	}
}

func TestMustPortsOf(t *testing.T) {
	m := stub{ports: workerPorts{Enqueuer: queue{}}}
	if !MustPortsOf[enqueuer](m).Enqueue("5551234567") {
		t.Fatal("enqueue through port failed")
	}
	testkit.MustPanic(t, func() { MustPortsOf[recorder](m) })
}
