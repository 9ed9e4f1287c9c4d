package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantOrig string
		wantDest string
		wantErr  bool
	}{
		{name: "upper", in: "EZE-MAD", wantOrig: "EZE", wantDest: "MAD"},
		{name: "lower with spaces", in: " mdz-sla ", wantOrig: "MDZ", wantDest: "SLA"},
		{name: "missing dash", in: "EZEMAD", wantErr: true},
		{name: "too long", in: "EZEE-MAD", wantErr: true},
		{name: "digits", in: "EZ1-MAD", wantErr: true},
		{name: "three parts", in: "EZE-MAD-BCN", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, d, err := ParseRoute(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff([2]string{tt.wantOrig, tt.wantDest}, [2]string{o, d}); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRouteKeyIsOrderSensitive(t *testing.T) {
	if RouteKey("eze", "mad") != "EZE-MAD" {
		t.Errorf("RouteKey = %q", RouteKey("eze", "mad"))
	}
	if RouteKey("EZE", "MAD") == RouteKey("MAD", "EZE") {
		t.Error("reverse direction must produce a different key")
	}
}

func TestRouteDepartureDate(t *testing.T) {
	now := time.Date(2026, 1, 20, 15, 0, 0, 0, time.UTC)
	r := Route{Origin: "EZE", Destination: "MAD", DaysAhead: 45}
	if got := r.DepartureDate(now); got != "2026-03-06" {
		t.Errorf("DepartureDate = %q, want 2026-03-06", got)
	}
	if got := r.Label(); got != "EZE-MAD" {
		t.Errorf("Label = %q, want EZE-MAD", got)
	}
	r.Name = "Buenos Aires - Madrid"
	if got := r.Label(); got != "Buenos Aires - Madrid" {
		t.Errorf("Label = %q", got)
	}
}
