package main

import (
	"testing"

	"altimu-ng/internal/config"
	"altimu-ng/internal/imu"
	"altimu-ng/internal/sim"
)

func TestOpenSource_Disabled(t *testing.T) {
	src, closer, err := openSource(config.Config{}, imu.DefaultFilterConfig())
	if err != nil {
		t.Fatalf("openSource() error: %v", err)
	}
	if src != nil || closer != nil {
		t.Fatalf("expected no source, got %T", src)
	}
}

func TestOpenSource_Sim(t *testing.T) {
	cfg := config.Config{}
	cfg.Sim.Enable = true
	cfg.Sim.Profile = "roll"
	cfg.Sim.RateDps = 45

	src, closer, err := openSource(cfg, imu.DefaultFilterConfig())
	if err != nil {
		t.Fatalf("openSource() error: %v", err)
	}
	if closer != nil {
		t.Fatalf("sim source should not need a closer")
	}
	ms, ok := src.(*sim.MotionSim)
	if !ok {
		t.Fatalf("source=%T want *sim.MotionSim", src)
	}
	if ms.Profile != sim.ProfileRoll || ms.RateDps != 45 {
		t.Fatalf("sim config not carried over: %+v", ms)
	}
}
