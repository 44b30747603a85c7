package config

import (
	"testing"
)

// 全局配置只有 SetCurrent/GetCurrent 一个入口，写入后所有读取方立即可见
func TestCurrentConfigSingleEntryPoint(t *testing.T) {
	old := GetCurrent()
	defer SetCurrent(old)

	cfg := &Config{}
	cfg.Server.LogLevel = "debug"
	cfg.Thresholds = map[string]int64{"max_bet": 500}
	cfg.FeatureFlags = map[string]bool{"new_payout": true}

	SetCurrent(cfg)

	if got := GetCurrent(); got != cfg {
		t.Fatal("GetCurrent must return the instance passed to SetCurrent")
	}
	if v := GetThreshold("max_bet", 1000000); v != 500 {
		t.Fatalf("threshold not visible after SetCurrent: got %d", v)
	}
	if !GetFeatureFlag("new_payout") {
		t.Fatal("feature flag not visible after SetCurrent")
	}
}

func TestThresholdDefaults(t *testing.T) {
	old := GetCurrent()
	defer SetCurrent(old)

	SetCurrent(&Config{})
	if v := GetThreshold("max_bet", 1000000); v != 1000000 {
		t.Fatalf("missing threshold must fall back to default: got %d", v)
	}
	if GetFeatureFlag("anything") {
		t.Fatal("missing flag must default to false")
	}
}
