package config

import "testing"

func TestValidate_InvalidAnalyzer(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 9200},
		Engine: EngineConfig{DefaultAnalyzer: "whitespace"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid default analyzer")
	}

	expected := `engine.default_analyzer must be one of standard, simple, keyword, got "whitespace"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidAnalyzers(t *testing.T) {
	for _, analyzer := range []string{"standard", "simple", "keyword"} {
		t.Run("analyzer="+analyzer, func(t *testing.T) {
			cfg := Config{
				HTTP:   HTTPConfig{Port: 9200},
				Engine: EngineConfig{DefaultAnalyzer: analyzer},
			}

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid analyzer %q: %v", analyzer, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 0},
		Engine: EngineConfig{DefaultAnalyzer: "standard"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 10 {
		t.Errorf("expected WriteTimeoutSec=10, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Engine.DefaultAnalyzer != "standard" {
		t.Errorf("expected DefaultAnalyzer='standard', got %q", cfg.Engine.DefaultAnalyzer)
	}
	if cfg.Engine.MaxResultWindow != 10000 {
		t.Errorf("expected MaxResultWindow=10000, got %d", cfg.Engine.MaxResultWindow)
	}
	if cfg.Engine.DisableAutocreate {
		t.Error("expected autocreate enabled by default")
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Engine: EngineConfig{DefaultAnalyzer: "keyword", MaxResultWindow: 500},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Engine.DefaultAnalyzer != "keyword" {
		t.Errorf("expected DefaultAnalyzer='keyword', got %q", cfg.Engine.DefaultAnalyzer)
	}
	if cfg.Engine.MaxResultWindow != 500 {
		t.Errorf("expected MaxResultWindow=500, got %d", cfg.Engine.MaxResultWindow)
	}
}
