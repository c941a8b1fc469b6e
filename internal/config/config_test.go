package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Run out of an empty directory so no stray conveyor.yaml is picked up.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Name != "spring-petclinic" {
		t.Errorf("app.name = %q", cfg.App.Name)
	}
	if cfg.App.JobName != "spring-petclinic-pipeline" {
		t.Errorf("app.job_name = %q", cfg.App.JobName)
	}
	if cfg.Pipeline.RunTimeout != 45*time.Minute {
		t.Errorf("pipeline.run_timeout = %v", cfg.Pipeline.RunTimeout)
	}
	if cfg.Deploy.HealthAttempts != 10 {
		t.Errorf("deploy.health_attempts = %d", cfg.Deploy.HealthAttempts)
	}
	if cfg.Deploy.HealthInterval != 3*time.Second {
		t.Errorf("deploy.health_interval = %v", cfg.Deploy.HealthInterval)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server.addr = %q", cfg.Server.Addr)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("logging.level = %q", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conveyor.yaml")
	content := `
app:
  name: payments
  job_name: payments-pipeline
pipeline:
  run_timeout: 10m
  stage_timeout: 5m
deploy:
  registry: registry.local:5000
  health_attempts: 3
notify:
  endpoint: http://hooks.local/ci
  recipients:
    - team@example.com
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Name != "payments" {
		t.Errorf("app.name = %q", cfg.App.Name)
	}
	if cfg.Pipeline.RunTimeout != 10*time.Minute {
		t.Errorf("run_timeout = %v", cfg.Pipeline.RunTimeout)
	}
	if cfg.Deploy.Registry != "registry.local:5000" {
		t.Errorf("deploy.registry = %q", cfg.Deploy.Registry)
	}
	if cfg.Deploy.HealthAttempts != 3 {
		t.Errorf("health_attempts = %d", cfg.Deploy.HealthAttempts)
	}
	if len(cfg.Notify.Recipients) != 1 || cfg.Notify.Recipients[0] != "team@example.com" {
		t.Errorf("recipients = %v", cfg.Notify.Recipients)
	}
	// Values the file does not set keep their defaults.
	if cfg.Commands.Build != "./mvnw -B package -DskipTests" {
		t.Errorf("commands.build = %q", cfg.Commands.Build)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() error = nil, want error for missing explicit file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App: AppConfig{Name: "app", JobName: "app-pipeline"},
			Pipeline: PipelineConfig{
				RunTimeout:   45 * time.Minute,
				StageTimeout: 15 * time.Minute,
			},
			Deploy:    DeployConfig{HealthAttempts: 10, HealthInterval: 3 * time.Second},
			Artifacts: ArtifactsConfig{BaseDir: "./artifacts"},
			Logging:   LoggingConfig{Level: "INFO"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty app name", func(c *Config) { c.App.Name = "" }, "app.name"},
		{"empty job name", func(c *Config) { c.App.JobName = "" }, "app.job_name"},
		{"zero run timeout", func(c *Config) { c.Pipeline.RunTimeout = 0 }, "pipeline.run_timeout"},
		{"stage exceeds run timeout", func(c *Config) { c.Pipeline.StageTimeout = time.Hour }, "pipeline.stage_timeout"},
		{"zero health attempts", func(c *Config) { c.Deploy.HealthAttempts = 0 }, "deploy.health_attempts"},
		{"negative health interval", func(c *Config) { c.Deploy.HealthInterval = -time.Second }, "deploy.health_interval"},
		{"empty artifacts dir", func(c *Config) { c.Artifacts.BaseDir = "" }, "artifacts.base_dir"},
		{"bad log level", func(c *Config) { c.Logging.Level = "LOUD" }, "logging.level"},
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config: Validate() = %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			var errs ValidationErrors
			if !errors.As(err, &errs) {
				t.Fatalf("Validate() = %v, want ValidationErrors", err)
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() = %v, want error on %s", errs, tt.field)
			}
		})
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{
		{Field: "app.name", Value: "", Message: "must not be empty"},
		{Field: "logging.level", Value: "LOUD", Message: "must be one of DEBUG, INFO, WARN, ERROR"},
	}
	msg := errs.Error()
	if msg == "" {
		t.Fatal("empty message")
	}
	for _, want := range []string{"2 validation errors", "app.name", "logging.level"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}
