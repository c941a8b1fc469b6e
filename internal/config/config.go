// Package config loads runner configuration from a YAML file and
// environment variables via viper. Every knob has a default so the
// runner works out of the box against a local Docker daemon.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete runner configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Commands  CommandsConfig  `mapstructure:"commands"`
	Deploy    DeployConfig    `mapstructure:"deploy"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// AppConfig identifies the application the pipeline builds.
type AppConfig struct {
	// Name is the application (and image) name, e.g. "spring-petclinic".
	Name string `mapstructure:"name"`
	// JobName identifies the pipeline job in metadata and notifications.
	JobName string `mapstructure:"job_name"`
}

// PipelineConfig controls pipeline loading and run bounds.
type PipelineConfig struct {
	// File is the path to the pipeline definition YAML. When empty the
	// built-in template is used.
	File string `mapstructure:"file"`
	// RunTimeout bounds the wall-clock duration of one run.
	RunTimeout time.Duration `mapstructure:"run_timeout"`
	// StageTimeout bounds a single stage action.
	StageTimeout time.Duration `mapstructure:"stage_timeout"`
	// Workspace is the directory checkouts and builds happen in.
	Workspace string `mapstructure:"workspace"`
}

// CommandsConfig holds the shell commands the Builder collaborator runs.
type CommandsConfig struct {
	Build           string `mapstructure:"build"`
	UnitTest        string `mapstructure:"unit_test"`
	IntegrationTest string `mapstructure:"integration_test"`
	Lint            string `mapstructure:"lint"`
}

// DeployConfig controls the deploy stage and its readiness check.
type DeployConfig struct {
	// ContainerName is the name the deployed container runs under.
	ContainerName string `mapstructure:"container_name"`
	// Port is the host:container port mapping, e.g. "8080:8080".
	Port string `mapstructure:"port"`
	// HealthAttempts is the number of readiness probes before giving up.
	HealthAttempts int `mapstructure:"health_attempts"`
	// HealthInterval is the pause between readiness probes.
	HealthInterval time.Duration `mapstructure:"health_interval"`
	// Registry is the image registry pushes go to, e.g. "registry.local:5000".
	Registry string `mapstructure:"registry"`
}

// ArtifactsConfig controls archiving.
type ArtifactsConfig struct {
	// BaseDir is the root under which per-run artifact directories are created.
	BaseDir string `mapstructure:"base_dir"`
	// Files are the workspace-relative paths archived at the end of a run.
	Files []string `mapstructure:"files"`
}

// NotifyConfig controls post-run notifications.
type NotifyConfig struct {
	// Endpoint is the webhook URL notifications are POSTed to. Empty
	// disables sending (outcomes are still logged).
	Endpoint string `mapstructure:"endpoint"`
	// Recipients are carried in the notification payload.
	Recipients []string `mapstructure:"recipients"`
}

// ServerConfig controls the trigger HTTP server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load reads configuration from path (optional), then the working
// directory, then environment variables prefixed CONVEYOR_. Missing
// values fall back to defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CONVEYOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("conveyor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".conveyor"))
		}
		// A missing config file is fine; defaults apply.
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "spring-petclinic")
	v.SetDefault("app.job_name", "spring-petclinic-pipeline")

	v.SetDefault("pipeline.file", "")
	v.SetDefault("pipeline.run_timeout", 45*time.Minute)
	v.SetDefault("pipeline.stage_timeout", 15*time.Minute)
	v.SetDefault("pipeline.workspace", "./workspace")

	v.SetDefault("commands.build", "./mvnw -B package -DskipTests")
	v.SetDefault("commands.unit_test", "./mvnw -B test")
	v.SetDefault("commands.integration_test", "./mvnw -B verify -Pintegration")
	v.SetDefault("commands.lint", "./mvnw -B checkstyle:check")

	v.SetDefault("deploy.container_name", "petclinic-staging")
	v.SetDefault("deploy.port", "8080:8080")
	v.SetDefault("deploy.health_attempts", 10)
	v.SetDefault("deploy.health_interval", 3*time.Second)
	v.SetDefault("deploy.registry", "")

	v.SetDefault("artifacts.base_dir", "./artifacts")
	v.SetDefault("artifacts.files", []string{"target/spring-petclinic.jar"})

	v.SetDefault("notify.endpoint", "")
	v.SetDefault("notify.recipients", []string{})

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.file", "")
}
