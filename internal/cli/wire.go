package cli

import (
	"fmt"
	"strings"

	"conveyor/internal/collab"
	"conveyor/internal/config"
	"conveyor/internal/core"
	"conveyor/internal/logging"
	"conveyor/internal/storage"
)

// buildRunner assembles the pipeline runner from configuration: loads
// the definition (file or built-in template), compiles the stage
// graph against the real collaborators, and wires the executor,
// store and dispatcher together.
func buildRunner(cfg *config.Config, log *logging.Logger, pipelineFile string) (*core.Runner, error) {
	file := pipelineFile
	if file == "" {
		file = cfg.Pipeline.File
	}

	var def *core.Definition
	if file != "" {
		loaded, err := core.LoadDefinition(file)
		if err != nil {
			return nil, err
		}
		def = loaded
	} else {
		def = core.DefaultDefinition()
	}

	params, err := def.ParameterSet()
	if err != nil {
		return nil, err
	}

	store := storage.NewFileStore(cfg.Pipeline.Workspace)
	collabs := core.Collaborators{
		SCM:    collab.NewGitSourceControl(cfg.Pipeline.Workspace),
		Engine: collab.NewDockerEngine(cfg.Pipeline.Workspace),
		Builder: collab.NewShellBuilder(cfg.Pipeline.Workspace, collab.BuildCommands{
			Build:           cfg.Commands.Build,
			UnitTest:        cfg.Commands.UnitTest,
			IntegrationTest: cfg.Commands.IntegrationTest,
			Lint:            cfg.Commands.Lint,
		}),
		Store:    store,
		Notifier: collab.NewWebhookNotifier(cfg.Notify.Endpoint),
	}

	stages, err := def.Compile(collabs, core.ActionOptions{
		ContainerName:  cfg.Deploy.ContainerName,
		Ports:          cfg.Deploy.Port,
		HealthAttempts: cfg.Deploy.HealthAttempts,
		HealthInterval: cfg.Deploy.HealthInterval,
		ArtifactFiles:  cfg.Artifacts.Files,
	})
	if err != nil {
		return nil, err
	}

	envr := &core.EnvironmentResolver{
		SCM:          collabs.SCM,
		AppName:      cfg.App.Name,
		Registry:     cfg.Deploy.Registry,
		ArtifactBase: cfg.Artifacts.BaseDir,
		Log:          log,
	}
	executor := core.NewExecutor(cfg.Pipeline.StageTimeout, store, log)
	dispatcher := &core.Dispatcher{
		Notifier:   collabs.Notifier,
		Recipients: cfg.Notify.Recipients,
		Endpoint:   deployEndpoint(cfg),
		Log:        log,
	}

	return core.NewRunner(stages, params, envr, executor, store, dispatcher, log, core.RunnerOptions{
		JobName:    cfg.App.JobName,
		RunTimeout: cfg.Pipeline.RunTimeout,
	}), nil
}

// deployEndpoint derives the deployed application URL from the host
// side of the configured port mapping.
func deployEndpoint(cfg *config.Config) string {
	host, _, ok := strings.Cut(cfg.Deploy.Port, ":")
	if !ok || host == "" {
		return ""
	}
	return fmt.Sprintf("http://localhost:%s", host)
}

func loadConfigAndLogger() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logging.NewLogger(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
