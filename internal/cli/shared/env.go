package shared

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ariel-frischer/shiplog/internal/changelog"
	"github.com/ariel-frischer/shiplog/internal/check"
	"github.com/ariel-frischer/shiplog/internal/config"
	apperrors "github.com/ariel-frischer/shiplog/internal/errors"
	"github.com/ariel-frischer/shiplog/internal/git"
	"github.com/ariel-frischer/shiplog/internal/logging"
	"github.com/ariel-frischer/shiplog/internal/progress"
	"github.com/ariel-frischer/shiplog/internal/remote"
	"github.com/spf13/cobra"
)

// SelectRemote picks the reference resolver. Tests replace it to avoid detection.
var SelectRemote = remote.FromConfig

// Env is the per-invocation state derived from the persistent flags.
type Env struct {
	// Root is the project root all relative paths are resolved against.
	Root string
	// ConfigPath is the project config file in use.
	ConfigPath string
	Config     *config.Configuration
	Logger     *logging.Logger

	choice *remote.Choice
	store  *changelog.Store
}

// LoadEnv resolves the project root, loads configuration and builds the logger.
func LoadEnv(cmd *cobra.Command) (*Env, error) {
	flags := cmd.Flags()
	dirFlag, _ := flags.GetString(DirFlagName)
	configFlag, _ := flags.GetString(ConfigFlagName)
	debug, _ := flags.GetBool(DebugFlagName)

	root, err := resolveRoot(dirFlag)
	if err != nil {
		return nil, err
	}

	configPath := configFlag
	if configPath == "" {
		configPath = filepath.Join(root, config.ProjectConfigPath())
	} else if _, err := os.Stat(configPath); err != nil {
		return nil, apperrors.ConfigFileNotFound(configPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			return nil, err
		}
		return nil, apperrors.ConfigParseError(configPath, err)
	}

	logCfg := cfg.Log
	if debug {
		logCfg.Level = "debug"
	}
	logger, err := logging.NewWithWriter(logCfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	git.SetDebugLogger(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	})

	return &Env{Root: root, ConfigPath: configPath, Config: cfg, Logger: logger}, nil
}

// resolveRoot returns dir when given, otherwise the enclosing git repository
// of the working directory, otherwise the working directory itself.
func resolveRoot(dir string) (string, error) {
	if dir != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("resolving --dir: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return "", apperrors.DirectoryNotFound(dir)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if root, err := git.GetRepositoryRoot(cwd); err == nil {
		return root, nil
	}
	return cwd, nil
}

// ChangelogDir returns the absolute changelog directory.
func (e *Env) ChangelogDir() string {
	return e.Config.ChangelogDir(e.Root)
}

// Remote selects the reference resolver once per invocation.
func (e *Env) Remote(ctx context.Context) remote.Choice {
	if e.choice != nil {
		return *e.choice
	}

	settings := remote.Settings{
		Type: e.Config.Remote.Type,
		Options: remote.Options{
			Repo:    e.Config.Remote.Repo,
			Token:   e.Config.GitHub.Token,
			Verify:  e.Config.Remote.VerifyReferences,
			Timeout: e.Config.Remote.Timeout,
		},
		Dir:    e.Root,
		Hosts:  e.Config.Remote.Hosts,
		Logger: e.Logger,
	}

	sp := progress.StartSpinner("Selecting remote")
	choice := SelectRemote(ctx, settings)
	if remote.IsNull(choice.Resolver) {
		sp.Fail(choice.Reason)
	} else {
		sp.Success(choice.Resolver.Name())
	}
	e.choice = &choice
	return choice
}

// Store opens the changelog store with the selected resolver.
func (e *Env) Store(ctx context.Context) *changelog.Store {
	if e.store != nil {
		return e.store
	}
	e.store = changelog.Open(e.ChangelogDir(), changelog.StoreOptions{
		UnreleasedFile:    e.Config.Changelog.UnreleasedFile,
		ValidTags:         e.Config.Changelog.ValidTags,
		Resolver:          e.Remote(ctx).Resolver,
		AllowEmptyRelease: e.Config.Changelog.AllowEmptyRelease,
		Logger:            e.Logger,
	})
	return e.store
}

// ReadStore opens the changelog store without selecting a remote.
// Use it for commands that never resolve references.
func (e *Env) ReadStore() *changelog.Store {
	return changelog.Open(e.ChangelogDir(), changelog.StoreOptions{
		UnreleasedFile:    e.Config.Changelog.UnreleasedFile,
		ValidTags:         e.Config.Changelog.ValidTags,
		AllowEmptyRelease: e.Config.Changelog.AllowEmptyRelease,
		Logger:            e.Logger,
	})
}

// Project builds the check context.
func (e *Env) Project(ctx context.Context) *check.Project {
	return &check.Project{
		Dir:    e.Root,
		Config: e.Config,
		Store:  e.Store(ctx),
		Remote: e.Remote(ctx),
		Logger: e.Logger,
	}
}
