package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"printq/internal/config"
	"printq/internal/logging"
	"printq/internal/queue"
	"printq/internal/queueaccess"
	"printq/internal/store"
)

const serverEnv = "PRINTQ_SERVER"

type commandContext struct {
	configFlag *string
	serverFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, serverFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		serverFlag: serverFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) serverURL() string {
	if c.serverFlag != nil {
		if value := strings.TrimSpace(*c.serverFlag); value != "" {
			return value
		}
	}
	return strings.TrimSpace(os.Getenv(serverEnv))
}

// JSONMode reports whether --json was passed.
func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// cliLogger keeps one-shot commands quiet: only warnings reach stderr unless
// the configuration asks for debug output.
func (c *commandContext) cliLogger(cfg *config.Config) (*slog.Logger, error) {
	level := "warn"
	if strings.EqualFold(cfg.Logging.Level, "debug") {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
}

// withAccess runs fn against the server named by --server when it answers,
// otherwise against the configured store.
func (c *commandContext) withAccess(cmd *cobra.Command, fn func(queueaccess.Access) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.cliLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	server := c.serverURL()
	session, err := queueaccess.OpenWithFallback(
		cmd.Context(),
		queueaccess.Remote{URL: server, Token: cfg.API.Token},
		func(ctx context.Context) (queue.Store, error) {
			return store.Open(ctx, cfg, logger)
		},
		queue.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	defer session.Close()

	if server != "" && !session.Remote {
		logger.Warn("server unreachable; using local store",
			logging.String("server", server),
			logging.String("backend", cfg.Store.Backend),
		)
	}
	return fn(session.Access)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// exitCode maps queue error kinds to distinct process exit codes so scripts
// can tell a lost race from bad input.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, queue.ErrConflict), errors.Is(err, queue.ErrPositionConflict):
		return 3
	case errors.Is(err, queue.ErrNotFound):
		return 4
	case errors.Is(err, queue.ErrDuplicateJob):
		return 5
	case errors.Is(err, queue.ErrIllegalTransition):
		return 6
	default:
		return 1
	}
}
