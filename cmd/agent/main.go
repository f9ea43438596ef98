package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/benmeehan/telematics-agent/internal/app"
	"github.com/benmeehan/telematics-agent/internal/constants"
	"github.com/benmeehan/telematics-agent/internal/service_registry"
	"github.com/benmeehan/telematics-agent/internal/utils"
	"github.com/benmeehan/telematics-agent/pkg/atcmd"
	"github.com/benmeehan/telematics-agent/pkg/file"
	"github.com/benmeehan/telematics-agent/pkg/modem"
)

var (
	ConfigFile string
	ATTimeout  time.Duration
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	agent := &cli.App{
		Name:    "telematics-agent",
		Usage:   "vehicle telematics agent for SIMCom SIM7000 modems",
		Version: constants.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "path of the YAML configuration file",
				Value:       "configs/config.yaml",
				Aliases:     []string{"c"},
				Destination: &ConfigFile,
				EnvVars:     []string{utils.EnvPrefix + "CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "starts the agent services",
				Action: runAgent,
			},
			{
				Name:   "ports",
				Usage:  "lists the serial ports of the host",
				Action: listPorts,
			},
			{
				Name:      "at",
				Usage:     "sends one AT command to the modem and prints the response",
				ArgsUsage: "TOKEN [PARAMS]",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:        "timeout",
						Usage:       "response timeout, 0 uses the command default",
						Destination: &ATTimeout,
					},
				},
				Action: sendCommand,
			},
		},
	}

	if err := agent.Run(os.Args); err != nil {
		logger.Fatal().Err(err).Msg("Agent failed")
	}
}

// newLogger builds the process logger from the configuration.
func newLogger(cfg *utils.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Log.Console {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Str("version", constants.Version).Logger()
}

func loadConfig() (*utils.Config, zerolog.Logger, error) {
	cfg, err := utils.LoadConfig(ConfigFile, file.NewFileService())
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load configuration: %w", err)
	}
	return cfg, newLogger(cfg), nil
}

func runAgent(_ *cli.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	dialer, err := modem.NewSerialDialer(cfg.Modem)
	if err != nil {
		return fmt.Errorf("modem port: %w", err)
	}
	appCtx, err := app.New(cfg, file.NewFileService(), dialer, logger)
	if err != nil {
		return err
	}

	serviceRegistry := service_registry.NewServiceRegistry(logger)
	if err := serviceRegistry.RegisterServices(appCtx); err != nil {
		return err
	}
	if err := serviceRegistry.StartServices(); err != nil {
		return err
	}
	logger.Info().Strs("services", serviceRegistry.Names()).Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stopCh
	logger.Info().Str("signal", sig.String()).Msg("Shutting down")

	done := make(chan error, 1)
	go func() { done <- serviceRegistry.StopServices() }()
	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-time.After(constants.ShutdownTimeout + constants.ModemStopTimeout):
		return errors.New("timed out stopping the services")
	}
	logger.Info().Msg("Agent stopped")
	return nil
}

func listPorts(c *cli.Context) error {
	ports, err := modem.DetectPorts()
	if err != nil {
		return err
	}
	for _, p := range ports {
		marker := ""
		if p.SIMCom {
			marker = " (SIMCom)"
		}
		if p.USB {
			fmt.Fprintf(c.App.Writer, "%s\tusb %s:%s %s%s\n", p.Name, p.VID, p.PID, p.Product, marker)
		} else {
			fmt.Fprintln(c.App.Writer, p.Name)
		}
	}
	return nil
}

func sendCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("missing AT command token", 2)
	}
	token := c.Args().Get(0)
	def, ok := atcmd.LookupToken(strings.TrimPrefix(strings.ToUpper(token), "AT"))
	if !ok {
		return cli.Exit(fmt.Sprintf("unknown AT command %q", token), 2)
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	dialer, err := modem.NewSerialDialer(cfg.Modem)
	if err != nil {
		return fmt.Errorf("modem port: %w", err)
	}
	m, err := modem.New(cfg.Modem, dialer, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := m.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := m.Stop(); err != nil {
			logger.Warn().Err(err).Msg("Failed to stop the modem")
		}
	}()

	res := atcmd.NewResult()
	req := atcmd.Request{Command: def.ID, Params: c.Args().Get(1), Timeout: ATTimeout}
	execErr := m.Execute(ctx, req, res)
	for _, line := range res.Lines() {
		fmt.Fprintln(c.App.Writer, line)
	}
	fmt.Fprintln(c.App.Writer, res.Outcome)
	return execErr
}
