package main

import (
	"github.com/spf13/cobra"

	"inspector/internal/config"
	"inspector/internal/preflight"
)

// options collects flag values shared by the commands.
type options struct {
	configPath    string
	addr          string
	model         string
	allowDegraded bool
	yes           bool
}

func newRootCmd() *cobra.Command { return newRootCmdWith(&options{}) }

func newRootCmdWith(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "inspector",
		Short:         "Product defect detection web service",
		Long:          "inspector serves an upload page and JSON API that run an object detection model on submitted images.\nWithout a subcommand it runs the preflight checks and then starts the server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			if err := runPreflight(cmd, cfg, o); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	root.PersistentFlags().StringVarP(&o.configPath, "config", "c", "", "config file (.yaml, .yml, .json or .toml)")
	root.PersistentFlags().StringVar(&o.addr, "addr", "", "HTTP listen address (default "+config.DefaultAddr+")")
	root.PersistentFlags().StringVar(&o.model, "model", "", "path to the model weights (default "+config.DefaultModelPath+")")
	root.PersistentFlags().BoolVar(&o.allowDegraded, "allow-degraded", false, "keep serving when the model fails to load")
	root.Flags().BoolVarP(&o.yes, "yes", "y", false, "run the install command without asking")

	root.AddCommand(newServeCmd(o), newPreflightCmd(o))
	return root
}

func newServeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the model and start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

func newPreflightCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check the Go runtime, model weights and detection runtime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			return runPreflight(cmd, cfg, o)
		},
	}
	cmd.Flags().BoolVarP(&o.yes, "yes", "y", false, "run the install command without asking")
	return cmd
}

func runPreflight(cmd *cobra.Command, cfg config.Config, o *options) error {
	return preflight.Run(cmd.Context(), preflight.Options{
		Config:    cfg,
		Out:       cmd.OutOrStdout(),
		AssumeYes: o.yes,
	})
}

// loadConfig layers defaults < file < INSPECTOR_* env < flags.
func loadConfig(cmd *cobra.Command, o *options) (config.Config, error) {
	var cfg config.Config
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}
	config.ApplyEnv(&cfg)
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = o.addr
	}
	if flags.Changed("model") {
		cfg.ModelPath = o.model
	}
	if flags.Changed("allow-degraded") {
		cfg.AllowDegraded = o.allowDegraded
	}
	return cfg.WithDefaults(), nil
}
