package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/centraunit/compose"
	"github.com/centraunit/compose/internal/manifest"
)

var (
	// Version information - set at build time
	Version = "dev"
)

// app holds the state shared by subcommands.
type app struct {
	cfgFile      string
	manifestPath string
	noColor      bool

	manifest *manifest.Manifest
	registry *compose.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "compose",
		Short: "Inspect how service registrations resolve",
		Long: `compose loads a manifest of types and service registrations and shows
how competing registrations are eliminated, ordered and resolved.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: ./compose.yaml if present)")
	rootCmd.PersistentFlags().StringVarP(&a.manifestPath, "manifest", "m", "compose.manifest.yaml",
		"manifest describing types and registrations")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newContractsCmd(a))
	rootCmd.AddCommand(newOrderCmd(a))
	rootCmd.AddCommand(newResolveCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// load reads configuration and the manifest, then composes the registry.
func (a *app) load() error {
	if a.noColor {
		color.NoColor = true
	}
	if a.registry != nil {
		return nil
	}

	cfg, err := compose.LoadConfig(a.cfgFile)
	if err != nil {
		return err
	}
	opts, err := compose.Options(cfg, nil)
	if err != nil {
		return err
	}

	m, err := manifest.LoadFile(a.manifestPath)
	if err != nil {
		return err
	}
	cat, err := m.Catalog(opts...)
	if err != nil {
		return fmt.Errorf("failed to build catalog: %w", err)
	}
	a.manifest = m
	a.registry = cat.Compose()
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "compose %s\n", Version)
		},
	}
}
