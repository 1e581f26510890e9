/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the Restara project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"fmt"
	"os"

	"restara/internal/config"
	"restara/internal/ipc"
	"restara/pkg/spec"

	"github.com/spf13/cobra"
)

var (
	configPath string
	socketPath string
)

var rootCmd = &cobra.Command{
	Use:           "restara-client",
	Short:         "Control a running restara-server",
	Version:       fmt.Sprintf("%d.%d", spec.VersionMajor, spec.VersionMinor),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "server socket (overrides config)")
}

// dial connects to the socket named by --socket, else by the config.
func dial() (*ipc.Client, error) {
	path := socketPath
	if path == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		path = cfg.SocketPath
	}
	return ipc.Dial(path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
