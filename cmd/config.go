// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/we-are-mono/razerd/config"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the razerd configuration file",
	}

	var initPath string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := initPath
			if target == "" {
				var err error
				if target, err = config.DefaultConfigPath(); err != nil {
					return err
				}
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[OK] Wrote %s\n", target)
			return nil
		},
	}
	initCmd.Flags().StringVar(&initPath, "path", "", "Destination (defaults to the XDG config location)")

	var showPath string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, exists, err := config.Load(showPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if exists {
				fmt.Fprintf(out, "# %s\n", resolved)
			} else {
				fmt.Fprintf(out, "# %s (not found, defaults)\n", resolved)
			}
			fmt.Fprintf(out, "socket_path = %q\n", cfg.Daemon.SocketPath)
			fmt.Fprintf(out, "lock_file = %q\n", cfg.Daemon.LockFile)
			fmt.Fprintf(out, "log_level = %q\n", cfg.Daemon.LogLevel)
			fmt.Fprintf(out, "ac_device = %q\n", cfg.Power.ACDevice)
			fmt.Fprintf(out, "ac_events = %q\n", cfg.Power.ACEvents)
			fmt.Fprintf(out, "thermal = %t\n", cfg.Thermal.Enabled)
			fmt.Fprintf(out, "save_file = %q\n", cfg.Effects.SaveFile)
			return nil
		},
	}
	showCmd.Flags().StringVar(&showPath, "path", "", "Configuration file to read")

	configCmd.AddCommand(initCmd, showCmd)
	return configCmd
}
