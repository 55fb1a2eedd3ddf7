package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snipd/snipd/internal/config"
	"github.com/snipd/snipd/internal/home"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the snipd home directory",
	Long: `Create the snipd home directory (default ~/.snipd) and write a
default config file if one doesn't exist.

Edit the config to set your LLM provider API keys, or export them as
environment variables (e.g. OPENROUTER_API_KEY).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}
		fmt.Printf("Home directory: %s\n", h.Path())

		if h.ConfigExists() {
			fmt.Printf("Config already exists: %s\n", h.ConfigPath())
			return nil
		}
		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}
		fmt.Printf("Wrote default config: %s\n", h.ConfigPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
