package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teslashibe/cleargaze/internal/config"
)

var flagEdit bool

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create the settings file and print its path",
		Args:  cobra.NoArgs,
		RunE:  runConfig,
	}
	cmd.Flags().BoolVar(&flagEdit, "edit", false, "open the file in $EDITOR")
	return cmd
}

func runConfig(_ *cobra.Command, _ []string) error {
	path := flagConfig
	if path == "" {
		path = config.DefaultConfigPath()
	}
	wrote, err := config.WriteTemplate(path)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if wrote {
		fmt.Printf("Created %s\n", path)
	} else {
		fmt.Println(path)
	}
	if !flagEdit {
		return nil
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	c := exec.Command(parts[0], append(parts[1:], path)...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	return c.Run()
}
