package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vibecheck/vibecheck/internal/selfupdate"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Download and install the latest vibecheck release",
		RunE:  runUpdate,
	}
	rootCmd.AddCommand(cmd)
}

func runUpdate(_ *cobra.Command, _ []string) error {
	latest, newer, err := update.Check(version, false)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	if latest == "" {
		fmt.Println("no release information available")
		return nil
	}
	if !newer {
		fmt.Println("already up to date (v" + version + ")")
		return nil
	}

	fmt.Println("updating to v" + latest + "...")
	rel, err := update.Apply(version)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	fmt.Println("updated to", rel.Version.String())
	return nil
}
