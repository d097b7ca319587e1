package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rahul/campaigner/internal/store"
	"github.com/rahul/campaigner/internal/tone"
)

var toneCmd = &cobra.Command{
	Use:   "tone",
	Short: "Manage the tone snippet library",
	Long:  "Tone snippets are short voice samples handed to the writer model as style guidance.",
}

var toneImportCmd = &cobra.Command{
	Use:   "import <url>",
	Short: "Import sentences from a published page as snippets",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snippets, err := tone.NewHarvester().FromURL(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return saveSnippets(cmd, snippets)
	},
}

var toneSeedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Load snippets from a YAML file (default: campaign.tone_seed)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := cfg.Campaign.ToneSeed
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return fmt.Errorf("no seed file given and campaign.tone_seed is not set")
		}
		snippets, err := tone.LoadYAML(path)
		if err != nil {
			return err
		}
		return saveSnippets(cmd, snippets)
	},
}

var toneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snippets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := store.NewStore(cfg.Memory.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		snippets, err := db.ListSnippets(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tone.Serialize(snippets))
		return nil
	},
}

func init() {
	toneCmd.AddCommand(toneImportCmd)
	toneCmd.AddCommand(toneSeedCmd)
	toneCmd.AddCommand(toneListCmd)
}

func saveSnippets(cmd *cobra.Command, snippets []tone.Snippet) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := store.NewStore(cfg.Memory.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, s := range snippets {
		if err := db.AddSnippet(cmd.Context(), s); err != nil {
			return fmt.Errorf("save snippet %s: %w", s.ID, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %d snippet(s)\n", len(snippets))
	return nil
}
