package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sjoeborg/krona/internal/cli"
)

func mappingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mappings",
		Short: "Show the saved symbol identity table",
		RunE:  runMappings,
	}
}

func runMappings(_ *cobra.Command, _ []string) error {
	store, err := initMappingStore()
	if err != nil {
		return fmt.Errorf("failed to open mappings: %w", err)
	}

	groups, err := store.LoadGroups()
	if err != nil {
		return fmt.Errorf("failed to load mapping groups: %w", err)
	}
	if len(groups) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No symbol mappings saved yet."))
		return nil
	}

	canonicals := make([]string, 0, len(groups))
	for canonical := range groups {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)

	fmt.Println(cli.TitleStyle.Render("Symbol Mappings"))
	for _, canonical := range canonicals {
		g := groups[canonical]
		fmt.Printf("%s\n", cli.HeaderStyle.Render(canonical))
		if len(g.Synonyms) > 0 {
			fmt.Printf("  synonyms: %s\n", strings.Join(g.Synonyms, ", "))
		}
		if len(g.ISINs) > 0 {
			fmt.Printf("  ISINs:    %s\n", strings.Join(g.ISINs, ", "))
		}
	}
	return nil
}
