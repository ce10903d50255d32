package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/fuzzygroup/internal/storage"
	"github.com/steveyegge/fuzzygroup/internal/types"
)

var groupsCmd = &cobra.Command{
	Use:   "groups <table>",
	Short: "List the groups written to a table",
	Long: `List the groups stored in a table's group field, with their members.

Examples:
  fuzzygroup groups contacts --field "Duplicate Group"
  fuzzygroup groups contacts --field "Duplicate Group" --show Company --duplicates`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		field, _ := cmd.Flags().GetString("field")
		show, _ := cmd.Flags().GetString("show")
		duplicates, _ := cmd.Flags().GetBool("duplicates")
		if field == "" && project != nil {
			field = project.Grouping.GroupField
		}
		if show == "" && project != nil {
			show = project.Grouping.Field
		}
		if field == "" {
			fmt.Fprintf(os.Stderr, "Error: --field is required\n")
			os.Exit(1)
		}

		listing, err := listGroups(cmd.Context(), store, args[0], field, show)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		shown := 0
		for _, g := range listing.Groups {
			if duplicates && len(g.Members) < 2 {
				continue
			}
			shown++
			fmt.Printf("%s %s\n", cyan(g.ID), gray(fmt.Sprintf("(%d)", len(g.Members))))
			for _, m := range g.Members {
				if show != "" {
					fmt.Printf("  %s  %s\n", gray(m.RecordID), m.Value)
				} else {
					fmt.Printf("  %s\n", m.RecordID)
				}
			}
		}

		fmt.Printf("\n%d group(s) shown, %d total\n", shown, len(listing.Groups))
		if listing.Ungrouped > 0 {
			fmt.Printf("%s %d record(s) have no group id\n", yellow("⚠"), listing.Ungrouped)
		}
	},
}

func init() {
	groupsCmd.Flags().String("field", "", "Group id field (default: grouping.group_field from config)")
	groupsCmd.Flags().String("show", "", "Field to print next to each member (default: grouping.field from config)")
	groupsCmd.Flags().Bool("duplicates", false, "Only show groups with more than one member")
	rootCmd.AddCommand(groupsCmd)
}

type groupMember struct {
	RecordID string
	Value    string
}

type storedGroup struct {
	ID      types.GroupID
	Members []groupMember
}

type groupListing struct {
	Groups    []storedGroup
	Ungrouped int
}

// listGroups reads group ids back from a table. Groups are ordered by id and
// members keep table order. Values that are not "Group n" count as ungrouped.
func listGroups(ctx context.Context, st storage.Storage, table, groupField, valueField string) (*groupListing, error) {
	fields := []string{groupField}
	if valueField != "" {
		fields = append(fields, valueField)
	}
	records, err := st.ReadRecords(ctx, table, fields)
	if err != nil {
		return nil, err
	}

	listing := &groupListing{}
	byID := map[types.GroupID]*storedGroup{}
	for _, rec := range records {
		id, err := types.ParseGroupID(rec.Text(groupField))
		if err != nil {
			listing.Ungrouped++
			continue
		}
		g, ok := byID[id]
		if !ok {
			g = &storedGroup{ID: id}
			byID[id] = g
		}
		g.Members = append(g.Members, groupMember{RecordID: rec.ID, Value: rec.Text(valueField)})
	}

	for _, g := range byID {
		listing.Groups = append(listing.Groups, *g)
	}
	sort.Slice(listing.Groups, func(i, j int) bool {
		return listing.Groups[i].ID < listing.Groups[j].ID
	})
	return listing, nil
}
