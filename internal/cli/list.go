package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/agentx-labs/brat/internal/tracking"
	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List followed repositories",
	Long:  `List the packages and themes recorded in ~/.brat/tracking.yaml.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents a followed repository for display.
type listEntry struct {
	Kind       string `json:"kind"`
	Repository string `json:"repository"`
	Pin        string `json:"pin,omitempty"`
	Installed  string `json:"installed_as,omitempty"`
	Digest     string `json:"digest,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newStoreOnly()
	if err != nil {
		return err
	}
	defer a.close()

	entries, err := listEntries(a.store)
	if err != nil {
		return err
	}

	if listJSON {
		return printListJSON(cmd, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Not following any repositories yet.")
		return nil
	}
	return printListTable(cmd, entries)
}

func listEntries(store tracking.Store) ([]listEntry, error) {
	pkgs, err := store.ListPackages()
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	themes, err := store.ListThemes()
	if err != nil {
		return nil, fmt.Errorf("listing themes: %w", err)
	}

	entries := make([]listEntry, 0, len(pkgs)+len(themes))
	for _, p := range pkgs {
		entries = append(entries, listEntry{
			Kind:       "package",
			Repository: p.Repository,
			Pin:        p.PinnedVersion,
			Installed:  p.PackageID,
		})
	}
	for _, t := range themes {
		entries = append(entries, listEntry{
			Kind:       "theme",
			Repository: t.Repository,
			Installed:  t.Name,
			Digest:     t.LastUpdateDigest,
		})
	}
	return entries, nil
}

func printListTable(cmd *cobra.Command, entries []listEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KIND\tREPOSITORY\tPIN\tINSTALLED AS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Kind, e.Repository, orDash(e.Pin), orDash(e.Installed))
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, entries []listEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
