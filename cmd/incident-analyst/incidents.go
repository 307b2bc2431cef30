package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/akmatori/incident-analyst/internal/api"
	"github.com/akmatori/incident-analyst/internal/database"
	"github.com/akmatori/incident-analyst/internal/utils"
)

const listLogsWidth = 60

func newIncidentsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "incidents",
		Aliases: []string{"incident"},
		Short:   "Inspect and clean up stored incidents",
	}
	cmd.AddCommand(newIncidentsListCmd(opts))
	cmd.AddCommand(newIncidentsShowCmd(opts))
	cmd.AddCommand(newIncidentsDeleteCmd(opts))
	return cmd
}

// withStore opens the configured store for the duration of fn
func withStore(opts *rootOptions, fn func(store *database.IncidentStore) error) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()
	return fn(database.NewIncidentStore(db))
}

func newIncidentsListCmd(opts *rootOptions) *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List incidents ordered by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := database.ListFilter{Status: database.IncidentStatus(status), Limit: limit}
			if filter.Status != "" && !filter.Status.IsValid() {
				return fmt.Errorf("--status must be open or resolved, got %q", status)
			}
			return withStore(opts, func(store *database.IncidentStore) error {
				incidents, err := store.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return printIncidentTable(cmd.OutOrStdout(), incidents)
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only show incidents with this status (open, resolved)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of incidents to show (0 = all)")
	return cmd
}

func newIncidentsShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one incident as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := api.ParseID(args[0])
			if err != nil {
				return err
			}
			return withStore(opts, func(store *database.IncidentStore) error {
				incident, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(api.IncidentToDetailResponse(incident))
			})
		},
	}
}

func newIncidentsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an incident; its id is never reused",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := api.ParseID(args[0])
			if err != nil {
				return err
			}
			return withStore(opts, func(store *database.IncidentStore) error {
				if err := store.Delete(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted incident %d\n", id)
				return nil
			})
		},
	}
}

func printIncidentTable(w io.Writer, incidents []database.Incident) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tCONFIDENCE\tFIXES\tCREATED\tLOGS")
	for _, item := range api.IncidentsToListItems(incidents) {
		confidence := string(item.Confidence)
		if confidence == "" {
			confidence = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			strconv.FormatUint(uint64(item.ID), 10),
			item.Status,
			confidence,
			item.AttemptedFixCount,
			item.CreatedAt.Format("2006-01-02 15:04"),
			utils.TruncateText(item.LogsPreview, listLogsWidth))
	}
	return tw.Flush()
}
