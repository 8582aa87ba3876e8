package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/repository"
	"github.com/narwhalmedia/watchstate/pkg/database"
)

func newMigrateCmd(a *app) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db := a.container.DB
			if status {
				return database.MigrationStatus(ctx, db)
			}
			if err := database.Migrate(ctx, db, repository.Models()...); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "Show migration status instead of migrating")
	return cmd
}

func newFavoriteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorite",
		Short: "Manage a profile's favorite shows",
	}

	var seed bool
	add := &cobra.Command{
		Use:   "add <show-id>",
		Short: "Favorite a show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profileID, err := a.profileID()
			if err != nil {
				return err
			}
			showID, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := a.container.Service.AddFavorite(cmd.Context(), profileID, showID, seed)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}
	add.Flags().BoolVar(&seed, "seed", true, "Create NOT_WATCHED rows for every season and episode")

	remove := &cobra.Command{
		Use:   "remove <show-id>",
		Short: "Unfavorite a show and drop its status rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profileID, err := a.profileID()
			if err != nil {
				return err
			}
			showID, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := a.container.Service.RemoveFavorite(cmd.Context(), profileID, showID)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}

func newMarkCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Set a watch status",
	}

	show := &cobra.Command{
		Use:   "show <show-id> <status>",
		Short: "Set a show's status and cascade it to seasons and episodes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			profileID, err := a.profileID()
			if err != nil {
				return err
			}
			showID, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := a.container.Service.SetAndCascade(cmd.Context(), profileID, showID, domain.Status(strings.ToUpper(args[1])))
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}

	var recompute bool
	episode := &cobra.Command{
		Use:   "episode <episode-id> <WATCHED|NOT_WATCHED>",
		Short: "Set a single episode's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			profileID, err := a.profileID()
			if err != nil {
				return err
			}
			episodeID, err := parseID(args[0])
			if err != nil {
				return err
			}
			status := domain.Status(strings.ToUpper(args[1]))

			svc := a.container.Service
			var res domain.Result
			if recompute {
				res, err = svc.SetEpisodeStatusAndRecompute(cmd.Context(), profileID, episodeID, status)
			} else {
				res, err = svc.SetEpisodeStatus(cmd.Context(), profileID, episodeID, status)
			}
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}
	episode.Flags().BoolVar(&recompute, "recompute", true, "Recompute season and show statuses in the same transaction")

	cmd.AddCommand(show, episode)
	return cmd
}

func newRecomputeCmd(a *app) *cobra.Command {
	var allProfiles bool

	cmd := &cobra.Command{
		Use:   "recompute <show-id>",
		Short: "Rebuild season and show statuses from episode statuses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			showID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if allProfiles {
				res, err := a.container.Service.RecomputeShow(cmd.Context(), showID)
				if err != nil {
					return err
				}
				return printResult(cmd, res)
			}

			profileID, err := a.profileID()
			if err != nil {
				return err
			}
			res, err := a.container.Service.Recompute(cmd.Context(), profileID, showID)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}
	cmd.Flags().BoolVar(&allProfiles, "all-profiles", false, "Recompute for every profile favoriting the show")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <show|season|episode> <id>",
		Short: "Print a stored watch status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			profileID, err := a.profileID()
			if err != nil {
				return err
			}
			kind, err := domain.ParseKind(strings.ToLower(args[0]))
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			status, err := a.container.Service.GetWatchStatus(cmd.Context(), profileID, kind, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func newNextUpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "next-up",
		Short: "List in-progress shows with their next unwatched episodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profileID, err := a.profileID()
			if err != nil {
				return err
			}
			shows, err := a.container.Service.NextUnwatched(cmd.Context(), profileID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), shows)
		},
	}
}
