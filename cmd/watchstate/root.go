package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/narwhalmedia/watchstate/internal/container"
	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
	"github.com/narwhalmedia/watchstate/pkg/config"
	pkgerrors "github.com/narwhalmedia/watchstate/pkg/errors"
)

const serviceName = "watchstate"

// app carries state shared by all subcommands.
type app struct {
	configFile string
	profile    string

	cfg       *config.WatchStateConfig
	container *container.WatchStateContainer
	cleanup   func()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   serviceName,
		Short: "Per-profile watch status engine for shows, seasons and episodes",
		Long: `watchstate maintains favorite and watch-progress state for a profile's
shows. Marking a show or season cascades down to its episodes, episode
changes roll back up, and next-up lists the shows worth continuing.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Path to a YAML or JSON config file")
	root.PersistentFlags().StringVarP(&a.profile, "profile", "p", "", "Profile id (uuid)")

	root.AddCommand(
		newMigrateCmd(a),
		newFavoriteCmd(a),
		newMarkCmd(a),
		newRecomputeCmd(a),
		newStatusCmd(a),
		newNextUpCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg := config.GetDefaultWatchStateConfig()
	if err := config.LoadServiceConfig(serviceName, a.configFile, cfg); err != nil {
		return err
	}

	c, cleanup, err := container.InitializeWatchStateContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	a.cfg = cfg
	a.container = c
	a.cleanup = cleanup
	return nil
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

func (a *app) profileID() (uuid.UUID, error) {
	if a.profile == "" {
		return uuid.Nil, pkgerrors.BadRequest("--profile is required")
	}
	id, err := uuid.Parse(a.profile)
	if err != nil {
		return uuid.Nil, pkgerrors.BadRequest(fmt.Sprintf("invalid profile id %q: %v", a.profile, err))
	}
	return id, nil
}

func parseID(v string) (int64, error) {
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.BadRequest(fmt.Sprintf("invalid id %q", v))
	}
	return id, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult writes res and turns a failed outcome into a typed error so
// the process exits with the matching code.
func printResult(cmd *cobra.Command, res domain.Result) error {
	if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	switch res.Outcome {
	case domain.OutcomeNotFound:
		return pkgerrors.NotFound("target is not favorited")
	case domain.OutcomeAborted:
		return pkgerrors.CascadeAborted("cascade matched no rows and was rolled back")
	}
	return nil
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch pkgerrors.TypeOf(err) {
	case "":
		if err == nil {
			return 0
		}
		return 1
	case pkgerrors.ErrorTypeBadRequest:
		return 2
	case pkgerrors.ErrorTypeNotFound:
		return 3
	case pkgerrors.ErrorTypeCascadeAborted:
		return 4
	default:
		return 1
	}
}
