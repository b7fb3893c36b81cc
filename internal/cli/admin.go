package cli

import (
	"fmt"
	"strconv"

	allocsvc "coopshares-backend/internal/application/allocation"
	coopsvc "coopshares-backend/internal/application/coops"
	"coopshares-backend/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createCoopCmd)
	rootCmd.AddCommand(issueSharesCmd)
	rootCmd.AddCommand(finalizeCmd)

	createCoopCmd.Flags().String("board", "", "User name of the founding board member")
	createCoopCmd.Flags().String("village", "", "Village of the cooperative")
	createCoopCmd.Flags().Int64("price", 0, "Price per share")
	issueSharesCmd.Flags().String("as", "", "User name of the acting board member")
	finalizeCmd.Flags().String("as", "", "User name of the acting board member")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()
		if err := database.AutoMigrate(d.db); err != nil {
			return err
		}
		log.Info().Msg("schema is up to date")
		return nil
	},
}

var createCoopCmd = &cobra.Command{
	Use:   "create-coop NAME",
	Short: "Register a cooperative with its founding board member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()
		board, _ := cmd.Flags().GetString("board")
		actor, err := actorFor(cmd.Context(), d.db, board)
		if err != nil {
			return err
		}
		village, _ := cmd.Flags().GetString("village")
		price, _ := cmd.Flags().GetInt64("price")

		svc := &coopsvc.Service{DB: d.db, Locker: d.locker}
		coop, _, err := svc.Create(cmd.Context(), actor, coopsvc.CoopInput{Name: args[0], Village: village, PricePerShare: price})
		if err != nil {
			return err
		}
		return printJSON(cmd, coop)
	},
}

var issueSharesCmd = &cobra.Command{
	Use:   "issue-shares COOP_ID QUANTITY",
	Short: "Add shares to a cooperative's treasury",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		coopID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("cooperative id: %w", err)
		}
		qty, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("quantity: %w", err)
		}
		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()
		as, _ := cmd.Flags().GetString("as")
		actor, err := actorFor(cmd.Context(), d.db, as)
		if err != nil {
			return err
		}
		svc := &coopsvc.Service{DB: d.db, Locker: d.locker}
		coop, err := svc.IssuePrimaryShares(cmd.Context(), actor, coopID, qty)
		if err != nil {
			return err
		}
		return printJSON(cmd, coop)
	},
}

var finalizeCmd = &cobra.Command{
	Use:   "finalize PROJECT_ID",
	Short: "Finalize a project and allocate its shares to contributors",
	Long: `Marks the project DONE and credits each contributor with their part of the
project's share pool. Running it again on a finalized project prints the
stored allocation and changes nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("project id: %w", err)
		}
		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()
		as, _ := cmd.Flags().GetString("as")
		actor, err := actorFor(cmd.Context(), d.db, as)
		if err != nil {
			return err
		}
		svc := &allocsvc.Service{DB: d.db, Locker: d.locker}
		result, err := svc.Finalize(cmd.Context(), actor, projectID)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}
