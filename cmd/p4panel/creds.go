package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	sqliteadapter "github.com/ericfisherdev/p4panel/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/p4panel/internal/application"
)

func newCredsCmd() *cobra.Command {
	creds := &cobra.Command{
		Use:   "creds",
		Short: "Inspect or remove the saved default credential",
	}

	creds.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the saved default credential (never the ticket)",
			Args:  cobra.NoArgs,
			RunE:  runCredsShow,
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete the saved default credential",
			Args:  cobra.NoArgs,
			RunE:  runCredsClear,
		},
	)
	return creds
}

// credentialService opens the store and builds a CredentialService with no
// login capability; neither subcommand logs in.
func credentialService(cmd *cobra.Command) (*application.CredentialService, func(), error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, nil, err
	}

	db, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	store := sqliteadapter.NewCredentialRepo(db, cfg.SecretKey)
	svc := application.NewCredentialService(store, nil, logger)
	return svc, func() { closeDB(db, logger) }, nil
}

func runCredsShow(cmd *cobra.Command, _ []string) error {
	svc, done, err := credentialService(cmd)
	if err != nil {
		return err
	}
	defer done()

	status, err := svc.Status(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !status.Saved {
		color.New(color.FgYellow).Fprintln(out, "No default credential saved.")
		return nil
	}

	label := color.New(color.FgCyan)
	label.Fprint(out, "Server:   ")
	fmt.Fprintln(out, status.Server)
	label.Fprint(out, "User:     ")
	fmt.Fprintln(out, status.User)
	label.Fprint(out, "Ticket:   ")
	if status.HasTicket {
		color.New(color.FgGreen).Fprintln(out, "stored")
	} else {
		color.New(color.FgRed).Fprintln(out, "missing")
	}
	if !status.SavedAt.IsZero() {
		label.Fprint(out, "Saved at: ")
		fmt.Fprintln(out, status.SavedAt.Local().Format(time.DateTime))
	}
	return nil
}

func runCredsClear(cmd *cobra.Command, _ []string) error {
	svc, done, err := credentialService(cmd)
	if err != nil {
		return err
	}
	defer done()

	if err := svc.Clear(cmd.Context()); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "Default credential cleared.")
	return nil
}
