package main

import (
	"fmt"

	"github.com/spf13/cobra"

	accountStore "bulkmail/internal/adapters/storage/account"
	"bulkmail/internal/application/orchestrators"
)

func newSeedAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Delete and recreate the admin account",
		Long: "Deletes any account with the admin email and creates a fresh admin.\n" +
			"Tokens issued to the previous account stop working.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := openDB(ctx, a.cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()

			acct, err := orchestrators.ExecuteSeedAdmin(ctx, a.cfg.Admin.Email, a.cfg.Admin.Password, orchestrators.SeedAdminDeps{
				AccountStore: accountStore.NewSQLiteStore(db),
			})
			if err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin user created: %s\n", acct.Email)
			return nil
		},
	}
	cmd.Flags().String("admin.email", "admin@bulkmail.com", "admin email")
	cmd.Flags().String("admin.password", "", "admin password (or BULKMAIL_ADMIN_PASSWORD)")
	a.bindFlags(cmd.Flags(), "admin.email", "admin.password")
	return cmd
}
