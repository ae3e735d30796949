package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pesio-ai/be-procurement/internal/common/auth"
	"github.com/pesio-ai/be-procurement/internal/common/authz"
	"github.com/pesio-ai/be-procurement/internal/repository"
	"github.com/pesio-ai/be-procurement/internal/seed"
	"github.com/pesio-ai/be-procurement/internal/service"
)

var flagSeedFile string

func init() {
	seedCmd.Flags().StringVarP(&flagSeedFile, "file", "f", "", "seed YAML file (required)")
	_ = seedCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load users, vendors, categories and rules from a YAML file",
	Long: `Load reference data from a YAML file. Records whose email or name
already exists are skipped, so the command is safe to re-run.

	Examples:
	  procurementctl seed --file seeds/dev.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := seed.Load(flagSeedFile)
		if err != nil {
			return err
		}

		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		az, err := authz.NewDefaultAuthorizer(authz.ModeEnforce)
		if err != nil {
			return err
		}

		users := repository.NewUserRepository(e.db)
		vendors := repository.NewVendorRepository(e.db)
		categories := repository.NewCategoryRepository(e.db)
		rules := repository.NewApprovalRulesRepository(e.db)

		catalog := service.NewCatalogService(rules, vendors, categories, e.log)
		tokens := auth.NewTokenIssuer(e.cfg.Auth.JWTSecret, e.cfg.Auth.TokenTTL, e.cfg.Auth.Issuer)
		accounts := service.NewUserService(users, tokens, az, e.log)

		lookups := &seed.RepositoryLookups{Users: users, Vendors: vendors, Categories: categories, Rules: rules}
		rep, err := seed.NewSeeder(lookups, catalog, accounts, e.log).Apply(cmd.Context(), f)
		if err != nil {
			return err
		}

		for _, k := range []string{"users", "vendors", "categories", "rules"} {
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s created %d, skipped %d\n", k, rep.Created[k], rep.Skipped[k])
		}
		return nil
	},
}
