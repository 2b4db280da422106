package main

import (
	"errors"
	"fmt"

	"github.com/jaswdr/faker"
	"github.com/spf13/cobra"

	"table-service-go/internal/app"
	"table-service-go/internal/db"
	"table-service-go/internal/domain"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the floor plan, demo menu and demo staff when they are missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		a, err := app.New(ctx, cfg, logger, app.Options{SkipRabbitMQ: true})
		if err != nil {
			return err
		}
		defer a.Close()

		if ok, err := db.SeedMenu(ctx, a.Store()); err != nil {
			return fmt.Errorf("seed menu: %w", err)
		} else if ok {
			logger.Info("demo menu seeded")
		} else {
			logger.Info("menu already has dishes, left alone")
		}

		n, _ := cmd.Flags().GetInt("waiters")
		m, _ := cmd.Flags().GetInt("chefs")
		pw, _ := cmd.Flags().GetString("password")
		f := faker.New()
		for _, grp := range []struct {
			role  string
			count int
		}{{app.RoleWaiter, n}, {app.RoleChef, m}} {
			for i := 1; i <= grp.count; i++ {
				username := fmt.Sprintf("%s%d", roleSlug(grp.role), i)
				st, err := a.CreateStaff(ctx, username, pw, grp.role, f.Person().Name())
				if errors.Is(err, domain.ErrInvalidState) {
					logger.Info("staff exists, skipped", "username", username)
					continue
				}
				if err != nil {
					return fmt.Errorf("seed staff %s: %w", username, err)
				}
				logger.Info("demo staff created", "username", st.Username, "name", st.DisplayName, "role", st.Role)
			}
		}
		return nil
	},
}

func roleSlug(role string) string {
	switch role {
	case app.RoleWaiter:
		return "waiter"
	case app.RoleChef:
		return "chef"
	default:
		return "staff"
	}
}

func init() {
	seedCmd.Flags().Int("waiters", 2, "demo waiter accounts to create")
	seedCmd.Flags().Int("chefs", 2, "demo chef accounts to create")
	seedCmd.Flags().String("password", "changeme123", "password for the demo accounts")
}
