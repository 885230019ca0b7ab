package migrations

import (
	"context"
	"fmt"

	"github.com/finza-app/finza/pkg/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Print(" [up migration] ")

		// Create auth schema
		_, err := db.NewRaw("CREATE SCHEMA IF NOT EXISTS auth").Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewCreateTable().
			Model((*models.User)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewCreateTable().
			Model((*models.Account)(nil)).
			IfNotExists().
			ForeignKey(`("user_id") REFERENCES auth.users ("id") ON DELETE CASCADE`).
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewCreateTable().
			Model((*models.Session)(nil)).
			IfNotExists().
			ForeignKey(`("user_id") REFERENCES auth.users ("id") ON DELETE CASCADE`).
			Exec(ctx)
		if err != nil {
			return err
		}

		// The identity resolver relies on this constraint to make
		// create-or-link atomic under concurrent OAuth callbacks.
		_, err = db.NewRaw("CREATE UNIQUE INDEX IF NOT EXISTS auth_accounts_provider_provider_account_id_idx ON auth.accounts (provider, provider_account_id)").Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewRaw("CREATE INDEX IF NOT EXISTS auth_sessions_user_id_idx ON auth.sessions (user_id)").Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Print(" [down migration] ")

		_, err := db.NewDropTable().Model((*models.Session)(nil)).IfExists().Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewDropTable().Model((*models.Account)(nil)).IfExists().Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewDropTable().Model((*models.User)(nil)).IfExists().Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewRaw("DROP SCHEMA IF EXISTS auth").Exec(ctx)
		return err
	})
}
