package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"gotestcase/internal/pkg/database"
	"gotestcase/internal/pkg/logger"
	"gotestcase/migrations"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var databaseURL string

	rootCmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Aplica as migrações goose embutidas no binário",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "DSN do PostgreSQL")

	// run abre o banco, executa a ação do goose e fecha a conexão.
	run := func(action func(ctx context.Context, db *sql.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("DATABASE_URL não definida")
			}
			db, err := database.NewPostgresDB(databaseURL, database.DefaultPoolOptions(), logger.NewLogger("warn"))
			if err != nil {
				return err
			}
			defer db.Close()

			goose.SetBaseFS(migrations.FS)
			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}
			return action(cmd.Context(), db)
		}
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Aplica todas as migrações pendentes",
			RunE: run(func(ctx context.Context, db *sql.DB) error {
				return goose.UpContext(ctx, db, ".")
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Desfaz a última migração",
			RunE: run(func(ctx context.Context, db *sql.DB) error {
				return goose.DownContext(ctx, db, ".")
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Mostra o estado de cada migração",
			RunE: run(func(ctx context.Context, db *sql.DB) error {
				return goose.StatusContext(ctx, db, ".")
			}),
		},
	)
	return rootCmd
}
