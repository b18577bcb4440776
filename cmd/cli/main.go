package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nimasrn/repair-desk/internal/auth"
	"github.com/nimasrn/repair-desk/internal/backup"
	"github.com/nimasrn/repair-desk/internal/config"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/repository"
	"github.com/nimasrn/repair-desk/internal/services"
	"github.com/nimasrn/repair-desk/migrations"
	"github.com/nimasrn/repair-desk/pkg/logger"
	"github.com/nimasrn/repair-desk/pkg/pg"
)

const usage = `usage: cli [--env=path] <command> [args]

commands:
  migrate                 apply pending migrations
  status                  print migration status
  backup                  dump every table into a timestamped directory
  restore <dir>           replace the database content with a backup
  backups                 list backup directories, newest first
  integrity               report rows pointing at missing parents
  create-admin            create an admin user (-username, -password, -email)
`

func main() {
	args := commandArgs(os.Args[1:])
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	err := config.Load(config.EnvPathFromArgs(os.Args))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Get()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	switch args[0] {
	case "migrate":
		err = pg.Migrate(cfg.PostgresWrite(), migrations.FS, ".")
	case "status":
		err = pg.MigrationStatus(cfg.PostgresWrite(), migrations.FS, ".")
	case "backup":
		err = runBackup(ctx, cfg)
	case "restore":
		if len(args) < 2 {
			err = fmt.Errorf("restore needs a backup directory")
			break
		}
		err = runRestore(ctx, cfg, args[1])
	case "backups":
		err = runList(cfg)
	case "integrity":
		err = runIntegrity(ctx, cfg)
	case "create-admin":
		err = runCreateAdmin(ctx, cfg, args[1:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "command", args[0], "error", err)
		os.Exit(1)
	}
}

// commandArgs drops the --env flag so the remaining words are the command.
func commandArgs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if strings.HasPrefix(a, "--env=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func openDB(cfg *config.Config) (*pg.DB, error) {
	return pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), false)
}

func runBackup(ctx context.Context, cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.SQL()
	if err != nil {
		return err
	}
	dir, manifest, err := backup.New(sqlDB).Backup(ctx, cfg.BackupDir)
	if err != nil {
		return err
	}
	logger.Info("backup written", "dir", dir, "tables", len(manifest.Tables))
	return printJSON(manifest)
}

func runRestore(ctx context.Context, cfg *config.Config, dir string) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.SQL()
	if err != nil {
		return err
	}
	manifest, err := backup.New(sqlDB).Restore(ctx, dir)
	if err != nil {
		return err
	}
	logger.Info("backup restored", "dir", dir, "created_at", manifest.CreatedAt)
	return printJSON(manifest)
}

func runList(cfg *config.Config) error {
	dirs, err := backup.List(cfg.BackupDir)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		fmt.Println(d)
	}
	return nil
}

func runIntegrity(ctx context.Context, cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	report, err := services.NewIntegrityService(
		repository.NewServiceRepository(db),
		repository.NewApplianceRepository(db),
	).Report(ctx)
	if err != nil {
		return err
	}
	if err := printJSON(report); err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("found %d orphaned services and %d orphaned appliances",
			len(report.OrphanedServices), len(report.OrphanedAppliances))
	}
	return nil
}

func runCreateAdmin(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	username := fs.String("username", "admin", "login name")
	password := fs.String("password", "", "at least 8 characters")
	email := fs.String("email", cfg.AdminEmail, "contact email")
	fullName := fs.String("name", "Administrator", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenManager(cfg.JwtSecret, cfg.JwtTTL)
	if err != nil {
		return err
	}
	// the bootstrap actor only exists to pass the admin check
	bootstrap := &model.Actor{Username: "cli", Role: model.RoleAdmin}
	u, err := services.NewUserService(repository.NewUserRepository(db), tokens).Create(ctx, bootstrap, model.UserCreateRequest{
		Username: *username,
		Password: *password,
		Email:    *email,
		Role:     model.RoleAdmin,
		FullName: *fullName,
	})
	if err != nil {
		return err
	}
	logger.Info("admin created", "user_id", u.ID, "username", u.Username)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
