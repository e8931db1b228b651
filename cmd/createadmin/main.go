package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/GTDGit/gtd_catalog/internal/config"
	"github.com/GTDGit/gtd_catalog/internal/database"
	"github.com/GTDGit/gtd_catalog/internal/repository"
	"github.com/GTDGit/gtd_catalog/internal/service"
)

// createadmin adds an admin account to the catalog database. Migrations must have run.
func main() {
	email := flag.String("email", "", "Admin email (required)")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "Admin password, at least 8 characters (default $ADMIN_PASSWORD)")
	name := flag.String("name", "Administrator", "Display name")
	flag.Parse()

	if strings.TrimSpace(*email) == "" || len(*password) < 8 {
		fmt.Fprintln(os.Stderr, "Error: -email and a -password of at least 8 characters are required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	db, err := database.Connect(&cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc := service.NewAdminAuthService(repository.NewAdminUserRepository(db))
	admin, err := svc.CreateAdmin(ctx, *email, *password, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created admin %d (%s)\n", admin.ID, admin.Email)
}
