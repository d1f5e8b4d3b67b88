package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"cheatreport/backend/internal/api/handler"
	"cheatreport/backend/internal/cases"
	"cheatreport/backend/internal/config"
	"cheatreport/backend/internal/eventbus"
	"cheatreport/backend/internal/logger"
	"cheatreport/backend/internal/models"
	"cheatreport/backend/internal/storage"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [args]

  create-user <username> [origin_user_id]   create a site account
  grant <user_id> <privilege>               add a privilege
  revoke <user_id> <privilege>              remove a privilege
  token <user_id>                           issue a bearer token
  history <origin_user_id>                  print the name history of an identity`

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	store := storage.NewStorageService(db)
	// Privilege changes publish nothing; the bus is never run.
	svc := cases.NewService(store, nil, eventbus.New(1, logger.Nop()), logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	args := os.Args[2:]
	switch os.Args[1] {
	case "create-user":
		need(args, 1, "create-user <username> [origin_user_id]")
		u := &models.User{Username: args[0]}
		if len(args) > 1 {
			u.OriginUserID = &args[1]
		}
		if err := store.CreateUser(ctx, u); err != nil {
			log.Fatalf("Error creating user: %v", err)
		}
		fmt.Printf("User %s created with id %s.\n", u.Username, u.ID)
	case "grant", "revoke":
		need(args, 2, os.Args[1]+" <user_id> <privilege>")
		change := svc.GrantPrivilege
		if os.Args[1] == "revoke" {
			change = svc.RevokePrivilege
		}
		set, err := change(ctx, args[0], models.Privilege(args[1]))
		if err != nil {
			log.Fatalf("Error changing privileges: %v", err)
		}
		fmt.Printf("User %s now has: %s\n", args[0], strings.Join(set.Strings(), ", "))
	case "token":
		need(args, 1, "token <user_id>")
		if _, err := store.GetUser(ctx, args[0]); err != nil {
			log.Fatalf("Error loading user: %v", err)
		}
		tok, err := handler.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL).Issue(args[0])
		if err != nil {
			log.Fatalf("Error issuing token: %v", err)
		}
		fmt.Println(tok)
	case "history":
		need(args, 1, "history <origin_user_id>")
		logs, err := store.NameHistory(ctx, args[0])
		if err != nil {
			log.Fatalf("Error loading history: %v", err)
		}
		for _, l := range logs {
			mark := ""
			if l.Current {
				mark = " (current)"
			}
			fmt.Printf("%-24s %s .. %s%s\n", l.OriginName, l.FromTime.Format(time.RFC3339), l.ToTime.Format(time.RFC3339), mark)
		}
	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func need(args []string, n int, form string) {
	if len(args) < n {
		fmt.Println("Usage: admin " + form)
		os.Exit(1)
	}
}
