package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/mind-engage/examportal/internal/api/http"
	auth "github.com/mind-engage/examportal/internal/auth/middleware"
	"github.com/mind-engage/examportal/internal/config"
	"github.com/mind-engage/examportal/internal/db"
	"github.com/mind-engage/examportal/internal/exam"
	"github.com/mind-engage/examportal/internal/storage"
	syncx "github.com/mind-engage/examportal/internal/sync"
	"github.com/mind-engage/examportal/internal/users"
)

func main() {
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	accounts := users.NewSQLStore(dbh)
	events := syncx.NewEventRepo(dbh, cfg.SiteID)
	exams := exam.NewSQLStore(dbh, events)
	sessions := &auth.Sessions{
		Auth:     auth.NewAuthService(cfg.AuthSecret, cfg.SessionTTL),
		Accounts: accounts,
		Secure:   cfg.CookieSecure,
	}

	r := api.NewRouter(api.Deps{
		DB:          dbh,
		Users:       accounts,
		Exams:       exams,
		Sessions:    sessions,
		Blobs:       bs,
		Events:      events,
		SyncToken:   cfg.SyncToken,
		CORSOrigins: cfg.CORSOrigins,
	})

	s := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("listening on %s (db=%s, site=%s)", cfg.HTTPAddr, cfg.DBDriver, cfg.SiteID)
	log.Fatal(s.ListenAndServe())
}
