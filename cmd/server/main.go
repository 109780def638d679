// Command server runs a standalone dynamic API server: a management surface
// on /manage and the CRUD routes of every registered API on /api.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	dynapi "github.com/goliatone/go-dynapi"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "listen address")
		driver       = flag.String("driver", "sqlite3", "database driver: sqlite3 or postgres")
		dsn          = flag.String("dsn", "file:dynapi.db?cache=shared&_fk=1", "database DSN")
		logLevel     = flag.String("log-level", "info", "log level: trace, debug, info, warn, error")
		logText      = flag.Bool("log-text", false, "log in console format instead of JSON")
		dropOnDelete = flag.Bool("drop-on-delete", false, "drop entity tables when their API is deleted")
	)
	flag.Parse()

	if err := run(*addr, *driver, *dsn, *logLevel, *logText, *dropOnDelete); err != nil {
		log.Fatal(err)
	}
}

func run(addr, driver, dsn, logLevel string, logText, dropOnDelete bool) error {
	db, err := openDB(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	cfg := dynapi.DefaultConfig()
	cfg.Logging.Level = logLevel
	cfg.Storage.DropOnDelete = dropOnDelete
	if logText {
		cfg.Logging.Format = "console"
	}

	module, err := dynapi.New(cfg, db)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := module.Start(ctx); err != nil {
		return err
	}

	mux := http.NewServeMux()
	if err := module.Register(mux); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger := module.Logger("dynapi.server")
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "driver", driver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}

func openDB(driver, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	switch driver {
	case "sqlite3":
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case "postgres":
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		sqldb.Close()
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}
