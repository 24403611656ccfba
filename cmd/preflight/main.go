// cmd/preflight/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/pagewatch/internal/config"
)

func main() {
	if err := preflight(os.Stdout, os.Stderr); err != nil {
		for _, e := range multierr.Errors(err) {
			fmt.Fprintln(os.Stderr, "✖", e)
		}
		os.Exit(1)
	}
}

// preflight loads the same configuration the API would and reports what is
// missing or likely wrong. Hard errors are returned; soft issues are warnings.
func preflight(stdout, stderr io.Writer) error {
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	var errs error
	if len(cfg.AdminAPIKeys) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("ADMIN_API_KEYS is empty (POST /api/check is open to anyone)"))
	}
	if len(cfg.PublicAPIKeys) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("PUBLIC_API_KEYS is empty (read routes are open to anyone)"))
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for _, name := range []string{"ADMIN_API_KEYS", "PUBLIC_API_KEYS", "TARGET_URLS"} {
		if strings.Contains(os.Getenv(name), ", ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. a,b")
		}
	}

	ok("API_ADDR=" + cfg.Addr)
	ok(fmt.Sprintf("targets (%d): %s", len(cfg.Targets), strings.Join(cfg.Targets, ", ")))
	if strings.TrimSpace(os.Getenv("TARGET_URLS")) == "" {
		warn("TARGET_URLS empty; only the default target will be watched.")
	}

	switch cfg.StoreDriver {
	case config.DriverMemory:
		warn("STORE_DRIVER=memory; every restart is a cold start and no change is reported on the first run.")
	case config.DriverSQLite:
		ok("STORE_DRIVER=sqlite at " + cfg.SQLitePath)
	case config.DriverPostgres:
		ok("STORE_DRIVER=postgres (DATABASE_URL present)")
	}

	switch {
	case cfg.TelegramToken != "" && cfg.TelegramChatID != "":
		ok("notifications via Telegram")
	case cfg.SlackWebhookURL != "":
		ok("notifications via Slack webhook")
	default:
		warn("no notifier configured; changes will be logged as notify_skipped.")
	}
	if (cfg.TelegramToken == "") != (cfg.TelegramChatID == "") {
		warn("only one of TELEGRAM_BOT_TOKEN / TELEGRAM_CHAT_ID is set.")
	}

	ok(fmt.Sprintf("schedule %q in %s (run on start: %v)", cfg.CheckSchedule, cfg.CheckTimezone, cfg.CheckOnStart))

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; CORS allows any origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if errs != nil {
		return errs
	}
	ok("preflight passed")
	return nil
}
