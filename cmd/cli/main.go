package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

type checkRow struct {
	Target      string     `json:"target"`
	Outcome     string     `json:"outcome"`
	Changed     bool       `json:"changed"`
	Fingerprint string     `json:"fingerprint"`
	LastUpdated *time.Time `json:"last_updated"`
	Error       string     `json:"error"`
}

func main() {
	api := flag.String("api", envOr("API_BASE", "http://localhost:8080"), "pagewatch API base URL")
	key := flag.String("key", os.Getenv("API_KEY"), "API key (admin key for a check run)")
	statusOnly := flag.Bool("status", false, "show stored state instead of running a check")
	timeout := flag.Duration("timeout", 2*time.Minute, "request timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rows, err := call(ctx, http.DefaultClient, *api, *key, *statusOnly)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	printRows(os.Stdout, rows)

	for _, r := range rows {
		if r.Outcome == "error" {
			os.Exit(2)
		}
	}
}

func call(ctx context.Context, client *http.Client, base, key string, statusOnly bool) ([]checkRow, error) {
	method, path := http.MethodPost, "/api/check"
	if statusOnly {
		method, path = http.MethodGet, "/api/status"
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return nil, err
	}
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var rows []checkRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return rows, nil
}

func printRows(w io.Writer, rows []checkRow) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tOUTCOME\tLAST UPDATED\tDETAIL")
	for _, r := range rows {
		updated := "-"
		if r.LastUpdated != nil {
			updated = r.LastUpdated.Format(time.RFC3339)
		}
		outcome := r.Outcome
		if outcome == "" {
			outcome = "-"
		}
		detail := r.Error
		if detail == "" && len(r.Fingerprint) >= 12 {
			detail = r.Fingerprint[:12]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Target, outcome, updated, detail)
	}
	_ = tw.Flush()
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
