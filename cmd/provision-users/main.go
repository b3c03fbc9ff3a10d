// Command provision-users idempotently ensures the identity record, user
// directory profile, and tenant membership for each roster entry.
//
// Usage:
//
//	provision-users --roster roster.csv
//	provision-users "ana@example.com,finsa,Ana Torres" "edc-pz@example.com,edc"
//
// Each entry is email,tenant-code and an optional display name. Entries that
// fail are reported and do not stop the rest; re-running completes partially
// provisioned principals.
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"hubops/internal/alias"
	"hubops/internal/audit"
	dirstore "hubops/internal/directory/store/firestore"
	idstore "hubops/internal/identity/store/firebase"
	"hubops/internal/platform/backend"
	"hubops/internal/platform/config"
	"hubops/internal/platform/logger"
	"hubops/internal/platform/metrics"
	"hubops/internal/provisioning"
	"hubops/pkg/requestcontext"
)

func main() {
	rosterPath := flag.String("roster", "", "CSV file of email,tenant-code,display-name entries")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, `usage: provision-users [--roster file.csv] ["email,tenant[,display name]"...]`)
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logger.New()

	requests, err := loadRequests(*rosterPath, flag.Args())
	if err != nil {
		log.Error("roster error", "error", err)
		os.Exit(1)
	}
	if len(requests) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx := requestcontext.WithActor(context.Background(), operator())

	clients, err := backend.Dial(ctx, &cfg)
	if err != nil {
		log.Error("backend dial failed", "error", err)
		os.Exit(1)
	}
	defer clients.Close()

	auditStore := audit.NewMemoryStore()
	service := provisioning.New(
		idstore.New(clients.Auth),
		dirstore.NewTenantStore(clients.Firestore),
		dirstore.NewMembershipStore(clients.Firestore),
		dirstore.NewProfileStore(clients.Firestore, cfg.AuraTenantCode),
		alias.NewClassifier(cfg.AliasSuffixes),
		provisioning.WithLogger(log),
		provisioning.WithOverrides(cfg.CanonicalSources),
		provisioning.WithRequireCanonicalSource(cfg.RequireCanonicalSource),
		provisioning.WithAuditPublisher(audit.NewPublisher(auditStore)),
		provisioning.WithMetrics(metrics.New(prometheus.NewRegistry())),
	)

	created, existing, failed := 0, 0, 0
	for _, req := range requests {
		result, err := service.EnsureUser(ctx, req)
		if err != nil {
			failed++
			fmt.Printf("%s (%s): FAILED: %v\n", req.Email, req.TenantCode, err)
			continue
		}
		if result.IdentityCreated || result.ProfileCreated || result.MembershipCreated {
			created++
		} else {
			existing++
		}
		fmt.Printf("%s (%s): identity %s%s, profile %s%s, membership %s%s",
			req.Email, req.TenantCode,
			result.IdentityUID, createdMark(result.IdentityCreated),
			result.ProfileID, createdMark(result.ProfileCreated),
			result.MembershipID, createdMark(result.MembershipCreated))
		if result.SeededAutomations > 0 {
			fmt.Printf(", seeded %d automations", result.SeededAutomations)
		}
		fmt.Println()
	}

	fmt.Printf("\nprovisioned: %d, already complete: %d, failed: %d\n", created, existing, failed)
	printTrail(ctx, auditStore)

	if failed > 0 {
		os.Exit(1)
	}
}

// loadRequests merges the roster file and inline arguments, file first.
func loadRequests(rosterPath string, args []string) ([]provisioning.Request, error) {
	var requests []provisioning.Request

	if rosterPath != "" {
		f, err := os.Open(rosterPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		reader := csv.NewReader(f)
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		for {
			record, err := reader.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			req, err := parseEntry(record)
			if err != nil {
				return nil, err
			}
			requests = append(requests, req)
		}
	}

	for _, arg := range args {
		req, err := parseEntry(strings.SplitN(arg, ",", 3))
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, nil
}

func parseEntry(fields []string) (provisioning.Request, error) {
	if len(fields) < 2 {
		return provisioning.Request{}, fmt.Errorf("entry %q: want email,tenant-code[,display name]", strings.Join(fields, ","))
	}
	req := provisioning.Request{
		Email:      strings.TrimSpace(fields[0]),
		TenantCode: strings.TrimSpace(fields[1]),
	}
	if len(fields) > 2 {
		req.DisplayName = strings.TrimSpace(fields[2])
	}
	return req, nil
}

func createdMark(created bool) string {
	if created {
		return " (created)"
	}
	return ""
}

func printTrail(ctx context.Context, store *audit.MemoryStore) {
	events, err := store.List(ctx)
	if err != nil || len(events) == 0 {
		return
	}
	fmt.Println("\naudit trail:")
	for _, event := range events {
		fmt.Printf("  %s %s %s %s\n",
			event.Timestamp.Format("15:04:05"), event.Action, event.Subject, event.Detail)
	}
}

func operator() string {
	if actor := os.Getenv("HUBOPS_OPERATOR"); actor != "" {
		return actor
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "operator"
}
