// Command propagate-automations copies each tenant's canonical automation
// lists onto all alias memberships that differ.
//
// Usage:
//
//	propagate-automations <tenant-code>...
//
// Configuration comes from HUBOPS_* environment variables; see
// internal/platform/config.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"hubops/internal/alias"
	"hubops/internal/audit"
	dirstore "hubops/internal/directory/store/firestore"
	"hubops/internal/platform/backend"
	"hubops/internal/platform/config"
	"hubops/internal/platform/logger"
	"hubops/internal/platform/metrics"
	"hubops/internal/propagation"
	"hubops/pkg/requestcontext"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: propagate-automations <tenant-code>...")
		flag.PrintDefaults()
	}
	flag.Parse()

	codes := flag.Args()
	if len(codes) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log := logger.New()

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
	service := propagation.New(
		dirstore.NewTenantStore(clients.Firestore),
		dirstore.NewMembershipStore(clients.Firestore),
		alias.NewClassifier(cfg.AliasSuffixes),
		propagation.WithLogger(log),
		propagation.WithOverrides(cfg.CanonicalSources),
		propagation.WithAuditPublisher(audit.NewPublisher(auditStore)),
		propagation.WithMetrics(metrics.New(prometheus.NewRegistry())),
	)

	batch := service.PropagateAll(ctx, codes)

	for _, report := range batch.Reports {
		fmt.Println(report)
		fmt.Println()
	}
	fmt.Println(batch.Summary())
	fmt.Printf("total memberships updated: %d\n", batch.TotalUpdated())
	printTrail(ctx, auditStore)

	if len(batch.Failed) > 0 {
		os.Exit(1)
	}
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
