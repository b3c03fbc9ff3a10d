// Command backfill-project-members appends member emails to the team of
// every active project that lacks them. Archived and finished projects are
// never touched.
//
// Usage:
//
//	backfill-project-members arely@example.com design@example.com
//	backfill-project-members --done-status Finalizado --done-status Cerrado x@example.com
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"hubops/internal/audit"
	"hubops/internal/platform/backend"
	"hubops/internal/platform/config"
	"hubops/internal/platform/logger"
	"hubops/internal/platform/metrics"
	"hubops/internal/project"
	projstore "hubops/internal/project/store/firestore"
	"hubops/pkg/requestcontext"
)

func main() {
	doneStatuses := flag.StringArray("done-status", project.DefaultDoneStatuses,
		"status values treated as finished (repeatable)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: backfill-project-members <email>...")
		flag.PrintDefaults()
	}
	flag.Parse()

	emails := flag.Args()
	if len(emails) == 0 {
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
	service := project.New(
		projstore.New(clients.Firestore),
		project.WithLogger(log),
		project.WithDoneStatuses(*doneStatuses),
		project.WithAuditPublisher(audit.NewPublisher(auditStore)),
		project.WithMetrics(metrics.New(prometheus.NewRegistry())),
	)

	report, err := service.Backfill(ctx, emails)
	if err != nil {
		log.Error("backfill failed", "error", err)
		os.Exit(1)
	}

	for _, line := range report.Lines {
		fmt.Println(line)
	}
	fmt.Println(report.Summary())
	printTrail(ctx, auditStore)

	if report.Errored > 0 {
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
