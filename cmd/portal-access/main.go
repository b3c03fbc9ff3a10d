// Command portal-access inspects and repairs admin-portal access, which
// lives in two places: custom claims on the identity record and the
// portal-access flag on the user directory profile.
//
// Usage:
//
//	portal-access --inspect ana@example.com
//	portal-access --repair ana@example.com --repair luis@example.com
//	portal-access --repair-all
//
// The three modes are mutually exclusive. Inspect never writes.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"hubops/internal/audit"
	dirstore "hubops/internal/directory/store/firestore"
	idstore "hubops/internal/identity/store/firebase"
	"hubops/internal/platform/backend"
	"hubops/internal/platform/config"
	"hubops/internal/platform/logger"
	"hubops/internal/platform/metrics"
	"hubops/internal/portal"
	"hubops/pkg/requestcontext"
)

func main() {
	inspect := flag.String("inspect", "", "report portal access for one email, without writing")
	repair := flag.StringArray("repair", nil, "grant portal access to an email (repeatable)")
	repairAll := flag.Bool("repair-all", false, "repair every flagged profile with missing claims")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: portal-access --inspect <email> | --repair <email>... | --repair-all")
		flag.PrintDefaults()
	}
	flag.Parse()

	modes := 0
	if *inspect != "" {
		modes++
	}
	if len(*repair) > 0 {
		modes++
	}
	if *repairAll {
		modes++
	}
	if modes != 1 {
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
	service := portal.New(
		idstore.New(clients.Auth),
		dirstore.NewProfileStore(clients.Firestore, cfg.AuraTenantCode),
		cfg.PortalRole,
		cfg.PortalRoutes,
		portal.WithLogger(log),
		portal.WithAuditPublisher(audit.NewPublisher(auditStore)),
		portal.WithMetrics(metrics.New(prometheus.NewRegistry())),
	)

	switch {
	case *inspect != "":
		report, err := service.Inspect(ctx, *inspect)
		if err != nil {
			log.Error("inspect failed", "email", *inspect, "error", err)
			os.Exit(1)
		}
		printReport(report)

	case len(*repair) > 0:
		failed := 0
		for _, addr := range *repair {
			result, err := service.Repair(ctx, addr)
			if err != nil {
				failed++
				fmt.Printf("%s: FAILED: %v\n", addr, err)
				continue
			}
			fmt.Printf("%s: %s\n", addr, describeRepair(result))
		}
		printTrail(ctx, auditStore)
		if failed > 0 {
			os.Exit(1)
		}

	case *repairAll:
		batch, err := service.RepairAll(ctx)
		if err != nil {
			log.Error("repair-all failed", "error", err)
			os.Exit(1)
		}
		for _, line := range batch.Lines {
			fmt.Println(line)
		}
		fmt.Printf("\nexamined: %d, repaired: %d, already correct: %d, errors: %d\n",
			batch.Examined, batch.Repaired, batch.Correct, batch.Errored)
		printTrail(ctx, auditStore)
		if batch.Errored > 0 {
			os.Exit(1)
		}
	}
}

func printReport(report *portal.Report) {
	fmt.Printf("email: %s\n", report.Email)
	if !report.IdentityFound {
		fmt.Println("identity record: NOT FOUND")
	} else {
		fmt.Printf("identity record: %s (verified=%t)\n", report.UID, report.Verified)
		fmt.Printf("  internal: %t\n", report.Internal)
		fmt.Printf("  role: %s\n", orNone(report.Role))
		fmt.Printf("  allowed routes: %s\n", orNone(strings.Join(report.AllowedRoutes, ", ")))
	}
	if !report.ProfileFound {
		fmt.Println("directory profile: NOT FOUND")
	} else {
		fmt.Printf("directory profile: %s (active=%t)\n", report.ProfileID, report.Active)
		fmt.Printf("  portal access: %t\n", report.PortalAccess)
	}
	fmt.Printf("fully configured: %t\n", report.FullyConfigured())
}

func describeRepair(result *portal.RepairResult) string {
	if !result.Changed() {
		return "already correct"
	}
	var parts []string
	if result.ClaimsChanged {
		parts = append(parts, "claims set")
	}
	if result.ProfileCreated {
		parts = append(parts, "profile created")
	}
	if result.ProfileChanged {
		parts = append(parts, "portal flag set")
	}
	return strings.Join(parts, ", ")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
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
