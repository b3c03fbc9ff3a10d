// Command relink-billing points expense records at their customer. The
// customer is resolved by exact name variants, then tax-id substring, then a
// normalized keyword match over name and legal name; --create makes the run
// create the customer when nothing matches.
//
// Usage:
//
//	relink-billing --company sgac --customer Invomex \
//	    --name-variant INVOMEX --tax-id IV0100127GI5 \
//	    --normalized "SGAC Platform" --create
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	flag "github.com/spf13/pflag"

	"hubops/internal/audit"
	"hubops/internal/billing"
	"hubops/internal/billing/models"
	billstore "hubops/internal/billing/store/firestore"
	"hubops/internal/platform/backend"
	"hubops/internal/platform/config"
	"hubops/internal/platform/logger"
	"hubops/internal/platform/metrics"
	"hubops/pkg/requestcontext"
)

func main() {
	company := flag.String("company", "", "keyword matched against expense company names (required)")
	customer := flag.String("customer", "", "customer name (required; also the first name variant)")
	variants := flag.StringArray("name-variant", nil, "extra exact-name variants to try (repeatable)")
	taxID := flag.String("tax-id", "", "customer tax id, matched as an uppercase substring")
	legalName := flag.String("legal-name", "", "customer legal name, used for keyword matching and creation")
	normalized := flag.String("normalized", "", "normalized company name pinned on relinked expenses (defaults to the customer name)")
	create := flag.Bool("create", false, "create the customer when no match is found")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: relink-billing --company <keyword> --customer <name> [flags]")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *company == "" || *customer == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *normalized == "" {
		*normalized = *customer
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
	service := billing.New(
		billstore.NewCustomerStore(clients.Firestore),
		billstore.NewExpenseStore(clients.Firestore),
		billing.WithLogger(log),
		billing.WithAuditPublisher(audit.NewPublisher(auditStore)),
		billing.WithMetrics(metrics.New(prometheus.NewRegistry())),
	)

	spec := billing.CustomerSpec{
		NameVariants: append([]string{*customer}, *variants...),
		TaxID:        *taxID,
		Keywords:     []string{*customer, *legalName},
	}
	if *create {
		spec.Template = &models.Customer{
			Name:      *customer,
			LegalName: *legalName,
			TaxID:     *taxID,
		}
	}

	resolved, created, err := service.ResolveCustomer(ctx, spec)
	if err != nil {
		log.Error("customer resolution failed", "customer", *customer, "error", err)
		os.Exit(1)
	}
	if created {
		fmt.Printf("customer %q created (%s)\n", resolved.Name, resolved.ID)
	} else {
		fmt.Printf("customer %q found (%s)\n", resolved.Name, resolved.ID)
	}

	report, err := service.RelinkExpenses(ctx, *company, *normalized, resolved)
	if err != nil {
		log.Error("relink failed", "error", err)
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
