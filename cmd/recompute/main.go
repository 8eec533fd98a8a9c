// Command recompute rebuilds the derived analytics for a calendar day.
// The tables it writes are never authoritative, so it is always safe to
// re-run.
//
//	recompute [YYYY-MM-DD]
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/foodbridge/foodbridge/internal/analytics"
	"github.com/foodbridge/foodbridge/internal/config"
	"github.com/foodbridge/foodbridge/internal/store/postgres"
)

func main() {
	date := time.Now().UTC()
	if len(os.Args) > 1 {
		parsed, err := time.Parse("2006-01-02", os.Args[1])
		if err != nil {
			log.Fatalf("invalid date %q, want YYYY-MM-DD: %v", os.Args[1], err)
		}
		date = parsed
	}

	cfg := config.Load()
	ctx := context.Background()

	st, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect failed: %v", err)
	}
	defer st.Close()

	svc := analytics.NewService(st)

	daily, err := svc.RecomputeDaily(ctx, date)
	if err != nil {
		log.Fatalf("recompute daily failed: %v", err)
	}
	impact, err := svc.RecomputeImpact(ctx, date)
	if err != nil {
		log.Fatalf("recompute impact failed: %v", err)
	}

	out, _ := json.MarshalIndent(map[string]any{"daily": daily, "impact": impact}, "", "  ")
	os.Stdout.Write(append(out, '\n'))
}
