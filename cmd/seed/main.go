// Command seed populates a development database with realistic sample leads
// and tasks for one user.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/pipelinealfa/crm/config"
	"github.com/pipelinealfa/crm/pkg/database"
	"github.com/pipelinealfa/crm/pkg/models"
	"github.com/pipelinealfa/crm/pkg/store"
	"github.com/pipelinealfa/crm/pkg/testdata"
)

func main() {
	var (
		userID       = flag.String("user", "", "user ID to attach the sample data to (required)")
		email        = flag.String("email", "", "also insert an active subscription row for this e-mail")
		leadCount    = flag.Int("leads", 10, "number of leads to create")
		tasksPerLead = flag.Int("tasks-per-lead", 2, "number of tasks per lead")
		seed         = flag.Int64("seed", 0, "random seed (0 = time-based)")
	)
	flag.Parse()

	if *userID == "" {
		log.Fatal("❌ -user is required")
	}

	cfg := config.Load()

	db, err := database.NewClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	stores := store.New(db.DB)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := stores.EnsureSchema(ctx, db.DB); err != nil {
		log.Fatalf("❌ Failed to ensure database schema: %v", err)
	}

	randSeed := *seed
	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}
	gen := testdata.New(randSeed)

	leads, tasks := gen.Board(*userID, *leadCount, *tasksPerLead)

	for i := range leads {
		if err := stores.Leads.Create(ctx, &leads[i]); err != nil {
			log.Fatalf("❌ Failed to insert lead %q: %v", leads[i].Name, err)
		}
	}
	for i := range tasks {
		if err := stores.Tasks.Create(ctx, &tasks[i]); err != nil {
			log.Fatalf("❌ Failed to insert task %q: %v", tasks[i].Title, err)
		}
	}

	if *email != "" {
		row := &models.Subscription{
			Email:              *email,
			Status:             models.SubscriptionActive,
			SubscriptionStatus: "ACTIVE",
		}
		if _, err := stores.Subscriptions.Upsert(ctx, row); err != nil {
			log.Fatalf("❌ Failed to insert subscription for %s: %v", *email, err)
		}
		log.Printf("✅ Active subscription inserted for %s", *email)
	}

	log.Printf("✅ Seeded %d leads and %d tasks for user %s (seed %d)", len(leads), len(tasks), *userID, randSeed)
}
