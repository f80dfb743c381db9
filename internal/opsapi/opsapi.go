// Package opsapi provides a small read-only GraphQL surface for
// operational visibility into the pipeline (due websites and scheduler
// status) and the /stats aggregator, which also reports topic counts
// and recent generation-log outcomes. The GraphQL schema has no
// generation-log or topic queries. It is additive to the trigger
// surface in cmd/server — nothing here mutates state.
package opsapi

import (
	"context"
	"fmt"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"

	"github.com/toinevv/seo-system-blank/internal/models"
)

// Store is the subset of the central store the ops surface reads from.
type Store interface {
	ListDueWebsites(ctx context.Context, now time.Time) ([]models.Website, error)
	ListWebsites(ctx context.Context) ([]models.Website, error)
	ListTopics(ctx context.Context) ([]models.Topic, error)
	ListRecentGenerationLogs(ctx context.Context, limit int) ([]models.GenerationLog, error)
}

const recentGenerationLogLimit = 20

// Stats aggregates a cross-section of system health, mirroring the
// comprehensive-statistics command of the predecessor CLI tool's
// get_system_stats: website totals, topic counts by source, and recent
// generation-log outcomes, gathered through the same read-only
// Store/SchedulerStatus dependencies as the GraphQL surface.
func Stats(ctx context.Context, store Store, sched SchedulerStatus) (map[string]interface{}, error) {
	all, err := store.ListWebsites(ctx)
	if err != nil {
		return nil, err
	}
	due, err := store.ListDueWebsites(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	topics, err := store.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := store.ListRecentGenerationLogs(ctx, recentGenerationLogLimit)
	if err != nil {
		return nil, err
	}

	activeCount := 0
	for _, w := range all {
		if w.Active {
			activeCount++
		}
	}

	unusedTopics := 0
	bySource := map[string]int{}
	for _, t := range topics {
		if !t.IsUsed {
			unusedTopics++
		}
		bySource[string(t.Source)]++
	}

	outcomes := map[string]int{}
	for _, l := range logs {
		outcomes[string(l.Status)]++
	}

	return map[string]interface{}{
		"scheduler": map[string]interface{}{
			"running":           sched.IsRunning(),
			"due_website_count": len(due),
		},
		"websites": map[string]interface{}{
			"total":  len(all),
			"active": activeCount,
		},
		"topics": map[string]interface{}{
			"total":      len(topics),
			"unused":     unusedTopics,
			"by_source":  bySource,
		},
		"recent_generations": map[string]interface{}{
			"sample_size":  len(logs),
			"by_outcome":   outcomes,
		},
	}, nil
}

// SchedulerStatus is implemented by *scheduler.Service; declared
// locally so this package does not import scheduler directly.
type SchedulerStatus interface {
	IsRunning() bool
}

// Handler builds the GraphQL HTTP handler exposing the ops queries.
func Handler(store Store, sched SchedulerStatus) (*handler.Handler, error) {
	websiteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Website",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
			},
			"name": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
			},
			"domain": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
			},
			"nextScheduledAt": &graphql.Field{
				Type: graphql.String,
			},
		},
	})

	schedulerStatusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SchedulerStatus",
		Fields: graphql.Fields{
			"running": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
			},
			"dueWebsiteCount": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
		},
	})

	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"dueWebsites": &graphql.Field{
				Type: graphql.NewList(websiteType),
				// Lists websites currently due for a generation run, i.e.
				// next_scheduled_at <= now. Used by operators to anticipate
				// the next tick's workload.
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sites, err := store.ListDueWebsites(p.Context, time.Now())
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(sites))
					for _, w := range sites {
						out = append(out, map[string]interface{}{
							"id":              w.ID,
							"name":            w.Name,
							"domain":          w.Domain,
							"nextScheduledAt": w.NextScheduledAt.Format(time.RFC3339),
						})
					}
					return out, nil
				},
			},
			"schedulerStatus": &graphql.Field{
				Type: schedulerStatusType,
				// Reports whether the background tick loop is running and
				// how many websites are currently due, for dashboard use.
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sites, err := store.ListDueWebsites(p.Context, time.Now())
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"running":         sched.IsRunning(),
						"dueWebsiteCount": len(sites),
					}, nil
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: rootQuery,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create graphql schema: %w", err)
	}

	h := handler.New(&handler.Config{
		Schema:   &schema,
		Pretty:   true,
		GraphiQL: true,
	})
	return h, nil
}
