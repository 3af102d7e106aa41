package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bossai/internal/infra"
	"bossai/internal/sqlinline"
)

type agentSpec struct {
	ContentType string
	Name        string
	URL         string
	APIKey      string
	Model       string
	Temperature float64
	Active      bool
}

func main() {
	var (
		listFlag        bool
		deleteFlag      string
		contentTypeFlag string
		nameFlag        string
		urlFlag         string
		apiKeyFlag      string
		modelFlag       string
		temperatureFlag float64
		activeFlag      bool
	)

	flag.BoolVar(&listFlag, "list", false, "list configured webhook agents")
	flag.StringVar(&deleteFlag, "delete", "", "agent ID to remove (UUID)")
	flag.StringVar(&contentTypeFlag, "content-type", "", "content type the agent serves")
	flag.StringVar(&nameFlag, "name", "", "agent display name")
	flag.StringVar(&urlFlag, "url", "", "agent endpoint URL")
	flag.StringVar(&apiKeyFlag, "api-key", "", "bearer token sent to the agent (optional)")
	flag.StringVar(&modelFlag, "model", "", "model the agent should use (optional)")
	flag.Float64Var(&temperatureFlag, "temperature", 0.6, "sampling temperature forwarded to the agent")
	flag.BoolVar(&activeFlag, "active", true, "whether the agent receives traffic")
	flag.Parse()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "agentctl").Logger()
	runner := infra.NewSQLRunner(pool, logger)

	opCtx, cancelOp := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelOp()

	switch {
	case listFlag:
		err = listAgents(opCtx, runner)
	case strings.TrimSpace(deleteFlag) != "":
		err = deleteAgent(opCtx, runner, strings.TrimSpace(deleteFlag))
	default:
		err = upsertAgent(opCtx, runner, agentSpec{
			ContentType: strings.TrimSpace(contentTypeFlag),
			Name:        strings.TrimSpace(nameFlag),
			URL:         strings.TrimSpace(urlFlag),
			APIKey:      strings.TrimSpace(apiKeyFlag),
			Model:       strings.TrimSpace(modelFlag),
			Temperature: temperatureFlag,
			Active:      activeFlag,
		})
	}
	if err != nil {
		exitWithError(err)
	}
}

func listAgents(ctx context.Context, runner *infra.SQLRunner) error {
	rows, err := runner.Query(ctx, sqlinline.QSelectAgents)
	if err != nil {
		return fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCONTENT TYPE\tNAME\tURL\tMODEL\tTEMP\tACTIVE\tUPDATED")

	count := 0
	for rows.Next() {
		var (
			id          string
			contentType string
			name        string
			url         string
			model       *string
			temperature float64
			isActive    bool
			createdAt   time.Time
			updatedAt   time.Time
		)
		if err := rows.Scan(&id, &contentType, &name, &url, &model, &temperature, &isActive, &createdAt, &updatedAt); err != nil {
			return fmt.Errorf("failed to scan agent: %w", err)
		}
		modelName := "-"
		if model != nil && *model != "" {
			modelName = *model
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%t\t%s\n",
			id, contentType, name, url, modelName, temperature, isActive, updatedAt.Format(time.RFC3339))
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read agents: %w", err)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if count == 0 {
		fmt.Println("no webhook agents configured")
	}
	return nil
}

func upsertAgent(ctx context.Context, runner *infra.SQLRunner, spec agentSpec) error {
	if spec.ContentType == "" || spec.Name == "" || spec.URL == "" {
		return errors.New("-content-type, -name and -url are required to save an agent")
	}
	if spec.Temperature < 0 || spec.Temperature > 2 {
		return errors.New("-temperature must be between 0 and 2")
	}

	var apiKey, model any
	if spec.APIKey != "" {
		apiKey = spec.APIKey
	}
	if spec.Model != "" {
		model = spec.Model
	}

	row := runner.QueryRow(ctx, sqlinline.QUpsertAgent,
		spec.ContentType, spec.Name, spec.URL, apiKey, model, spec.Temperature, spec.Active)
	var id string
	if err := row.Scan(&id); err != nil {
		return fmt.Errorf("failed to save agent: %w", err)
	}
	fmt.Printf("Agent %s (%s) saved for content type %s\n", spec.Name, id, spec.ContentType)
	return nil
}

func deleteAgent(ctx context.Context, runner *infra.SQLRunner, id string) error {
	row := runner.QueryRow(ctx, sqlinline.QDeleteAgent, id)
	var deleted string
	if err := row.Scan(&deleted); err != nil {
		if infra.IsNoRows(err) {
			return fmt.Errorf("no agent with id %q", id)
		}
		return fmt.Errorf("failed to delete agent: %w", err)
	}
	fmt.Printf("Agent %s deleted\n", deleted)
	return nil
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
