// cmd/tools/policy-check/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"lending-workers/internal/common/config"
	"lending-workers/internal/common/database"
	"lending-workers/internal/common/logger"
	"lending-workers/internal/eligibility"
	"lending-workers/internal/models"
	"lending-workers/internal/policy"
	"lending-workers/internal/underwriting"
	"lending-workers/pkg/registry"
)

const defaultPolicies = "configs/lender-policies.csv"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) < 1 {
		help(out)
		return fmt.Errorf("a command is required")
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		path := fs.String("policies", defaultPolicies, "Path to lender policy CSV")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		table, err := policy.LoadPolicies(ctx, policy.NewCSVSource(*path))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Policy table valid: %d lenders\n", table.Len())
		return nil

	case "show":
		fs := flag.NewFlagSet("show", flag.ContinueOnError)
		path := fs.String("policies", defaultPolicies, "Path to lender policy CSV")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		table, err := policy.LoadPolicies(ctx, policy.NewCSVSource(*path))
		if err != nil {
			return err
		}
		return showTable(out, table)

	case "publish":
		fs := flag.NewFlagSet("publish", flag.ContinueOnError)
		path := fs.String("policies", defaultPolicies, "Path to lender policy CSV")
		addr := fs.String("redis", "localhost:6379", "Redis address")
		key := fs.String("key", policy.DefaultRedisKey, "Redis list key")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return publish(ctx, out, *path, *addr, *key)

	case "evaluate":
		fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
		path := fs.String("policies", defaultPolicies, "Path to lender policy CSV")
		input := fs.String("input", "", "Path to an application JSON file with applicant and property")
		stress := fs.Float64("stress-rate", underwriting.DefaultStressRate, "Serviceability stress rate in percent")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *input == "" {
			return fmt.Errorf("-input is required for evaluate")
		}
		return evaluate(ctx, out, *path, *input, *stress)

	case "registry":
		fs := flag.NewFlagSet("registry", flag.ContinueOnError)
		path := fs.String("path", "configs/activity-registry.json", "Path to registry file")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		reg, err := registry.LoadRegistry(*path)
		if err != nil {
			return err
		}
		if err := reg.Validate(); err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		fmt.Fprintf(out, "Registry validation passed: %d activities\n", len(reg.Activities))
		for _, a := range reg.Activities {
			fmt.Fprintf(out, "  %s (%s) %s\n", a.TaskType, a.Timeout, a.DisplayName)
		}
		return nil

	case "help":
		help(out)
		return nil
	}

	help(out)
	return fmt.Errorf("unknown command %q", args[0])
}

func showTable(out io.Writer, table *policy.Table) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LENDER\tLVR\tLVR+LMI\tMIN SCORE\tMAX DTI\tBASE RATE\tEMPLOYMENT\tPROPERTY")
	table.Each(func(p models.LenderPolicy) {
		employment := make([]string, len(p.AcceptedEmployment))
		for i, e := range p.AcceptedEmployment {
			employment[i] = string(e)
		}
		property := make([]string, len(p.AcceptedProperty))
		for i, c := range p.AcceptedProperty {
			property[i] = string(c)
		}
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%d\t%.1f\t%.2f\t%s\t%s\n",
			p.ID, p.MaxLVRWithoutLMI, p.MaxLVRWithLMI, p.MinCreditScore, p.MaxDTI, p.BaseRate,
			strings.Join(employment, ","), strings.Join(property, ","))
	})
	return w.Flush()
}

func publish(ctx context.Context, out io.Writer, path, addr, key string) error {
	table, err := policy.LoadPolicies(ctx, policy.NewCSVSource(path))
	if err != nil {
		return err
	}

	rc, err := database.NewRedis(ctx, config.RedisConfig{Address: addr})
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := policy.NewRedisSource(rc.Client, key).Publish(ctx, table.Policies()); err != nil {
		return err
	}
	fmt.Fprintf(out, "Published %d lenders to %s\n", table.Len(), key)
	return nil
}

type application struct {
	Applicant models.Applicant `json:"applicant"`
	Property  models.Property  `json:"property"`
}

func evaluate(ctx context.Context, out io.Writer, policiesPath, inputPath string, stressRate float64) error {
	table, err := policy.LoadPolicies(ctx, policy.NewCSVSource(policiesPath))
	if err != nil {
		return err
	}
	engine, err := eligibility.NewEngine(table, eligibility.Options{StressRate: stressRate}, logger.NewNoOpLogger())
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	var app application
	if err := json.Unmarshal(raw, &app); err != nil {
		return fmt.Errorf("parse %s: %w", inputPath, err)
	}

	decision, err := engine.Evaluate(app.Applicant, app.Property)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(decision)
}

func help(out io.Writer) {
	fmt.Fprintln(out, "Usage: policy-check <command> [options]")
	fmt.Fprintln(out, "\nCommands:")
	fmt.Fprintln(out, "  validate  -policies <csv>                          Validate a lender policy file")
	fmt.Fprintln(out, "  show      -policies <csv>                          Print the policy table")
	fmt.Fprintln(out, "  publish   -policies <csv> -redis <addr> -key <k>   Load a policy file into Redis")
	fmt.Fprintln(out, "  evaluate  -policies <csv> -input <json>            Evaluate one application offline")
	fmt.Fprintln(out, "  registry  -path <json>                             Validate the activity registry")
}
