package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/utafrali/EcommerceGo/pkg/logger"
	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine/memory"
	"github.com/utafrali/EcommerceGo/services/collection/internal/interpret"
	"github.com/utafrali/EcommerceGo/services/collection/internal/service"
)

var (
	heading = color.New(color.FgCyan, color.Bold).SprintFunc()
	dim     = color.New(color.Faint).SprintFunc()
	accent  = color.New(color.FgYellow).SprintFunc()
)

// explanation is the JSON form of a plan.
type explanation struct {
	Slug       string   `json:"slug"`
	Curated    string   `json:"curated,omitempty"`
	Intent     string   `json:"intent"`
	Tokens     []string `json:"tokens,omitempty"`
	Predicate  string   `json:"predicate"`
	Order      string   `json:"order"`
	ScoreTerms []string `json:"score_terms,omitempty"`
}

func newExplainCmd() *cobra.Command {
	var sort string
	cmd := &cobra.Command{
		Use:   "explain <slug>",
		Short: "Show how a slug is tokenized, interpreted and compiled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := domain.ParseSortMode(sort)
			if err != nil {
				return err
			}
			svc := newOfflineService(memory.New())
			plan := svc.Plan(args[0], &domain.Filters{}, mode)
			return printPlan(cmd.OutOrStdout(), plan)
		},
	}
	cmd.Flags().StringVar(&sort, "sort", "", "sort mode, e.g. PRICE or best-selling")
	return cmd
}

func newOfflineService(mem *memory.Engine) *service.CollectionService {
	return service.NewCollectionService(
		mem,
		interpret.New(interpret.DefaultKeywords()),
		nil,
		service.DefaultConfig(),
		logger.Discard(),
	)
}

func explain(plan *service.Plan) explanation {
	e := explanation{
		Slug:       plan.Slug,
		Curated:    plan.Curated,
		Intent:     plan.Intent.Kind(),
		Predicate:  plan.Query.Where.String(),
		Order:      plan.Query.Order.String(),
		ScoreTerms: plan.Query.ScoreTerms,
	}
	if plan.Curated != "" {
		e.Intent = "curated"
	}
	for _, t := range plan.Tokens {
		e.Tokens = append(e.Tokens, t.Kind.String()+":"+t.Text)
	}
	return e
}

func printPlan(w io.Writer, plan *service.Plan) error {
	e := explain(plan)
	if outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(e)
	}

	fmt.Fprintf(w, "%s %s\n", heading("slug:"), e.Slug)
	if e.Curated != "" {
		fmt.Fprintf(w, "%s %s\n", heading("curated:"), accent(e.Curated))
	} else {
		fmt.Fprintf(w, "%s\n", heading("tokens:"))
		for _, t := range plan.Tokens {
			fmt.Fprintf(w, "  %-10s %s\n", dim(t.Kind.String()), t.Text)
		}
		fmt.Fprintf(w, "%s %s\n", heading("intent:"), accent(e.Intent))
		describeIntent(w, &plan.Intent)
	}
	fmt.Fprintf(w, "%s %s\n", heading("where:"), e.Predicate)
	fmt.Fprintf(w, "%s %s\n", heading("order:"), e.Order)
	if len(e.ScoreTerms) > 0 {
		fmt.Fprintf(w, "%s %s\n", heading("score terms:"), strings.Join(e.ScoreTerms, ", "))
	}
	return nil
}

func describeIntent(w io.Writer, in *domain.SearchIntent) {
	if in.Price != nil {
		fmt.Fprintf(w, "  price     %s %s\n", in.Price.Op, in.Price.Value.String())
	}
	if len(in.GenderTerms) > 0 {
		fmt.Fprintf(w, "  gender    %s\n", strings.Join(in.GenderTerms, ", "))
	}
	for _, t := range in.Types {
		fmt.Fprintf(w, "  type      %s -> %s %s\n", t.Keyword, t.Label, dim(strings.Join(t.Variants, "|")))
	}
	if len(in.FreeTerms) > 0 {
		fmt.Fprintf(w, "  free      %s\n", strings.Join(in.FreeTerms, ", "))
	}
}
