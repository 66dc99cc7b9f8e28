package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/utafrali/EcommerceGo/pkg/pagination"
	"github.com/utafrali/EcommerceGo/services/collection/internal/domain"
	"github.com/utafrali/EcommerceGo/services/collection/internal/engine/memory"
	"github.com/utafrali/EcommerceGo/services/collection/internal/seed"
	"github.com/utafrali/EcommerceGo/services/collection/internal/service"
)

type queryOptions struct {
	seedFile  string
	sort      string
	page      int
	pageSize  int
	available string
	minPrice  string
	maxPrice  string
	types     []string
	brands    []string
}

func newQueryCmd() *cobra.Command {
	opts := &queryOptions{}
	cmd := &cobra.Command{
		Use:   "query <slug>",
		Short: "Resolve a collection slug against a seed catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), cmd.OutOrStdout(), opts, args[0])
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.seedFile, "seed", "", "JSON seed catalog (required)")
	f.StringVar(&opts.sort, "sort", "", "sort mode, e.g. PRICE_REVERSE")
	f.IntVar(&opts.page, "page", 1, "page number")
	f.IntVar(&opts.pageSize, "page-size", pagination.DefaultPageSize, "results per page")
	f.StringVar(&opts.available, "available", "", "true or false")
	f.StringVar(&opts.minPrice, "min-price", "", "inclusive lower price bound")
	f.StringVar(&opts.maxPrice, "max-price", "", "inclusive upper price bound")
	f.StringSliceVar(&opts.types, "type", nil, "product type label (repeatable)")
	f.StringSliceVar(&opts.brands, "brand", nil, "brand name (repeatable)")
	_ = cmd.MarkFlagRequired("seed")
	return cmd
}

func (o *queryOptions) filters() (domain.Filters, error) {
	f := domain.Filters{ProductTypes: o.types, Brands: o.brands}
	if o.available != "" {
		v, err := strconv.ParseBool(o.available)
		if err != nil {
			return f, fmt.Errorf("--available: %w", err)
		}
		f.Available = &v
	}
	if o.minPrice != "" {
		v, err := decimal.NewFromString(o.minPrice)
		if err != nil {
			return f, fmt.Errorf("--min-price: %w", err)
		}
		f.MinPrice = &v
	}
	if o.maxPrice != "" {
		v, err := decimal.NewFromString(o.maxPrice)
		if err != nil {
			return f, fmt.Errorf("--max-price: %w", err)
		}
		f.MaxPrice = &v
	}
	return f, nil
}

func runQuery(ctx context.Context, w io.Writer, opts *queryOptions, slug string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	products, err := seed.LoadFile(opts.seedFile)
	if err != nil {
		return err
	}
	mem := memory.New()
	if err := seed.Apply(ctx, mem, products); err != nil {
		return err
	}

	req := &service.ListRequest{
		Slug: slug,
		Page: pagination.Params{Page: opts.page, PageSize: opts.pageSize},
	}
	if req.Filters, err = opts.filters(); err != nil {
		return err
	}
	if req.Sort, err = domain.ParseSortMode(opts.sort); err != nil {
		return err
	}

	svc := newOfflineService(mem)
	page, err := svc.Resolve(ctx, req)
	if err != nil {
		return err
	}

	if outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(pagination.NewPage(page.Summaries(), page.Total, req.Page, nil))
	}

	if err := printPlan(w, svc.Plan(slug, &req.Filters, req.Sort)); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %d match(es), page %d of size %d\n",
		heading("results:"), page.Total, page.Page, page.PageSize)
	for i, s := range page.Summaries() {
		flags := ""
		if s.IsHot {
			flags += accent(" hot")
		}
		if s.IsNew {
			flags += accent(" new")
		}
		fmt.Fprintf(w, "%3d. %-8s %-32s %-16s %8s%s\n",
			req.Page.Offset()+i+1, s.ID, s.Name, dim(s.Brand), s.Price, flags)
	}
	return nil
}
