package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"github.com/nimble-go/nimble/internal/errors"
	"github.com/nimble-go/nimble/internal/fetch"
	"github.com/nimble-go/nimble/pkg/dom"
	"github.com/nimble-go/nimble/pkg/reconcile"
)

type diffOptions struct {
	out      string
	stats    bool
	fragment bool
	merge    bool
}

func diffCmd() *cobra.Command {
	var opts diffOptions

	cmd := &cobra.Command{
		Use:   "diff <target> <source>",
		Short: "Reconcile a target document with a source document",
		Long: `Reconcile the target document with the source document and print the
patched target.

Locations may be file paths, http(s) URLs or s3://bucket/key.

Examples:
  nimble diff live.html fresh.html
  nimble diff --stats live.html https://example.com/fresh.html
  nimble diff --fragment --out s3://site/live.html live.html fresh.html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), fetch.New(), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the result to this location instead of stdout")
	cmd.Flags().BoolVar(&opts.stats, "stats", false, "Print mutation counts")
	cmd.Flags().BoolVar(&opts.fragment, "fragment", false, "Treat inputs as body fragments")
	cmd.Flags().BoolVar(&opts.merge, "merge", false, "Never replace the root; leave mismatched roots untouched")
	return cmd
}

func runDiff(ctx context.Context, out, errOut io.Writer, f *fetch.Fetcher, targetLoc, sourceLoc string, opts diffOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	targetSrc, err := f.ReadAll(ctx, targetLoc)
	if err != nil {
		return err
	}
	sourceSrc, err := f.ReadAll(ctx, sourceLoc)
	if err != nil {
		return err
	}

	stats := reconcile.NewStats()
	rec := reconcile.New(
		reconcile.WithLogger(slog.Default().With("component", "reconcile")),
		reconcile.WithObserver(stats),
	)

	var result string
	if opts.fragment {
		target, err := dom.ParseInto("body", string(targetSrc))
		if err != nil {
			return errors.New("N004").Wrap(err)
		}
		source, err := dom.ParseInto("body", string(sourceSrc))
		if err != nil {
			return errors.New("N004").Wrap(err)
		}
		result = dom.RenderChildren(apply(rec, target, source, opts.merge))
	} else {
		target, err := dom.Parse(strings.NewReader(string(targetSrc)))
		if err != nil {
			return errors.New("N004").Wrap(err)
		}
		source, err := dom.Parse(strings.NewReader(string(sourceSrc)))
		if err != nil {
			return errors.New("N004").Wrap(err)
		}
		apply(rec, documentElement(target), documentElement(source), opts.merge)
		result = dom.Render(target)
	}

	if opts.out == "" || opts.out == "-" {
		fmt.Fprintln(out, result)
	} else {
		if err := f.Store(ctx, opts.out, []byte(result), "text/html; charset=utf-8"); err != nil {
			return err
		}
		success(errOut, "Wrote %s", opts.out)
	}

	if opts.stats {
		printStats(errOut, stats)
	}
	return nil
}

func apply(rec *reconcile.Reconciler, target, source *html.Node, merge bool) *html.Node {
	if merge {
		rec.Merge(target, source)
		return target
	}
	return rec.Reconcile(target, source)
}

// documentElement returns the <html> element of a parsed document.
func documentElement(doc *html.Node) *html.Node {
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsElement(c) {
			return c
		}
	}
	return doc
}

func printStats(w io.Writer, stats *reconcile.Stats) {
	fmt.Fprintln(w, headStyle.Render("Mutations"))
	if stats.Total() == 0 {
		info(w, "none, trees already equal")
		return
	}
	for _, op := range stats.Ops() {
		info(w, "%s %d", labelStyle.Render(fmt.Sprintf("%-16s", op.String())), stats.Count(op))
	}
	info(w, "%s %d", labelStyle.Render(fmt.Sprintf("%-16s", "total")), stats.Total())
	if n := stats.Destructive(); n > 0 {
		warn(w, "%d structural changes", n)
	}
}
