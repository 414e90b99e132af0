// Command navgate-lint checks a catalog file against its own org chart and
// optionally publishes it to the database.
//
//	navgate-lint -catalog catalog.yaml
//	navgate-lint -catalog catalog.yaml -publish -database-url postgres://...
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/valinor-ai/navgate/internal/catalog"
	"github.com/valinor-ai/navgate/internal/platform/database"
)

var errFindings = errors.New("catalog has errors")

type options struct {
	catalogPath string
	ambient     string
	strict      bool
	asJSON      bool
	publish     bool
	databaseURL string
}

func main() {
	var opts options
	flag.StringVar(&opts.catalogPath, "catalog", "catalog.yaml", "catalog file to check; \"default\" checks the built-in catalog")
	flag.StringVar(&opts.ambient, "ambient", "SuperAdmin,admin", "comma-separated role keys that need no chart entry")
	flag.BoolVar(&opts.strict, "strict", false, "treat warnings as errors")
	flag.BoolVar(&opts.asJSON, "json", false, "print findings as JSON")
	flag.BoolVar(&opts.publish, "publish", false, "store the catalog in the database when it has no errors")
	flag.StringVar(&opts.databaseURL, "database-url", os.Getenv("NAVGATE_DATABASE_URL"), "database to publish to")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	var src catalog.Source = catalog.FileSource{Path: opts.catalogPath}
	if opts.catalogPath == catalog.SourceDefault {
		src = catalog.StaticSource{Catalog: catalog.Default()}
	}

	c, err := src.Load(ctx)
	if err != nil {
		return err
	}

	findings := catalog.Verify(c, strings.Split(opts.ambient, ",")...)
	if err := report(out, findings, opts.asJSON); err != nil {
		return err
	}

	failed := catalog.HasErrors(findings) || (opts.strict && len(findings) > 0)
	if failed {
		return errFindings
	}

	if !opts.publish {
		return nil
	}
	if opts.databaseURL == "" {
		return errors.New("-publish needs -database-url")
	}
	pool, err := database.Connect(ctx, opts.databaseURL, database.WithMaxConns(2), database.WithApplicationName("navgate-lint"))
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := catalog.Store(ctx, pool, c); err != nil {
		return fmt.Errorf("publishing catalog: %w", err)
	}
	fmt.Fprintf(out, "published %d templates and %d roles\n", c.Paths.Len(), len(c.Chart.Roles()))
	return nil
}

func report(out io.Writer, findings []catalog.Finding, asJSON bool) error {
	if asJSON {
		if findings == nil {
			findings = []catalog.Finding{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(findings)
	}
	if len(findings) == 0 {
		fmt.Fprintln(out, "ok")
		return nil
	}
	for _, f := range findings {
		fmt.Fprintln(out, f.String())
	}
	return nil
}
