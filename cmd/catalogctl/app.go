package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"ProductCatalog/internal/bootstrap"
	"ProductCatalog/internal/catalog"
	"ProductCatalog/internal/config"
	"ProductCatalog/pkg/kit"
)

type appState struct {
	in  io.Reader
	out io.Writer

	log     *zap.Logger
	svc     *catalog.Service
	closeFn bootstrap.Closer
}

func (a *appState) open(c *cli.Context) error {
	cfg, err := config.Load(config.Paths{YAML: c.String("config"), DotEnv: ".env"})
	if err != nil {
		return err
	}
	if c.IsSet("store") {
		cfg.Store.Driver = c.String("store")
	}
	if c.IsSet("base-url") {
		cfg.Store.Remote.BaseURL = c.String("base-url")
	}
	if c.IsSet("latency") {
		cfg.Store.Latency = c.Bool("latency")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.log = kit.NewLogger("catalogctl", c.String("log-level"))

	store, closeFn, err := bootstrap.OpenStore(c.Context, cfg, bootstrap.Deps{Log: a.log})
	if err != nil {
		return err
	}
	a.closeFn = closeFn
	a.svc = catalog.NewService(store, a.log)
	return nil
}

func (a *appState) close(*cli.Context) error {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.closeFn == nil {
		return nil
	}
	return a.closeFn()
}

func (a *appState) printProducts(products []catalog.Product) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tCATEGORY\tIN STOCK")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%t\n", p.ID, p.Name, p.Price, p.Category, p.InStock)
	}
	_ = tw.Flush()
	fmt.Fprintf(a.out, "(%d products)\n", len(products))
}

func (a *appState) printProduct(p catalog.Product) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%d\n", p.ID)
	fmt.Fprintf(tw, "name:\t%s\n", p.Name)
	fmt.Fprintf(tw, "price:\t%.2f\n", p.Price)
	fmt.Fprintf(tw, "description:\t%s\n", p.Description)
	fmt.Fprintf(tw, "category:\t%s\n", p.Category)
	fmt.Fprintf(tw, "in stock:\t%t\n", p.InStock)
	fmt.Fprintf(tw, "created:\t%s\n", p.CreatedAt.Format("2006-01-02 15:04:05Z07:00"))
	_ = tw.Flush()
}
