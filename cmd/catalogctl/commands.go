package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"ProductCatalog/internal/catalog"
)

func listCommand(a *appState) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list products, optionally by category or in stock only",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category"},
			&cli.BoolFlag{Name: "in-stock"},
		},
		Action: func(c *cli.Context) error {
			var (
				products []catalog.Product
				err      error
			)
			switch {
			case c.IsSet("category"):
				products, err = a.svc.ProductsByCategory(c.Context, c.String("category"))
			case c.Bool("in-stock"):
				products, err = a.svc.ProductsInStock(c.Context)
			default:
				products, err = a.svc.Products(c.Context)
			}
			if err != nil {
				return err
			}
			a.printProducts(products)
			return nil
		},
	}
}

func getCommand(a *appState) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "show one product",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return err
			}
			p, ok, err := a.svc.Product(c.Context, id)
			if err != nil {
				return err
			}
			if !ok {
				return cli.Exit(fmt.Sprintf("product %d not found", id), 2)
			}
			a.printProduct(p)
			return nil
		},
	}
}

func searchCommand(a *appState) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "search name and description, narrowed by optional filters",
		ArgsUsage: "QUERY",
		Flags:     filterFlags(),
		Action: func(c *cli.Context) error {
			q := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			f := filterFromFlags(c)

			var (
				products []catalog.Product
				err      error
			)
			if q == "" && f.IsZero() {
				products, err = a.svc.Products(c.Context)
			} else {
				products, err = a.svc.SearchProducts(c.Context, q, f)
			}
			if err != nil {
				return err
			}
			a.printProducts(products)
			return nil
		},
	}
}

func createCommand(a *appState) *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "add a product",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true},
			&cli.Float64Flag{Name: "price"},
			&cli.StringFlag{Name: "description"},
			&cli.StringFlag{Name: "category"},
			&cli.BoolFlag{Name: "in-stock"},
		},
		Action: func(c *cli.Context) error {
			p, err := a.svc.CreateProduct(c.Context, catalog.NewProduct{
				Name:        c.String("name"),
				Price:       c.Float64("price"),
				Description: c.String("description"),
				Category:    c.String("category"),
				InStock:     c.Bool("in-stock"),
			})
			if err != nil {
				return err
			}
			a.printProduct(p)
			return nil
		},
	}
}

func updateCommand(a *appState) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "change the given fields of a product",
		ArgsUsage: "ID",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name"},
			&cli.Float64Flag{Name: "price"},
			&cli.StringFlag{Name: "description"},
			&cli.StringFlag{Name: "category"},
			&cli.BoolFlag{Name: "in-stock"},
		},
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return err
			}

			var patch catalog.ProductPatch
			if c.IsSet("name") {
				v := c.String("name")
				patch.Name = &v
			}
			if c.IsSet("price") {
				v := c.Float64("price")
				patch.Price = &v
			}
			if c.IsSet("description") {
				v := c.String("description")
				patch.Description = &v
			}
			if c.IsSet("category") {
				v := c.String("category")
				patch.Category = &v
			}
			if c.IsSet("in-stock") {
				v := c.Bool("in-stock")
				patch.InStock = &v
			}

			p, ok, err := a.svc.UpdateProduct(c.Context, id, patch)
			if err != nil {
				return err
			}
			if !ok {
				return cli.Exit(fmt.Sprintf("product %d not found", id), 2)
			}
			a.printProduct(p)
			return nil
		},
	}
}

func deleteCommand(a *appState) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "remove a product",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return err
			}
			removed, err := a.svc.DeleteProduct(c.Context, id)
			if err != nil {
				return err
			}
			if !removed {
				return cli.Exit(fmt.Sprintf("product %d not found", id), 2)
			}
			fmt.Fprintf(a.out, "deleted product %d\n", id)
			return nil
		},
	}
}

func expensiveCommand(a *appState) *cli.Command {
	return &cli.Command{
		Name:  "expensive",
		Usage: "list products priced at or above a threshold",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "min", Value: catalog.DefaultExpensiveThreshold},
		},
		Action: func(c *cli.Context) error {
			products, err := a.svc.ExpensiveProductsAbove(c.Context, c.Float64("min"))
			if err != nil {
				return err
			}
			a.printProducts(products)
			return nil
		},
	}
}

func rangeCommand(a *appState) *cli.Command {
	return &cli.Command{
		Name:  "range",
		Usage: "list products within a price range",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "min", Required: true},
			&cli.Float64Flag{Name: "max", Required: true},
		},
		Action: func(c *cli.Context) error {
			products, err := a.svc.ProductsByPriceRange(c.Context, c.Float64("min"), c.Float64("max"))
			if err != nil {
				return err
			}
			a.printProducts(products)
			return nil
		},
	}
}

func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "category"},
		&cli.Float64Flag{Name: "min-price"},
		&cli.Float64Flag{Name: "max-price"},
		&cli.BoolFlag{Name: "in-stock"},
	}
}

func filterFromFlags(c *cli.Context) catalog.SearchFilter {
	var f catalog.SearchFilter
	if c.IsSet("category") {
		f = f.WithCategory(c.String("category"))
	}
	if c.IsSet("min-price") {
		f = f.WithMinPrice(c.Float64("min-price"))
	}
	if c.IsSet("max-price") {
		f = f.WithMaxPrice(c.Float64("max-price"))
	}
	if c.IsSet("in-stock") {
		f = f.WithInStock(c.Bool("in-stock"))
	}
	return f
}

func argID(c *cli.Context) (int64, error) {
	raw := c.Args().First()
	if raw == "" {
		return 0, cli.Exit("missing product ID", 2)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, cli.Exit(fmt.Sprintf("bad product ID %q", raw), 2)
	}
	return id, nil
}
