package main

import (
	"bufio"
	"fmt"
	"strings"
	"sync"

	"github.com/urfave/cli/v2"

	"ProductCatalog/internal/catalogview"
)

const browseHelp = `type to search, an empty line reloads everything
  :expensive  products priced 200 or more
  :instock    products in stock
  :quit       leave`

// browseCommand feeds stdin lines into a catalog view and prints the view
// every time its state changes.
func browseCommand(a *appState) *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "interactive product list driven by search input",
		Action: func(c *cli.Context) error {
			var mu sync.Mutex
			render := func(s catalogview.State) {
				mu.Lock()
				defer mu.Unlock()
				a.renderState(s)
			}

			v := catalogview.New(a.svc,
				catalogview.WithOnChange(render),
				catalogview.WithLogger(a.log),
			)

			fmt.Fprintln(a.out, browseHelp)
			v.Init(c.Context)

			sc := bufio.NewScanner(a.in)
			for sc.Scan() {
				line := sc.Text()
				switch strings.TrimSpace(line) {
				case ":quit", ":q":
					v.Wait()
					return nil
				case ":expensive":
					v.ShowExpensive(c.Context)
				case ":instock":
					v.ShowInStock(c.Context)
				default:
					v.Search(c.Context, line)
				}
			}

			v.Wait()
			return sc.Err()
		},
	}
}

func (a *appState) renderState(s catalogview.State) {
	fmt.Fprintln(a.out, "----")
	if s.Loading {
		fmt.Fprintln(a.out, "loading...")
	}
	if s.HasError() {
		fmt.Fprintf(a.out, "error: %s\n", s.Error)
	}
	a.printProducts(s.Products)
}
