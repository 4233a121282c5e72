// Command itemctl administers an item catalog store directly.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/item-catalog/internal/service"
	"github.com/vyrodovalexey/item-catalog/internal/store"
)

// Globals is passed to every command's Run method.
type Globals struct {
	Catalog service.Catalog
	Out     io.Writer
	Err     io.Writer
	JSON    bool
	Driver  string
}

// warnEphemeral tells the user that a change made with the memory driver is
// lost when the process exits.
func (g *Globals) warnEphemeral() {
	if g.Driver != store.DriverMemory {
		return
	}
	fmt.Fprintln(g.Err, "warning: memory driver in use; changes are discarded when itemctl exits (set --driver and --dsn)")
}

// CLI is the itemctl command line.
type CLI struct {
	Driver  string `help:"Storage driver (memory, sqlite, mysql)" enum:"memory,sqlite,mysql" default:"memory" env:"APP_STORAGE_DRIVER"`
	DSN     string `name:"dsn" help:"Storage DSN (file path for sqlite, DSN for mysql)" env:"APP_STORAGE_DSN"`
	JSON    bool   `help:"Output as JSON"`
	Verbose bool   `short:"v" help:"Log storage operations to stderr"`

	Migrate MigrateCmd `cmd:"" help:"Create the items table if it does not exist"`
	List    ListCmd    `cmd:"" aliases:"ls" help:"List all items"`
	Get     GetCmd     `cmd:"" help:"Show one item"`
	Add     AddCmd     `cmd:"" aliases:"a" help:"Add an item"`
	Rm      RmCmd      `cmd:"" help:"Remove an item"`
	Search  SearchCmd  `cmd:"" aliases:"s" help:"Search items by name and price range"`
	Import  ImportCmd  `cmd:"" help:"Import items from a YAML file"`
}

// open builds the command globals. The returned function releases the store.
func (c *CLI) open(out, errOut io.Writer) (*Globals, func(), error) {
	logger := zap.NewNop()
	if c.Verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return nil, nil, fmt.Errorf("creating logger: %w", err)
		}
		logger = dev
	}

	itemStore, err := store.Open(c.Driver, c.DSN)
	if err != nil {
		return nil, nil, err
	}

	release := func() {
		if closer, ok := itemStore.(io.Closer); ok {
			_ = closer.Close()
		}
		_ = logger.Sync()
	}

	return &Globals{
		Catalog: service.NewCatalogService(itemStore, logger),
		Out:     out,
		Err:     errOut,
		JSON:    c.JSON,
		Driver:  c.Driver,
	}, release, nil
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("itemctl"),
		kong.Description("Item catalog administration"),
		kong.UsageOnError(),
	}, options...)
	return kong.New(cli, options...)
}

func run(args []string, out, errOut io.Writer, options ...kong.Option) error {
	cli := CLI{}
	parser, err := newParser(&cli, options...)
	if err != nil {
		return err
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	g, release, err := cli.open(out, errOut)
	if err != nil {
		return err
	}
	defer release()

	return ctx.Run(g)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "itemctl: %v\n", err)
		os.Exit(1)
	}
}
