package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vyrodovalexey/item-catalog/internal/model"
	"github.com/vyrodovalexey/item-catalog/internal/optional"
	"github.com/vyrodovalexey/item-catalog/internal/service"
)

var errItemNotFound = errors.New("item not found")

// MigrateCmd creates the items table.
type MigrateCmd struct{}

// Run reports success; the schema is ensured when the store is opened.
func (cmd *MigrateCmd) Run(g *Globals) error {
	g.warnEphemeral()
	fmt.Fprintf(g.Out, "Schema ready (%s)\n", g.Driver)
	return nil
}

// ListCmd prints every item.
type ListCmd struct{}

// Run lists the catalog.
func (cmd *ListCmd) Run(g *Globals) error {
	items, err := g.Catalog.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing items: %w", err)
	}
	return renderItems(g, items)
}

// GetCmd prints one item by ID.
type GetCmd struct {
	ID int64 `arg:"" help:"Item ID"`
}

// Run prints the item or fails with errItemNotFound.
func (cmd *GetCmd) Run(g *Globals) error {
	found, err := g.Catalog.GetByID(context.Background(), cmd.ID)
	if err != nil {
		return fmt.Errorf("getting item %d: %w", cmd.ID, err)
	}

	item, ok := found.Get()
	if !ok {
		return fmt.Errorf("%w: %d", errItemNotFound, cmd.ID)
	}
	return renderItem(g, item)
}

// AddCmd validates and stores a new item.
type AddCmd struct {
	Name  string  `short:"n" required:"" help:"Item name"`
	Price float64 `short:"p" required:"" help:"Item price"`
	Image string  `short:"i" help:"Image URL"`
}

// Run adds the item and prints its assigned ID.
func (cmd *AddCmd) Run(g *Globals) error {
	input := model.ItemInput{Name: &cmd.Name, Price: &cmd.Price}
	if cmd.Image != "" {
		input.Image = &cmd.Image
	}
	if err := input.Validate(); err != nil {
		return err
	}

	item, err := g.Catalog.Create(context.Background(), input.Item())
	if err != nil {
		return fmt.Errorf("adding item %q: %w", cmd.Name, err)
	}

	fmt.Fprintf(g.Out, "Added: #%d %s\n", item.ID, item.Name)
	g.warnEphemeral()
	return nil
}

// RmCmd deletes an existing item.
type RmCmd struct {
	ID int64 `arg:"" help:"Item ID"`
}

// Run removes the item. A missing item is an error.
func (cmd *RmCmd) Run(g *Globals) error {
	ctx := context.Background()

	found, err := g.Catalog.GetByID(ctx, cmd.ID)
	if err != nil {
		return fmt.Errorf("getting item %d: %w", cmd.ID, err)
	}
	if !found.IsPresent() {
		return fmt.Errorf("%w: %d", errItemNotFound, cmd.ID)
	}

	if err := g.Catalog.Delete(ctx, cmd.ID); err != nil {
		return fmt.Errorf("removing item %d: %w", cmd.ID, err)
	}

	fmt.Fprintf(g.Out, "Removed: #%d\n", cmd.ID)
	g.warnEphemeral()
	return nil
}

// SearchCmd filters items by name and price range.
type SearchCmd struct {
	Name     *string  `help:"Case-insensitive name substring"`
	MinPrice *float64 `help:"Lowest price, inclusive"`
	MaxPrice *float64 `help:"Highest price, inclusive"`
}

func (cmd *SearchCmd) filter() service.SearchFilter {
	return service.SearchFilter{
		Name:     optional.FromPtr(cmd.Name),
		MinPrice: optional.FromPtr(cmd.MinPrice),
		MaxPrice: optional.FromPtr(cmd.MaxPrice),
	}
}

// Run prints the items matching the given filters.
func (cmd *SearchCmd) Run(g *Globals) error {
	items, err := g.Catalog.Search(context.Background(), cmd.filter())
	if err != nil {
		return fmt.Errorf("searching items: %w", err)
	}
	return renderItems(g, items)
}

// ImportCmd loads items from a YAML file. Nothing is stored unless every
// item is valid.
type ImportCmd struct {
	File string `arg:"" type:"existingfile" help:"YAML file with an items list"`
}

type importFile struct {
	Items []model.ItemInput `yaml:"items"`
}

// Run validates the whole file, then creates its items in order.
func (cmd *ImportCmd) Run(g *Globals) error {
	data, err := os.ReadFile(cmd.File)
	if err != nil {
		return fmt.Errorf("reading %s: %w", cmd.File, err)
	}

	var file importFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", cmd.File, err)
	}

	for i, input := range file.Items {
		if err := input.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i+1, err)
		}
	}

	ctx := context.Background()
	for i, input := range file.Items {
		if _, err := g.Catalog.Create(ctx, input.Item()); err != nil {
			return fmt.Errorf("importing item %d: %w", i+1, err)
		}
	}

	fmt.Fprintf(g.Out, "Imported %d items\n", len(file.Items))
	g.warnEphemeral()
	return nil
}
