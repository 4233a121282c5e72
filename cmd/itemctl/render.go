package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/vyrodovalexey/item-catalog/internal/model"
)

func renderItems(g *Globals, items []model.Item) error {
	if g.JSON {
		if items == nil {
			items = []model.Item{}
		}
		return writeJSON(g, items)
	}

	if len(items) == 0 {
		fmt.Fprintln(g.Out, "No items found.")
		return nil
	}

	w := tabwriter.NewWriter(g.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tIMAGE")
	fmt.Fprintln(w, "--\t----\t-----\t-----")
	for _, item := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", item.ID, item.Name, formatPrice(item.Price), imageOrDash(item))
	}
	return w.Flush()
}

func renderItem(g *Globals, item model.Item) error {
	if g.JSON {
		return writeJSON(g, item)
	}

	fmt.Fprintf(g.Out, "ID:     %d\n", item.ID)
	fmt.Fprintf(g.Out, "Name:   %s\n", item.Name)
	fmt.Fprintf(g.Out, "Price:  %s\n", formatPrice(item.Price))
	if item.Image != nil {
		fmt.Fprintf(g.Out, "Image:  %s\n", *item.Image)
	}
	return nil
}

func writeJSON(g *Globals, v any) error {
	enc := json.NewEncoder(g.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

func imageOrDash(item model.Item) string {
	if item.Image == nil {
		return "-"
	}
	return *item.Image
}
