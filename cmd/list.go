/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/moamenhredeen/oasc/internal/models"
	"github.com/moamenhredeen/oasc/internal/output"
	"github.com/spf13/cobra"
)

func newListCmd(a *app, ops []models.Operation) *cobra.Command {
	var (
		filter       string
		tags         []string
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the operations of the document",
		Long: `List every operation the document declares, with its parameters.

Required parameters are marked with *.

Examples:
  oasc list
  oasc list --filter pets --tags admin
  oasc list -o yaml --output-file catalog.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filtered := filterOperations(ops, filter, tags)

			if outputFormat != "" {
				format, err := output.ParseFormat(outputFormat)
				if err != nil {
					return err
				}
				if outputFile == "" {
					return output.WriteOperations(cmd.OutOrStdout(), filtered, format)
				}
				if err := output.ExportOperations(filtered, format, outputFile); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Operations exported to: %s\n", outputFile)
				return nil
			}

			title := ""
			if a.parser != nil {
				title = a.parser.Title()
			}
			displayOperations(cmd.OutOrStdout(), title, a.baseAddress(), filtered)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Filter operations by path pattern or name")
	cmd.Flags().StringSliceVar(&tags, "tags", []string{}, "Filter by OpenAPI tags")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: json, csv, yaml")
	cmd.Flags().StringVar(&outputFile, "output-file", "", "Write output to file (default: stdout)")
	return cmd
}

func filterOperations(operations []models.Operation, filterStr string, tagFilters []string) []models.Operation {
	var filtered []models.Operation

	for _, op := range operations {
		// Filter by path pattern or operation name
		if filterStr != "" {
			if !strings.Contains(op.Path, filterStr) && !strings.Contains(op.Name, filterStr) {
				continue
			}
		}

		// Filter by tags
		if len(tagFilters) > 0 {
			found := false
			for _, filterTag := range tagFilters {
				for _, opTag := range op.Tags {
					if opTag == filterTag {
						found = true
						break
					}
				}
				if found {
					break
				}
			}
			if !found {
				continue
			}
		}

		filtered = append(filtered, op)
	}

	return filtered
}

func displayOperations(w io.Writer, title, server string, ops []models.Operation) {
	if title != "" {
		fmt.Fprintf(w, "%s\n", white(title))
	}
	fmt.Fprintf(w, "Server: %s\n\n", server)

	if len(ops) == 0 {
		fmt.Fprintln(w, "No operations found matching the criteria")
		return
	}

	for _, op := range ops {
		fmt.Fprintf(w, "%s %-40s %s\n", methodColor(fmt.Sprintf("%-7s", op.Method)), op.Path, cyan(op.Name))
		if op.Summary != "" {
			fmt.Fprintf(w, "        %s\n", faint(op.Summary))
		}
		for _, p := range op.Params {
			marker := " "
			if p.Required {
				marker = red("*")
			}
			kind := p.Kind
			if kind == "" {
				kind = "string"
			}
			fmt.Fprintf(w, "        %s --%-24s %-7s %s\n", marker, p.Name, p.Location, kind)
		}
		if op.BodyExample != "" {
			fmt.Fprintf(w, "          %s %s\n", faint("example body:"), op.BodyExample)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d operations\n", len(ops))
}
