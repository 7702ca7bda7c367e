/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/moamenhredeen/oasc/internal/binder"
	"github.com/moamenhredeen/oasc/internal/logger"
	"github.com/moamenhredeen/oasc/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// operationRunner executes op with the values the user supplied
type operationRunner func(cmd *cobra.Command, op models.Operation, values binder.Values) error

// reservedFlags are declared by the command tree itself. A parameter with one
// of these names takes precedence on its own command.
var reservedFlags = []string{
	"spec", "config", "server", "timeout", "verbose", "log-file", "help", "version",
	"iterations", "concurrency", "warmup", "rate", "no-keepalive", "output", "output-file",
}

// warnShadowedFlags reports every parameter that hides a command flag
func warnShadowedFlags(ops []models.Operation) {
	for _, op := range ops {
		for _, name := range reservedFlags {
			if _, ok := op.Param(name); ok {
				logger.Warn("parameter shadows a command flag", "operation", op.Name, "param", name)
			}
		}
	}
}

// newOperationCmd declares one subcommand for op with a flag per parameter.
// Required parameters are not enforced here; binding rejects missing ones.
func newOperationCmd(op models.Operation, runner operationRunner) *cobra.Command {
	cmd := &cobra.Command{
		Use:     op.Name,
		Short:   operationShort(op),
		Long:    operationLong(op),
		GroupID: operationsGroup,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner(cmd, op, collectValues(cmd.Flags(), op))
		},
	}
	cmd.Flags().SortFlags = false
	addParamFlags(cmd.Flags(), op)
	return cmd
}

// addParamFlags declares one flag per parameter, named identically
func addParamFlags(fs *pflag.FlagSet, op models.Operation) {
	for _, p := range op.Params {
		// cobra requires --help to stay a bool
		if p.Name == "help" || fs.Lookup(p.Name) != nil {
			continue
		}

		usage := paramUsage(p, op.BodyExample)
		if p.Location == models.LocationQuery {
			fs.StringArray(p.Name, nil, usage)
		} else {
			fs.String(p.Name, "", usage)
		}
	}
}

// collectValues gathers only the flags the user actually set
func collectValues(fs *pflag.FlagSet, op models.Operation) binder.Values {
	values := binder.Values{}
	for _, p := range op.Params {
		f := fs.Lookup(p.Name)
		if f == nil || !f.Changed {
			continue
		}
		if p.Location == models.LocationQuery {
			items, err := fs.GetStringArray(p.Name)
			if err == nil {
				for _, item := range items {
					values.Add(p.Name, item)
				}
				continue
			}
		}
		values.Set(p.Name, f.Value.String())
	}
	return values
}

func paramUsage(p models.Parameter, bodyExample string) string {
	var usage string
	switch {
	case p.Location == models.LocationBody && bodyExample != "":
		usage = fmt.Sprintf("JSON string for request body, e.g. '%s'", bodyExample)
	case p.Location == models.LocationBody:
		usage = "JSON string for request body"
	case p.Kind != "":
		usage = fmt.Sprintf("%s parameter (%s)", p.Location, p.Kind)
	default:
		usage = fmt.Sprintf("%s parameter", p.Location)
	}
	if p.Location == models.LocationQuery {
		usage += ", repeatable"
	}
	if p.Required {
		usage += " (required)"
	}
	return usage
}

func operationShort(op models.Operation) string {
	if op.Summary != "" {
		return op.Summary
	}
	return fmt.Sprintf("%s %s", op.Method, op.Path)
}

func operationLong(op models.Operation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", op.Method, op.Path)
	if op.Summary != "" {
		fmt.Fprintf(&b, "\n\n%s", op.Summary)
	}
	if len(op.Tags) > 0 {
		fmt.Fprintf(&b, "\n\nTags: %s", strings.Join(op.Tags, ", "))
	}
	return b.String()
}

// invokeOperation sends one request and prints the JSON response
func (a *app) invokeOperation(cmd *cobra.Command, op models.Operation, values binder.Values) error {
	return a.driver.Invoke(cmd.Context(), op.Name, values, a.baseAddress(), cmd.OutOrStdout())
}
