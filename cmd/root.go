/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/moamenhredeen/oasc/internal/config"
	"github.com/moamenhredeen/oasc/internal/errs"
	"github.com/moamenhredeen/oasc/internal/invoke"
	"github.com/moamenhredeen/oasc/internal/logger"
	"github.com/moamenhredeen/oasc/internal/models"
	"github.com/moamenhredeen/oasc/internal/parser"
	"github.com/moamenhredeen/oasc/internal/request"
	"github.com/moamenhredeen/oasc/internal/transport"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Process exit statuses
const (
	exitOK     = 0
	exitError  = 1
	exitNoPerm = 77 // EX_NOPERM
)

const operationsGroup = "operations"

// app carries what every command needs once the document is loaded
type app struct {
	cfg     *config.Config
	boot    *pflag.FlagSet
	parser  *parser.Parser
	driver  *invoke.Driver
	ops     []models.Operation
	servers []string
	stdout  io.Writer
	stderr  io.Writer
}

// baseAddress applies the --server override, then the document's servers
func (a *app) baseAddress() string {
	return invoke.ResolveBaseAddress(a.cfg.Server, a.servers)
}

// Execute runs the command line and exits with its status
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// run builds the command tree for the configured document and executes it
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	boot := newBootstrapFlags()
	// Errors resurface when cobra parses the full command line
	_ = boot.Parse(args)

	configPath, _ := boot.GetString("config")
	cfg, err := config.Load(configPath, boot)
	if err != nil {
		return fail(stderr, err)
	}

	if err := logger.Init(stderr, cfg.Log.File, cfg.Log.Verbose); err != nil {
		return fail(stderr, err)
	}
	defer logger.Close()

	a := &app{cfg: cfg, boot: boot, stdout: stdout, stderr: stderr}

	if !skipsDocument(boot.Args()) {
		if err := a.load(); err != nil {
			return fail(stderr, err)
		}
	}

	root := newRootCmd(a, a.ops)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		return fail(stderr, err)
	}
	return exitOK
}

// load parses the document and builds the catalog
func (a *app) load() error {
	start := time.Now()
	p, err := parser.ParseFile(a.cfg.Spec)
	if err != nil {
		return err
	}

	ops, err := p.GetOperations()
	if err != nil {
		return err
	}
	logger.Debug("catalog built",
		"spec", a.cfg.Spec,
		"title", p.Title(),
		"operations", len(ops),
		"duration", time.Since(start).String())
	warnShadowedFlags(ops)

	a.parser = p
	a.ops = ops
	a.servers = p.GetServerURLs()
	return nil
}

// configure settles the configuration from the flags cobra parsed and
// prepares the driver. A parameter flag takes precedence over a global flag
// of the same name on its own command.
func (a *app) configure(flags *pflag.FlagSet) error {
	for _, name := range bootstrapFlags {
		parsed, booted := flags.Lookup(name), a.boot.Lookup(name)
		if parsed.Changed != booted.Changed || parsed.Value.String() != booted.Value.String() {
			return errs.New(errs.CodeInvalidConfig,
				"--%s is ambiguous on this command; set it in the environment or the config file", name).
				WithParam(name)
		}
	}

	configPath, _ := a.boot.GetString("config")
	cfg, err := config.Load(configPath, flags)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if a.parser == nil {
		return nil
	}
	builder := request.NewRequestBuilder(a.cfg.Credentials(), a.cfg.UserAgent)
	sender := transport.NewClient(transport.Config{Timeout: a.cfg.Timeout})
	a.driver = invoke.NewDriver(a.ops, builder, sender)
	logger.Debug("base address resolved", "server", a.baseAddress(), "timeout", a.cfg.Timeout.String())
	return nil
}

// skipsDocument reports whether the invocation works without the document
func skipsDocument(args []string) bool {
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "completion", "help":
		return true
	}
	return false
}

func newRootCmd(a *app, ops []models.Operation) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "oasc",
		Short: "Command-line client generated from an OpenAPI document",
		Long: `oasc turns every operation of an OpenAPI document into a subcommand.

Each declared parameter becomes a flag of the same name; the request body is
passed as raw JSON with --body. The response is printed as indented JSON.

Examples:
  oasc --spec petstore.yaml list
  oasc --spec petstore.yaml showPetById --petId 42
  oasc createPet --body '{"name":"Rex"}' --server http://localhost:8080`,
		Version:       "1.0",
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd.Root().PersistentFlags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			// Not a known operation: show what is available instead of sending anything
			msg := fmt.Sprintf("unknown operation %q", args[0])
			if suggestions := cmd.SuggestionsFor(args[0]); len(suggestions) > 0 {
				msg += "\n\nDid you mean this?\n\t" + strings.Join(suggestions, "\n\t")
			}
			cmd.PrintErrln(cmd.UsageString())
			return errs.New(errs.CodeUnknownOperation, "%s", msg)
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().AddFlagSet(newGlobalFlags())
	rootCmd.Flags().SortFlags = false

	rootCmd.AddGroup(&cobra.Group{ID: operationsGroup, Title: "Operations:"})
	for _, op := range ops {
		rootCmd.AddCommand(newOperationCmd(op, a.invokeOperation))
	}

	rootCmd.AddCommand(newListCmd(a, ops))
	rootCmd.AddCommand(newBenchCmd(a, ops))
	rootCmd.AddCommand(newCompletionCmd(rootCmd))
	return rootCmd
}

// newGlobalFlags declares the flags shared by every command
func newGlobalFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("oasc", pflag.ContinueOnError)
	fs.String("spec", "", "OpenAPI document to load (default \""+config.DefaultSpecFile+"\")")
	fs.String("config", "", "Config file (default ./oasc.yaml or $HOME/.config/oasc/oasc.yaml)")
	fs.String("server", "", "Override the server URL declared in the document")
	fs.Duration("timeout", 0, "Request timeout (default 30s)")
	fs.BoolP("verbose", "v", false, "Show debug diagnostics on stderr")
	fs.String("log-file", "", "Append all diagnostics to this file")
	return fs
}

// bootstrapFlags are read before the command tree exists
var bootstrapFlags = []string{"spec", "config", "verbose", "log-file"}

// newBootstrapFlags pre-parses what is needed to load the document. Every
// other flag, global or not, is skipped along with its value.
func newBootstrapFlags() *pflag.FlagSet {
	global := newGlobalFlags()
	fs := pflag.NewFlagSet("oasc", pflag.ContinueOnError)
	for _, name := range bootstrapFlags {
		fs.AddFlag(global.Lookup(name))
	}
	fs.BoolP("help", "h", false, "")
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}

// fail prints err and maps it onto an exit status
func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	logger.Debug("command failed", "code", codeOf(err), "param", errs.ParamOf(err))

	if errs.Is(err, errs.CodePermissionDenied) {
		return exitNoPerm
	}
	return exitError
}

func codeOf(err error) string {
	if code, ok := errs.CodeOf(err); ok {
		return string(code)
	}
	return "unknown"
}
