/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	// isTTY is true when stdout is an interactive terminal
	isTTY = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	// Color helpers
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	white  = color.New(color.FgWhite, color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// methodColor paints HTTP verbs the same way in every listing; padding in
// method is kept so columns stay aligned
func methodColor(method string) string {
	switch strings.TrimSpace(method) {
	case "GET":
		return green(method)
	case "POST":
		return yellow(method)
	case "PUT":
		return cyan(method)
	case "DELETE":
		return red(method)
	default:
		return method
	}
}
