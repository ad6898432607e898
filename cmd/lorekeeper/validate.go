package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lorekeeper/internal/activation"
	"lorekeeper/internal/tokens"
	"lorekeeper/internal/validate"
)

func validateCmd() *cobra.Command {
	var maxContext int
	cmd := &cobra.Command{
		Use:   "validate [worlds...]",
		Short: "Check worlds for entries that can never activate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args, maxContext)
		},
	}
	cmd.Flags().IntVar(&maxContext, "max-context", 0, "Context size used to flag entries larger than the budget")
	return cmd
}

func runValidate(worlds []string, maxContext int) error {
	ctx := context.Background()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	referenced := append([]string(nil), a.cfg.WorldInfo.GlobalSelect...)
	if a.cfg.Character.World != "" {
		referenced = append(referenced, a.cfg.Character.World)
	}
	for _, link := range a.cfg.WorldInfo.CharLore {
		referenced = append(referenced, link.ExtraBooks...)
	}

	options := validate.Options{
		Worlds:     worlds,
		Referenced: referenced,
		Counter:    tokens.Counter{},
	}
	if maxContext > 0 {
		options.Budget = activation.Budget(a.cfg.WorldInfo.Budget, maxContext)
	}

	report, err := validate.Run(ctx, a.worlds, options)
	if err != nil {
		return err
	}

	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out *os.File, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.World
		if issue.UID >= 0 {
			location = fmt.Sprintf("%s #%d", issue.World, issue.UID)
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
