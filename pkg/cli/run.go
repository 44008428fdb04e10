package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"

	"github.com/opscopilot-dev/opscopilot/pkg/cli/config"
	"github.com/opscopilot-dev/opscopilot/pkg/service/rag"
	"github.com/opscopilot-dev/opscopilot/pkg/usecase"
	"github.com/opscopilot-dev/opscopilot/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdRun() *cli.Command {
	var ticketID int
	var freeText string
	var repoCfg config.Repository
	var llmCfg config.LLM
	var indexCfg config.Index

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "ticket-id",
			Usage:       "Ticket ID to triage",
			Destination: &ticketID,
		},
		&cli.StringFlag{
			Name:        "free-text",
			Usage:       "Free-form issue text to triage (instead of a ticket)",
			Destination: &freeText,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, indexCfg.Flags()...)

	return &cli.Command{
		Name:  "run",
		Usage: "Run one triage pipeline invocation and print the result",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			llmClient, err := llmCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure LLM client")
			}
			if llmClient == nil {
				return goerr.New("LLM provider credentials are required for run")
			}

			ucOpts := []usecase.Option{usecase.WithLLM(llmClient)}
			index, err := indexCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load semantic index")
			}
			if index != nil {
				ucOpts = append(ucOpts, usecase.WithRetrieval(rag.NewService(index, llmClient)))
			} else {
				logging.Default().Warn("Semantic index not found, policy retrieval disabled", "dir", indexCfg.Dir())
			}

			input := usecase.TriageInput{FreeText: freeText}
			if c.IsSet("ticket-id") {
				id := int64(ticketID)
				input.TicketID = &id
			}

			result, err := usecase.New(repo, ucOpts...).Triage(ctx, input)
			if err != nil {
				return err
			}

			printTriageResult(result)
			return nil
		},
	}
}

func printTriageResult(result *usecase.TriageResult) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgYellow)
	dim := color.New(color.Faint)

	title.Fprintf(os.Stdout, "Agent run %s\n\n", result.AgentRunID)

	label.Fprintln(os.Stdout, "Customer reply:")
	fmt.Fprintln(os.Stdout, result.Output.CustomerReply)

	if len(result.Output.RecommendedActions) > 0 {
		fmt.Fprintln(os.Stdout)
		label.Fprintln(os.Stdout, "Recommended actions:")
		for _, action := range result.Output.RecommendedActions {
			fmt.Fprintf(os.Stdout, "  - %s: %s\n", action.Type, action.Reason)
		}
	}

	if len(result.Output.Citations) > 0 {
		fmt.Fprintln(os.Stdout)
		label.Fprintln(os.Stdout, "Citations:")
		for _, citation := range result.Output.Citations {
			fmt.Fprintf(os.Stdout, "  - %s", citation.Source)
			if citation.UsedFor != "" {
				dim.Fprintf(os.Stdout, " (%s)", citation.UsedFor)
			}
			fmt.Fprintln(os.Stdout)
		}
	}

	if len(result.Output.RiskNotes) > 0 {
		fmt.Fprintln(os.Stdout)
		label.Fprintln(os.Stdout, "Risk notes:")
		for _, note := range result.Output.RiskNotes {
			fmt.Fprintf(os.Stdout, "  - %s\n", note)
		}
	}
}
