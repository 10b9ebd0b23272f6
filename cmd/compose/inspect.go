package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/centraunit/compose"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	winnerColor  = color.New(color.FgGreen, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

func newContractsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "contracts",
		Short: "List registered contracts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, contract := range a.registry.Contracts() {
				regs := a.registry.Registrations(contract)
				fmt.Fprintf(out, "%s %s\n",
					headerColor.Sprint(contract.String()),
					dimColor.Sprintf("(%d registrations, %d survivors)", len(regs), len(a.registry.ResolveAll(contract))))
			}
			return nil
		},
	}
}

func newOrderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "order <contract>",
		Short: "Show the ordered survivors of a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			contract := a.manifest.Type(args[0])
			out := cmd.OutOrStdout()

			kind := "single"
			if a.registry.IsMultiple(contract) {
				kind = "multiple"
			}
			headerColor.Fprintf(out, "%s (%s)\n", contract, kind)

			survivors := a.registry.ResolveAll(contract)
			for i, reg := range survivors {
				printRegistration(out, i+1, reg)
			}
			printEliminated(out, a.registry.Registrations(contract), survivors)
			return nil
		},
	}
}

func newResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <contract>",
		Short: "Resolve the winning registration of a contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			contract := a.manifest.Type(args[0])
			out := cmd.OutOrStdout()

			winner, err := a.registry.Resolve(contract)
			if err != nil {
				var ambiguous *compose.AmbiguousRegistrationError
				if errors.As(err, &ambiguous) {
					errorColor.Fprintf(out, "ambiguous: %s\n", ambiguous.Type)
					for _, c := range ambiguous.Candidates {
						fmt.Fprintf(out, "  - %s\n", c)
					}
				}
				return err
			}
			fmt.Fprintf(out, "%s %s\n", winnerColor.Sprint("winner:"), winner)
			return nil
		},
	}
}

func printRegistration(out io.Writer, position int, reg *compose.ServiceRegistration) {
	flags := ""
	if reg.IsOverride() {
		flags += " override"
	}
	if reg.ExternallyOwned() {
		flags += " externally-owned"
	}
	fmt.Fprintf(out, "  %d. %s %s%s\n",
		position,
		reg.Identity(),
		dimColor.Sprintf("[override=%d processing=%d %s]", reg.OverridePriority(), reg.ProcessingPriority(), reg.Lifetime()),
		warningColor.Sprint(flags),
	)
}

func printEliminated(out io.Writer, all, survivors []*compose.ServiceRegistration) {
	kept := make(map[*compose.ServiceRegistration]bool, len(survivors))
	for _, reg := range survivors {
		kept[reg] = true
	}
	for _, reg := range all {
		if kept[reg] || reg.IsPlaceholder() {
			continue
		}
		fmt.Fprintf(out, "  %s %s\n", warningColor.Sprint("eliminated:"), reg.Identity())
	}
}
