package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"coursecal/internal/render"
)

func newShowCmd(g *globalFlags) *cobra.Command {
	var (
		todos   bool
		noColor bool
		width   int
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the course calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := buildSchedule(cmd.Context(), g)
			if err != nil {
				return err
			}

			fd := int(os.Stdout.Fd())
			isTTY := term.IsTerminal(fd)
			if width == 0 && isTTY {
				if w, _, err := term.GetSize(fd); err == nil {
					width = w
				}
			}

			return render.Table(cmd.OutOrStdout(), s, render.Options{
				Todos: todos,
				Color: isTTY && !noColor,
				Width: width,
			})
		},
	}

	cmd.Flags().BoolVar(&todos, "todos", false, "show Prep/Assign/Grade reminders")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colors")
	cmd.Flags().IntVar(&width, "width", 0, "maximum line width (default: terminal width)")
	return cmd
}

func newOutlineCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "outline",
		Short: "Print the outline with the date each item was scheduled on",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := buildSchedule(cmd.Context(), g)
			if err != nil {
				return err
			}
			return render.Outline(cmd.OutOrStdout(), s)
		},
	}
}
