package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/freetodo/internal/controller"
	"github.com/Makepad-fr/freetodo/internal/logging"
	"github.com/Makepad-fr/freetodo/internal/model"
	"github.com/Makepad-fr/freetodo/internal/ui"
)

func (a *app) newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive view (default)",
		Args:  usageArgs(cobra.NoArgs),
		RunE:  a.tuiCommand,
	}
}

// tuiCommand logs to the configured file, since the view owns the terminal.
func (a *app) tuiCommand(cmd *cobra.Command, _ []string) error {
	logger, closer, err := logging.OpenFile(a.cfg.LogFile, a.logOptions())
	if err != nil {
		return err
	}
	defer closer.Close()
	a.logger = logger

	ctrl, release, err := a.openController(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	a.logger.Info("interactive session started", "endpoint", a.cfg.Endpoint, "store", a.cfg.Store.Backend)
	return a.runTUI(cmd.Context(), ctrl)
}

func (a *app) newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add <text...>",
		Short:   "Send text to the creation service and append the items it returns",
		Example: `  todo add "I need to go and visit Jeff at 3pm tomorrow"`,
		Args:    usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, release, err := a.openController(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			var added []model.Item
			unsubscribe := ctrl.Subscribe(func(ev controller.Event) {
				if ev.Kind == controller.AddSucceeded {
					added = ev.Added
				}
			})
			defer unsubscribe()

			before := ctrl.Len()
			ctrl.SetPendingInput(strings.Join(args, " "))
			err = ctrl.AddItem(cmd.Context())
			if err != nil && !errors.Is(err, controller.ErrPersist) {
				return err
			}
			for i, it := range added {
				fmt.Fprintln(a.stdout, ui.Row(before+i, it))
			}
			if err != nil {
				return err
			}
			ui.OK(a.stdout, fmt.Sprintf("added %d item(s)", len(added)))
			return nil
		},
	}
}

func (a *app) newLsCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List items",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, release, err := a.openController(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			items := ctrl.Items()
			if plain {
				for i, it := range items {
					fmt.Fprintln(a.stdout, ui.Row(i, it))
				}
				return nil
			}
			lines := []string{ui.Header(len(items)), ""}
			lines = append(lines, ui.Rows(items)...)
			lines = append(lines, "", ui.Current().Muted.Render("Tip: add with `todo add \"call Mom tomorrow\"`"))
			fmt.Fprintln(a.stdout, ui.Panel(lines))
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print rows without the frame")
	return cmd
}

func (a *app) newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <index>",
		Short:   "Remove the item at a 1-based index",
		Example: "  todo rm 2",
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return usagef("", "rm: not a number: %s", args[0])
			}
			ctrl, release, err := a.openController(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			if err := ctrl.DeleteItem(cmd.Context(), n-1); err != nil {
				if errors.Is(err, controller.ErrInvalidIndex) {
					return usagef("run `todo ls` to see valid indexes",
						"index out of range: have %d, got %d", ctrl.Len(), n)
				}
				return err
			}
			ui.OK(a.stdout, "removed")
			return nil
		},
	}
}
