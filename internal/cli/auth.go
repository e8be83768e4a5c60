package cli

import (
	"bufio"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/freetodo/internal/auth"
	"github.com/Makepad-fr/freetodo/internal/config"
	"github.com/Makepad-fr/freetodo/internal/ui"
)

func (a *app) newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the token sent to the creation service",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return usagef("", "usage: todo auth <login|logout|status|whoami>")
		},
	}
	cmd.AddCommand(a.newLoginCmd(), a.newLogoutCmd(), a.newStatusCmd(), a.newWhoAmICmd())
	return cmd
}

func (a *app) credentials() auth.Credentials {
	return auth.Credentials{Dir: config.UserDir()}
}

func (a *app) newLoginCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save a token (read from stdin unless --token is given)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if token == "" {
				fmt.Fprint(a.stdout, "Paste your token: ")
				line, err := bufio.NewReader(a.stdin).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token: %w", err)
				}
				token = line
			}
			if err := a.credentials().Set(token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			ui.OK(a.stdout, "logged in")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "token to save")
	return cmd
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the saved token",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ti, _ := a.credentials().Get()
			if ti != nil && ti.Source == auth.SourceEnv {
				ui.OK(a.stdout, "token is provided by "+auth.EnvToken+" env var (nothing to delete)")
				return nil
			}
			if err := a.credentials().Delete(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			ui.OK(a.stdout, "logged out")
			return nil
		},
	}
}

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from and when it expires",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ti, err := a.credentials().Get()
			if err != nil {
				return err
			}
			if ti == nil {
				fmt.Fprintln(a.stdout, ui.Current().Muted.Render("not logged in"))
				fmt.Fprintln(a.stdout, "Run: todo auth login")
				return nil
			}
			fmt.Fprintf(a.stdout, "source: %s\n", ti.Source)
			if ti.ExpiresAt != nil {
				fmt.Fprintf(a.stdout, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
			} else {
				fmt.Fprintln(a.stdout, "expires: (unknown)")
			}
			fmt.Fprintf(a.stdout, "env override: %s\n", auth.EnvToken)
			return nil
		},
	}
}

func (a *app) newWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the token's claims (not verified)",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			ti, err := a.credentials().Get()
			if err != nil {
				return err
			}
			if ti == nil {
				return usagef("", "not logged in. Run: todo auth login")
			}
			claims, err := auth.Inspect(ti.Token)
			if errors.Is(err, auth.ErrOpaqueToken) {
				fmt.Fprintln(a.stdout, "Opaque token (cannot introspect locally).")
				fmt.Fprintln(a.stdout, "source:", ti.Source)
				return nil
			}
			if err != nil {
				return err
			}
			if claims.Subject != "" {
				fmt.Fprintf(a.stdout, "subject: %s\n", claims.Subject)
			}
			if claims.Issuer != "" {
				fmt.Fprintf(a.stdout, "issuer: %s\n", claims.Issuer)
			}
			if claims.ExpiresAt != nil {
				fmt.Fprintf(a.stdout, "expires: %s\n", claims.ExpiresAt.Format(time.RFC3339))
			}
			keys := make([]string, 0, len(claims.Raw))
			for k := range claims.Raw {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(a.stdout, "claims:")
			for _, k := range keys {
				fmt.Fprintf(a.stdout, "  %s: %v\n", k, claims.Raw[k])
			}
			fmt.Fprintln(a.stdout, "source:", ti.Source)
			return nil
		},
	}
}
