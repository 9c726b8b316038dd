package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vidfriends/appcore/internal/db"
	"github.com/vidfriends/appcore/internal/deletion"
)

func newDeleteAccountCmd(c *cli) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Request deletion of an account through the confirmation flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.deleteAccount(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), email, password)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the account to delete")
	cmd.Flags().StringVar(&password, "password", "", "password of the account to delete")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (c *cli) deleteAccount(ctx context.Context, in io.Reader, out io.Writer, email, password string) error {
	pool, err := c.connect(ctx)
	if err != nil {
		return err
	}
	var storePool db.Pool
	if pool != nil {
		defer pool.Close()
		storePool = pool
	}

	svc, err := buildServices(ctx, c.cfg, storePool, printLink(out))
	if err != nil {
		return err
	}

	state, err := requestDeletion(ctx, svc, newTerminalPrompter(in, out), email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "deletion flow finished: %s\n", state)
	return nil
}

// requestDeletion signs in as the account owner and drives the deletion flow to its end.
func requestDeletion(ctx context.Context, svc *services, prompter deletion.Prompter, email, password string) (deletion.State, error) {
	if _, err := svc.sessions.SignIn(ctx, email, password); err != nil {
		return deletion.StateIdle, err
	}
	user, err := svc.sessions.LookupCurrentUser(ctx)
	if err != nil {
		return deletion.StateIdle, err
	}
	if user == nil {
		return deletion.StateIdle, errors.New("signed in account has no user profile")
	}
	svc.state.SetUser(user)

	return deletion.Run(ctx, svc.deletion, user, prompter)
}

func printLink(out io.Writer) func(context.Context, string) error {
	return func(_ context.Context, link string) error {
		_, err := fmt.Fprintf(out, "Open this link to send the request from your mail client:\n%s\n", link)
		return err
	}
}

// terminalPrompter shows dialogs as numbered menus.
type terminalPrompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newTerminalPrompter(in io.Reader, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: bufio.NewScanner(in), out: out}
}

func (p *terminalPrompter) Ask(ctx context.Context, dialog deletion.Dialog) (deletion.Input, error) {
	fmt.Fprintf(p.out, "\n%s\n%s\n", dialog.Title, dialog.Message)
	for i, opt := range dialog.Options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt.Label)
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprint(p.out, "> ")
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return "", err
			}
			return deletion.InputCancel, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(p.in.Text()))
		if err == nil && n >= 1 && n <= len(dialog.Options) {
			return dialog.Options[n-1].Input, nil
		}
		fmt.Fprintf(p.out, "choose a number between 1 and %d\n", len(dialog.Options))
	}
}
