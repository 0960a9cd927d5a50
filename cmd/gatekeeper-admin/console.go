// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/taibuivan/gatekeeper/internal/platform/apperr"
	"github.com/taibuivan/gatekeeper/internal/users/directory"
	"github.com/taibuivan/gatekeeper/internal/workspace"
)

// # Console

// console drives one signed-in workspace from a terminal.
type console struct {
	workspace *workspace.Workspace
	input     *bufio.Reader
	output    io.Writer
	assumeYes bool
}

func newConsole(current *workspace.Workspace, input io.Reader, output io.Writer, assumeYes bool) *console {
	return &console{
		workspace: current,
		input:     bufio.NewReader(input),
		output:    output,
		assumeYes: assumeYes,
	}
}

/*
signIn authenticates the operator and refuses non-administrators.

Returns:
  - error: the sign-in error, or FORBIDDEN when the profile lacks the admin flag
*/
func (console *console) signIn(ctx context.Context, email, password string) error {
	if _, err := console.workspace.Flows.SignIn(ctx, email, password); err != nil {
		return err
	}
	if !console.workspace.Profiles.IsAdministrator(ctx) {
		return apperr.Forbidden(directory.ForbiddenMessage)
	}
	return nil
}

// run dispatches one command with its positional arguments.
func (console *console) run(ctx context.Context, command string, arguments []string) error {
	switch command {
	case "list":
		return console.list(ctx, len(arguments) > 0 && arguments[0] == "disabled")
	case "enable":
		id, err := single(command, arguments)
		if err != nil {
			return err
		}
		message, err := console.workspace.Directory.SetDisabled(ctx, id, false)
		if err != nil {
			return err
		}
		fmt.Fprintln(console.output, message)
		return nil
	case "disable":
		id, err := single(command, arguments)
		if err != nil {
			return err
		}
		return console.confirmed(ctx,
			fmt.Sprintf("Disable user %s? They will not be able to sign in.", id),
			func(ctx context.Context, dir *directory.Directory) (string, error) {
				return dir.SetDisabled(ctx, id, true)
			})
	case "delete":
		id, err := single(command, arguments)
		if err != nil {
			return err
		}
		return console.confirmed(ctx,
			fmt.Sprintf("Delete the profile of user %s? This cannot be undone.", id),
			func(ctx context.Context, dir *directory.Directory) (string, error) {
				return dir.Remove(ctx, id)
			})
	case "reset":
		email, err := single(command, arguments)
		if err != nil {
			return err
		}
		return console.confirmed(ctx,
			fmt.Sprintf("Send a password reset email to %s?", email),
			func(ctx context.Context, dir *directory.Directory) (string, error) {
				return dir.TriggerPasswordReset(ctx, email)
			})
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (console *console) list(ctx context.Context, disabledOnly bool) error {
	entries, err := console.workspace.Directory.ListAll(ctx)
	if err != nil {
		return err
	}

	summary := directory.Summarize(entries)
	if disabledOnly {
		entries = directory.DisabledOnly(entries)
	}

	table := tabwriter.NewWriter(console.output, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "ID\tEMAIL\tNICKNAME\tADMIN\tDISABLED\tLAST UPDATED")
	for _, entry := range entries {
		lastUpdated := "-"
		if !entry.LastUpdated.IsZero() {
			lastUpdated = entry.LastUpdated.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(table, "%s\t%s\t%s %s\t%t\t%t\t%s\n",
			entry.ID, entry.Email, entry.Avatar, entry.Nickname,
			entry.IsAdministrator, entry.IsDisabled, lastUpdated)
	}
	if err := table.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(console.output, "%d users, %d administrators, %d disabled\n",
		summary.Total, summary.Administrators, summary.Disabled)
	return nil
}

/*
confirmed registers the operation with the workspace's confirmation workflow,
asks the operator and then confirms or cancels it.
*/
func (console *console) confirmed(
	ctx context.Context,
	message string,
	operation func(ctx context.Context, dir *directory.Directory) (string, error),
) error {
	dir := console.workspace.Directory
	pending := console.workspace.Confirmations.Request(message, func(ctx context.Context) (string, error) {
		return operation(ctx, dir)
	})

	if !console.assumeYes && !console.ask(pending.Message) {
		console.workspace.Confirmations.Cancel()
		fmt.Fprintln(console.output, "Cancelled.")
		return nil
	}

	result, err := console.workspace.Confirmations.Confirm(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(console.output, result)
	return nil
}

// ask prompts until a line is read. Only "y" and "yes" accept.
func (console *console) ask(question string) bool {
	fmt.Fprintf(console.output, "%s [y/N] ", question)
	answer, err := console.input.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// flushNotifications prints what the workspace queued while the command ran.
func (console *console) flushNotifications() {
	for _, notification := range console.workspace.Notifications.Drain() {
		fmt.Fprintf(console.output, "[%s] %s\n", notification.Kind, notification.Message)
	}
}

func single(command string, arguments []string) (string, error) {
	if len(arguments) != 1 || strings.TrimSpace(arguments[0]) == "" {
		return "", fmt.Errorf("%s expects exactly one argument", command)
	}
	return arguments[0], nil
}
