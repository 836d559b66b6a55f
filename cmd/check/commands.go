package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/podium/internal/client"
	"github.com/okian/podium/internal/verify"
)

const requestTimeout = 10 * time.Second

var errInvalidCommand = errors.New("invalid command")

// shownError marks an error already reported to the user.
type shownError struct{ error }

func (e shownError) Unwrap() error { return e.error }

func shown(err error) error { return shownError{err} }

type app struct {
	serverURL string
	stateFile string
	verifier  client.Verifier
}

func (a *app) participant() *client.Participant {
	return client.NewParticipant(
		client.NewClient(a.serverURL, client.WithTimeout(requestTimeout)),
		client.NewStateStore(a.stateFile),
		a.verifier,
	)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "check <problem_number>",
		Short:         "Verify a workshop problem and report it to the leaderboard",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				printUsage(cmd.OutOrStdout())
				return nil
			}
			problem, err := strconv.Atoi(args[0])
			if err != nil || problem < 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "[ERROR] Invalid command.")
				return shown(errInvalidCommand)
			}
			return runSubmit(cmd.Context(), cmd.OutOrStdout(), a.participant(), problem)
		},
	}
	root.PersistentFlags().StringVar(&a.serverURL, "server", a.serverURL, "leaderboard base URL (overrides "+EnvServerURL+")")
	root.PersistentFlags().StringVar(&a.stateFile, "state", a.stateFile, "local progress file")

	root.AddCommand(
		&cobra.Command{
			Use:   "register <name>",
			Short: "Register this machine under a name",
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "[ERROR] You must provide a name.")
					return shown(client.ErrNameRequired)
				}
				return runRegister(cmd.Context(), cmd.OutOrStdout(), a.participant(), args[0])
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Clear local progress",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := a.participant().Reset(); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "[ERROR] %v\n", err)
					return shown(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "[RESET] State has been cleared.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show local progress",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				st, err := a.participant().Status()
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "[ERROR] %v\n", err)
					return shown(err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "[STATUS]")
				if !st.Registered() {
					fmt.Fprintln(out, "  name      : (not registered)")
					return nil
				}
				fmt.Fprintf(out, "  name      : %s\n", st.Name)
				fmt.Fprintf(out, "  completed : %v\n", st.Completed)
				return nil
			},
		},
	)
	return root
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  check register <name>")
	fmt.Fprintln(w, "  check <problem_number>")
	fmt.Fprintln(w, "  check status")
	fmt.Fprintln(w, "  check reset")
}

func runRegister(ctx context.Context, w io.Writer, p *client.Participant, name string) error {
	res, err := p.Register(ctx, name)
	if err != nil {
		if errors.Is(err, client.ErrNameRequired) {
			fmt.Fprintln(w, "[ERROR] You must provide a name.")
		} else {
			fmt.Fprintf(w, "[ERROR] Failed to register: %v\n", err)
		}
		return shown(err)
	}

	fmt.Fprintln(w, "[REGISTER]")
	if res.Existing {
		fmt.Fprintf(w, "  current name : %s\n", res.Name)
		fmt.Fprintln(w, "  result       : already registered")
		return nil
	}
	fmt.Fprintf(w, "  name         : %s\n", res.Name)
	fmt.Fprintf(w, "    %-12s: %s\n", "status", res.Response.Status)
	return nil
}

func runSubmit(ctx context.Context, w io.Writer, p *client.Participant, problem int) error {
	res, err := p.Submit(ctx, problem)
	switch {
	case err == nil:
	case errors.Is(err, verify.ErrUnsupportedProblem):
		fmt.Fprintf(w, "[ERROR] Unsupported problem number: %d\n", problem)
		return shown(err)
	case errors.Is(err, client.ErrNotRegistered):
		fmt.Fprintln(w, "[ERROR] Please register first using: check register <name>")
		return shown(err)
	default:
		fmt.Fprintf(w, "[ERROR] Failed to submit: %v\n", err)
		return shown(err)
	}

	switch res.Outcome {
	case client.SubmitSkipped:
		fmt.Fprintf(w, "[SKIP] Problem %d was already submitted.\n", problem)
	case client.SubmitIncorrect:
		fmt.Fprintln(w, "[INFO] Incorrect answer. Try again.")
	case client.SubmitAccepted, client.SubmitDuplicate:
		fmt.Fprintln(w, "[SUBMIT]")
		fmt.Fprintf(w, "  name    : %s\n", res.Name)
		fmt.Fprintf(w, "  problem : %d\n", problem)
		fmt.Fprintln(w, "  response:")
		fmt.Fprintf(w, "    %-8s: %s\n", "status", res.Response.Status)
		if res.Outcome == client.SubmitAccepted {
			fmt.Fprintf(w, "    %-8s: %d\n", "score", res.Response.Score)
			fmt.Fprintf(w, "    %-8s: %d\n", "rank", res.Response.Rank)
			fmt.Fprintln(w, "[SUCCESS] Congrats! You solved the problem 🎉")
		}
	}
	return nil
}
