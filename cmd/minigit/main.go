// cmd/minigit/main.go
package main

import (
	"errors"
	"fmt"
	"os"

	minigiterrors "minigit/internal/errors"
	"minigit/internal/logging"
	"minigit/internal/repo"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var log *logging.Logger

var rootCmd = &cobra.Command{
	Use:   "minigit",
	Short: "minigit is a minimal local version-control tool",
	Long:  `minigit tracks a content-addressed commit graph: stage files, commit, branch, checkout, and merge with a three-way algorithm.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		log, err = logging.New(os.Getenv("MINIGIT_LOG_LEVEL"))
		return err
	},
}

func init() {
	var initCmd = &cobra.Command{
		Use:   "init",
		Short: "Create a new minigit repository in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			r, err := repo.Init(dir, log)
			if err != nil {
				return err
			}
			defer r.Close()
			fmt.Println("Initialized empty minigit repository in", dir)
			return nil
		},
	}

	var addCmd = &cobra.Command{
		Use:   "add <path>",
		Short: "Stage a file's current contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()
			return r.Add(args[0])
		},
	}

	var message string
	var commitCmd = &cobra.Command{
		Use:   "commit",
		Short: "Record the staged changes as a new commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			id, created, err := r.Commit(message)
			if err != nil {
				return err
			}
			if !created {
				fmt.Println("nothing to commit, index matches HEAD")
				return nil
			}
			fmt.Printf("[%s] %s\n", id[:8], message)
			return nil
		},
	}
	commitCmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	commitCmd.MarkFlagRequired("message")

	var logCmd = &cobra.Command{
		Use:   "log",
		Short: "Show commit history along the first-parent chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			entries, err := r.Log()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No commits yet.")
				return nil
			}
			yellow := color.New(color.FgYellow).SprintFunc()
			for _, e := range entries {
				fmt.Printf("%s %s\n", yellow("commit"), e.ID)
				fmt.Printf("Date: %s\n", e.Timestamp)
				fmt.Printf("\n    %s\n\n", e.Message)
			}
			return nil
		},
	}

	var branchCmd = &cobra.Command{
		Use:   "branch <name>",
		Short: "Create a new branch at the current commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()
			return r.Branch(args[0])
		},
	}

	var checkoutCmd = &cobra.Command{
		Use:   "checkout <branch-or-commit>",
		Short: "Switch the working directory to a branch or commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()
			if err := r.Checkout(args[0]); err != nil {
				return err
			}
			fmt.Println("Switched to", args[0])
			return nil
		},
	}

	var mergeCmd = &cobra.Command{
		Use:   "merge <branch>",
		Short: "Merge a branch into the current branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			result, err := r.Merge(args[0])
			var mergeErr *minigiterrors.Error
			if errors.As(err, &mergeErr) && mergeErr.Kind == minigiterrors.KindMergeConflict {
				red := color.New(color.FgRed).SprintFunc()
				for _, path := range result.Conflicts {
					fmt.Printf("%s: both modified %s\n", red("CONFLICT"), path)
				}
				return err
			}
			if err != nil {
				return err
			}
			switch {
			case result.UpToDate:
				fmt.Println("Already up to date.")
			case result.FastForward:
				fmt.Println("Fast-forward merge.")
			default:
				fmt.Printf("Merge commit %s created.\n", result.NewCommit[:8])
			}
			return nil
		},
	}

	var statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show modified, untracked, and deleted files relative to the Index",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			entries, err := r.Status()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("nothing to report, working tree matches the index")
				return nil
			}

			yellow := color.New(color.FgYellow).SprintFunc()
			blue := color.New(color.FgBlue).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()
			for _, e := range entries {
				switch e.Kind {
				case "modified":
					fmt.Printf("\t%s %s\n", yellow("M"), e.Path)
				case "untracked":
					fmt.Printf("\t%s %s\n", blue("?"), e.Path)
				case "deleted":
					fmt.Printf("\t%s %s\n", red("D"), e.Path)
				}
			}
			return nil
		},
	}

	var showCmd = &cobra.Command{
		Use:   "show <commit-id>",
		Short: "Print a commit's metadata and file set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			defer r.Close()

			record, _, err := r.Show(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("commit %s\n", args[0])
			fmt.Printf("Date: %s\n\n    %s\n\n", record.Timestamp, record.Message)
			for path, blobID := range record.Files {
				fmt.Printf("%s:%s\n", path, blobID)
			}
			return nil
		},
	}

	rootCmd.AddCommand(initCmd, addCmd, commitCmd, logCmd, branchCmd, checkoutCmd, mergeCmd, statusCmd, showCmd)
}

func openRepo() (*repo.Repository, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}
	return repo.Open(dir, log)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var target *minigiterrors.Error
		if errors.As(err, &target) {
			fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint(target.Error()))
			os.Exit(target.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
