package main

import (
	"fmt"
	"path/filepath"

	"github.com/cuemby/arachne/pkg/config"
	"github.com/cuemby/arachne/pkg/scheduler"
	"github.com/cuemby/arachne/pkg/store"
	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and manage the durable task queue",
}

func init() {
	queueCmd.PersistentFlags().String("data-dir", "./data", "Directory holding the durable task store")
	queueCmd.PersistentFlags().String("config", "./sites.yaml", "Site table YAML file")

	queueCmd.AddCommand(queueLenCmd)
	queueCmd.AddCommand(queueInspectCmd)
	queueCmd.AddCommand(queueForgetCmd)
}

// openOffline opens the durable store and site table without starting
// the worker pool or config watcher, for one-shot operator commands
// that run alongside (or instead of) a live `crawl` process.
func openOffline(cmd *cobra.Command) (*store.Store, *scheduler.Scheduler, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	configPath, _ := cmd.Flags().GetString("config")

	st, err := store.Open(filepath.Join(dataDir, "arachne.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("queue: open store: %w", err)
	}
	table, err := config.Load(configPath)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("queue: load config: %w", err)
	}
	return st, scheduler.New(st, table), nil
}

var queueLenCmd = &cobra.Command{
	Use:   "len",
	Short: "Print the total number of pending tasks across all sites",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, sched, err := openOffline(cmd)
		if err != nil {
			return err
		}
		defer st.Close()
		n, err := sched.Len()
		if err != nil {
			return fmt.Errorf("queue: len: %w", err)
		}
		fmt.Println(n)
		return nil
	},
}

var queueInspectCmd = &cobra.Command{
	Use:   "inspect <site_id>",
	Short: "List the pending tasks for one site, in priority order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, sched, err := openOffline(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		tasks, err := sched.Inspect(args[0])
		if err != nil {
			return fmt.Errorf("queue: inspect: %w", err)
		}
		for _, t := range tasks {
			fmt.Printf("%s\trevisit_wait=%s\trevisit_count=%d\tchange_count=%d\n",
				t.URL.String(), t.RevisitWait, t.RevisitCount, t.ChangeCount)
		}
		return nil
	},
}

var queueForgetCmd = &cobra.Command{
	Use:   "forget <site_id> <url>",
	Short: "Remove a single queued task by its canonical URL",
	Long: `forget is the operator tool that destroys a queued task on demand.
The URL must match the task's canonical string form exactly (see
'queue inspect' for the canonical form).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, sched, err := openOffline(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		found, err := sched.Forget(args[0], args[1])
		if err != nil {
			return fmt.Errorf("queue: forget: %w", err)
		}
		if !found {
			return fmt.Errorf("queue: forget: no task %q found for site %q", args[1], args[0])
		}
		fmt.Println("forgotten")
		return nil
	},
}
