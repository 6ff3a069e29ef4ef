// Command qtbench measures concurrent insert and query throughput of the
// lock-free and lock-based quadtrees.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "qtbench",
		Short: "Quadtree insert and query benchmark",
		RunE:  runBench,
	}
	addFlags(rootCmd)

	rootCmd.SetOutput(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		rootCmd.Println(err)
		os.Exit(1)
	}
}

func addFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "", "", "config file")
	cmd.Flags().IntP("points", "n", defaultPoints, "the number of points to insert, rounded down to a multiple of threads")
	cmd.Flags().IntP("threads", "t", 0, "the number of inserting goroutines (default GOMAXPROCS)")
	cmd.Flags().BoolP("lockfree", "", true, "use the lock-free tree; false selects the lock-based tree")
	cmd.Flags().IntP("capacity", "c", defaultCapacity, "points per leaf before it subdivides")
	cmd.Flags().IntP("query-threads", "", 0, "goroutines querying the whole tree while points are inserted")
	cmd.Flags().IntP("queries", "", defaultQueries, "random range queries to run after inserting")
	cmd.Flags().StringP("png", "", "", "write an image of the tree structure to this file")
	cmd.Flags().StringP("metrics-addr", "", "", "serve prometheus metrics on this address while running")
	cmd.Flags().StringP("log-level", "L", "", "log level: debug, info, warn, error, fatal (default 'info')")
}

func runBench(cmd *cobra.Command, _ []string) error {
	cfg := NewConfig()
	if err := cfg.Parse(cmd.Flags()); err != nil {
		return err
	}

	lg, props, err := log.InitLogger(&cfg.Log)
	if err != nil {
		return err
	}
	log.ReplaceGlobals(lg, props)
	// Flushing any buffered log entries
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	go func() {
		select {
		case sig := <-sc:
			log.Info("got signal to exit", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	return newBench(cfg, cmd.OutOrStdout()).run(ctx)
}
