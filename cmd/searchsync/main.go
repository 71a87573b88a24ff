package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ncobase/searchsync/cmd/commands"

	// Store, broker and engine drivers.
	_ "github.com/ncobase/searchsync/data/kafka"
	_ "github.com/ncobase/searchsync/data/meilisearch"
	_ "github.com/ncobase/searchsync/data/mongodb"
	_ "github.com/ncobase/searchsync/data/mysql"
	_ "github.com/ncobase/searchsync/data/postgres"
	_ "github.com/ncobase/searchsync/data/rabbitmq"
	_ "github.com/ncobase/searchsync/data/redis"
	_ "github.com/ncobase/searchsync/data/sqlite"

	// Queue connections.
	_ "github.com/ncobase/searchsync/queue/kafka"
	_ "github.com/ncobase/searchsync/queue/memory"
	_ "github.com/ncobase/searchsync/queue/rabbitmq"
	_ "github.com/ncobase/searchsync/queue/redis"

	_ "github.com/ncobase/searchsync/logging/hooks/meilisearch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := commands.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
