package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/callvault/internal/agent"
	"github.com/dmitrijs2005/callvault/internal/agent/config"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s backup|restore [flags]\n", os.Args[0])
	os.Exit(2)
}

func main() {

	if len(os.Args) < 2 {
		usage()
	}
	cmd := os.Args[1]

	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := agent.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
	defer app.Close()

	switch cmd {
	case "backup":
		err = app.Backup(ctx)
	case "restore":
		err = app.Restore(ctx)
	default:
		usage()
	}

	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}
