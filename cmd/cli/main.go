package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/timecapsule/internal/client/cli"
)

func main() {

	ctx := context.Background()
	app := cli.NewApp(os.Stdout)

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}

}
