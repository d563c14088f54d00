package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/psmoveservice/psmbind/cmd"
)

func main() {
	wd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	if err := cmd.LoadDotEnv(wd); err != nil {
		log.Fatal(err)
	}
	cobra.CheckErr(cmd.NewCLI().ExecuteContext(context.Background()))
}
