package main

import (
	"log"
	"os"

	"github.com/pfczx/htmlfilter/iternal/cli"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
