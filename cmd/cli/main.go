package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host string
)

var rootCmd = &cobra.Command{
	Use:   "openplay-cli",
	Short: "A CLI to interact with the openplay server",
	Long: `A command-line interface for running open play: check players in, ask for
suggested matches, then begin and finish them and manage the evening's session.

Commands include suggest, queue, create, begin, finish, settings and session.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
