package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag      string
	actorFlag    string
	roleFlag     string
	verifiedFlag bool
	bannedFlag   bool

	rootCmd = &cobra.Command{
		Use:   "harborctl",
		Short: "CLI client for the board service REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Board service base URL")
	rootCmd.PersistentFlags().StringVarP(&actorFlag, "actor", "u", "", "Acting user ID (sent as X-Actor-Id)")
	rootCmd.PersistentFlags().StringVarP(&roleFlag, "role", "r", "USER", "Actor role: USER, ADMIN or SUPER_ADMIN")
	rootCmd.PersistentFlags().BoolVar(&verifiedFlag, "verified", true, "Whether the actor's email is verified")
	rootCmd.PersistentFlags().BoolVar(&bannedFlag, "banned", false, "Whether the actor account is banned")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
