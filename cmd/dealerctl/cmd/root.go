// Package cmd implements the dealerctl CLI: an admin tool for poking the
// assignment form API (cascade, manager eligibility, validation) without a UI.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version string

	// Global flags
	flagAPIURL string
	flagOutput string
	flagKind   string
)

var rootCmd = &cobra.Command{
	Use:   "dealerctl",
	Short: "Dealer Desk assignment form administration CLI",
	Long: `dealerctl exercises the assignment form API from the command line.

It opens a short-lived form session against a running server, applies the
field changes you pass with --set (in order), and shows the outcome:
recomputed option sets, cascade resets, manager candidates, or validation
errors.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the CLI version from build flags.
func SetVersion(v string) {
	version = v
}

func init() {
	cobra.OnInitialize(initFlags)

	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "API base URL (env: DEALERDESK_API_URL, default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "Output format: table, json")
	rootCmd.PersistentFlags().StringVarP(&flagKind, "kind", "k", "user", "Form kind: user, dealer")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(rolesCmd)
	rootCmd.AddCommand(cascadeCmd)
	rootCmd.AddCommand(managersCmd)
	rootCmd.AddCommand(validateCmd)
}

func initFlags() {
	if flagAPIURL == "" {
		flagAPIURL = os.Getenv("DEALERDESK_API_URL")
	}
	if flagAPIURL == "" {
		flagAPIURL = "http://localhost:8080"
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println("dealerctl " + version)
	},
}
