package commands

import (
	"github.com/spf13/cobra"

	"github.com/botscope/botscope/internal/server"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the upload-and-view web surface",
	RunE: func(cmd *cobra.Command, args []string) error {
		initLogging()
		return server.New(servePort).Start()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "8080", "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}
