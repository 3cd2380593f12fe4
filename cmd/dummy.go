package cmd

import (
	"github.com/spf13/cobra"

	"apiperf/internal/dummy"
)

var dummyCmd = &cobra.Command{
	Use:   "dummy",
	Short: "Run a local target server with known latency profiles",
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		dummy.Start(dummy.ServerConfig{Port: port})
		select {}
	},
}

func init() {
	rootCmd.AddCommand(dummyCmd)
	dummyCmd.Flags().IntP("port", "p", 8080, "port to listen on")
}
