// Package main is the entry point for the whiteboard server CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "whiteboard",
	Short: "Real-time collaborative whiteboard synchronization server",
	Long: `whiteboard is the room coordination and synchronization engine for a
collaborative whiteboard: clients join named rooms over WebSocket, share
live cursors and presence, and edit a shared board of notes plus a canvas
snapshot, with all changes relayed to room peers and persisted per room.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("whiteboard %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}
