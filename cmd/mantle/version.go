package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the Mantle version, Git commit, build date, and Go version",
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Println(Version)
			return
		}
		goVer := GoVersion
		if goVer == "unknown" {
			goVer = runtime.Version()
		}
		fmt.Printf("mantle %s (commit %s, built %s, %s)\n",
			Version, GitCommit, BuildDate, goVer)
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version number")
}
