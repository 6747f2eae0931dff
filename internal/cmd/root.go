// Package cmd implements the gsd command line.
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gsd-build/gsd/internal/config"
	"github.com/gsd-build/gsd/internal/errors"
	"github.com/gsd-build/gsd/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "gsd",
	Short: "Wave-based parallel plan executor",
	Long: `gsd executes the plans of a project phase. Plans are grouped into
waves by their "wave:" declaration; every plan in a wave runs concurrently
as its own agent process, and waves run in ascending order. A plan whose
SUMMARY file already exists is skipped, so an interrupted phase resumes
where it stopped.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and reports a failure on stderr
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// Exit codes returned by ExitCode.
const (
	ExitOK       = 0
	ExitFailure  = 1 // The run stopped: discovery, launch or wave failure
	ExitUsage    = 2 // Invalid input, configuration or environment
	ExitCanceled = 130
)

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errors.ErrCanceled):
		return ExitCanceled
	case errors.IsRunError(err):
		return ExitFailure
	default:
		return ExitUsage
	}
}

// printError writes err for the operator. A run error was already reported
// plan by plan as notifications, so only its first line is repeated; the
// full aggregate is in the run log. Errors not meant for users are shown
// whole.
func printError(w io.Writer, err error) {
	msg := err.Error()
	if errors.IsRunError(err) && errors.IsUserFacing(err) {
		msg = util.FirstLine(msg)
	}
	fmt.Fprintf(w, "Error: %s\n", msg)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/gsd/config.yaml)")
	rootCmd.PersistentFlags().StringP("dir", "C", "", "project root (default is the current directory)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Defaults first so they apply without a config file
	config.SetDefaults()

	local := localConfigFile()
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if _, err := os.Stat(local); err == nil {
		viper.SetConfigFile(local)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("GSD")
	// GSD_EXECUTOR_COMMAND for executor.command
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// localConfigFile returns the project config file inside the --dir root,
// or the working directory when --dir is not set.
func localConfigFile() string {
	dir, _ := rootCmd.PersistentFlags().GetString("dir")
	return filepath.Join(dir, config.LocalConfigFile)
}
