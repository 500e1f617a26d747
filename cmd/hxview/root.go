package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pthm/hxview/lib/config"
)

// newRootCmd builds the command tree around one Viper instance, so tests
// can run commands in isolation.
func newRootCmd() *cobra.Command {
	v := config.New("")
	var cfgFile string

	root := &cobra.Command{
		Use:   "hxview",
		Short: "Incremental HTML rendering for Go servers",
		Long: `hxview renders views to HTML with a hash of every element, so update
requests only resend the subtrees that changed.

  hxview serve                 Run the demo server
  hxview generate ./...        Write HXEncode/HXDecode for //hxview:state structs
  hxview clean ./...           Remove generated files`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if cfgFile == "" {
				cfgFile = os.Getenv(config.EnvPrefix + "_CONFIG_FILE")
			}
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (can also use HXVIEW_CONFIG_FILE)")
	flags.StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	bindFlag(v, "log.level", flags.Lookup("log-level"))

	root.AddCommand(
		newServeCmd(v),
		newGenerateCmd(),
		newCleanCmd(),
		newVersionCmd(),
	)
	return root
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
