package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "lambdacore",
	Short: "Call Lambda functions the way the runtime does",
	Long: `lambdacore calls deployed Lambda functions with the same invoker used
inside functions built on the runtime, so results and errors look exactly as
the calling function would see them.

Flags can also be set through LAMBDACORE_* environment variables or a .env
file in the working directory.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("region", "", "AWS region (default from the shared AWS config)")
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("region", rootCmd.PersistentFlags().Lookup("region"))

	rootCmd.AddCommand(invokeCmd)
}

func initConfig() {
	_ = godotenv.Load()

	viper.SetEnvPrefix("LAMBDACORE")
	viper.AutomaticEnv()
}
