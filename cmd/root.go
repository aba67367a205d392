package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	cacheDir string
	quiet    bool
)

var rootCmd = &cobra.Command{
	Use:   "kcfg-vex",
	Short: "Trace Linux kernel CVEs to CONFIG_* symbols and emit VEX verdicts",
	Long: `kcfg-vex traces which kernel config symbols build the object files
named by a CVE advisory, checks them against a kernel .config, and emits
CycloneDX VEX verdicts (affected / not_affected / under_investigation).`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./.kcfg-vex.yaml)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "advisory cache directory (default: $HOME/.cache/kcfg-vex)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress logging")

	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(cveFetchCmd)
	rootCmd.AddCommand(yoctoScanCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".kcfg-vex")
	}

	viper.SetEnvPrefix("KCFGVEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !quiet {
		logger.Infof("Using config file: %s", viper.ConfigFileUsed())
	}
}

// resolveCacheDir returns the --cache-dir flag value, falling back to the
// KCFGVEX_CACHE_DIR env var (via viper) and finally the package default.
func resolveCacheDir() (string, error) {
	if cacheDir != "" {
		return cacheDir, nil
	}
	if v := viper.GetString("cache-dir"); v != "" {
		return v, nil
	}
	return defaultCacheDirFunc()
}
