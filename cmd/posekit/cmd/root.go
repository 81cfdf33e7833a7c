// Package cmd contains all CLI commands for the posekit tool.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/f3rmion/posekit/internal/config"
	"github.com/f3rmion/posekit/internal/observability"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "posekit",
	Short: "Photo to posed-rig pipeline",
	Long: `posekit turns a photograph of a person into a posed 3D rig.

The pipeline has three stages:
  - extract     detect body landmarks and write a pose document plus a
                skeleton overlay
  - apply       pose the scene's rig from a pose document and render it
  - introspect  render the rig's T-pose and dump its bone hierarchy

Scenes live in a SQLite scene document created with 'posekit scene init'.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		if cfg != nil {
			observability.GetLogger().Error("command failed", zap.Error(err))
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	observability.Sync()
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./posekit.yaml or $HOME/.config/posekit/posekit.yaml)")
	rootCmd.PersistentFlags().String("scene", "", "scene document (default from config, scene.db)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

// initConfig reads in the config file and ENV variables, then sets up logging.
func initConfig(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(strings.TrimSuffix(config.ConfigFile, filepath.Ext(config.ConfigFile)))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := config.GetConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix("POSEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	root := cmd.Root().PersistentFlags()
	if err := v.BindPFlag("scene.path", root.Lookup("scene")); err != nil {
		return err
	}
	if err := v.BindPFlag("logger.level", root.Lookup("log-level")); err != nil {
		return err
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	observability.InitializeLogger(cfg.Logger)
	observability.GetLogger().Debug("configuration loaded",
		zap.String("config_file", v.ConfigFileUsed()),
		zap.String("command", cmd.CommandPath()))
	return nil
}

func logger() *zap.Logger {
	return observability.GetLogger()
}
