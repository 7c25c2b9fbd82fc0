package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/polymkt/trader/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or generate configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", cfgFile)
		}
		if err := config.Default().SaveToFile(cfgFile); err != nil {
			return err
		}
		fmt.Println("wrote", cfgFile)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration after validation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
