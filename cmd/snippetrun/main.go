package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/loykin/snippetrun/cmd/snippetrun/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "snippetrun",
	Short: "Parse generated API snippets and execute them through the relay",
}

func init() {
	// Local overrides live in .env; absence is fine
	_ = godotenv.Load()

	v := viper.GetViper()
	v.SetDefault("config", "")
	v.SetDefault("relay_url", "http://localhost:8080")
	v.SetDefault("lang", "curl")

	// Environment variables support: SNIPPETRUN_CONFIG, SNIPPETRUN_RELAY_URL, ...
	v.SetEnvPrefix("SNIPPETRUN")
	v.AutomaticEnv()

	rootCmd.PersistentFlags().String("config", v.GetString("config"), "path to a config yaml")
	rootCmd.PersistentFlags().String("relay-url", v.GetString("relay_url"), "base URL of the relay server")
	rootCmd.PersistentFlags().String("lang", v.GetString("lang"), "snippet language: javascript, python or curl")

	_ = v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("relay_url", rootCmd.PersistentFlags().Lookup("relay-url"))
	_ = v.BindPFlag("lang", rootCmd.PersistentFlags().Lookup("lang"))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig builds the effective config from file plus flag/env overrides.
func loadConfig() (*config.ConfigDoc, error) {
	v := viper.GetViper()
	doc, err := config.Load(v.GetString("config"))
	if err != nil {
		return nil, err
	}
	if u := v.GetString("relay_url"); u != "" {
		doc.RelayURL = u
	}
	doc.SetupLogger()
	return doc, nil
}

// snippetInput reads the snippet from the file argument, or stdin for "-".
func snippetInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read snippet from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read snippet file: %w", err)
	}
	return string(data), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
