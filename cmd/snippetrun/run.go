package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/loykin/snippetrun"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run [snippet-file]",
	Short: "Execute a snippet end to end through the relay",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadConfig()
		if err != nil {
			return err
		}
		lang, err := snippetrun.ParseLanguage(viper.GetString("lang"))
		if err != nil {
			return err
		}
		text, err := snippetInput(args)
		if err != nil {
			return err
		}
		mode, err := doc.Auth.ToMode()
		if err != nil {
			return err
		}

		p := snippetrun.Pipeline{
			RelayURL:  doc.RelayURL,
			Auth:      mode,
			TlsConfig: doc.Client.ToTLS(),
		}
		res := p.Run(context.Background(), text, lang)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if res.Err != nil {
			_ = enc.Encode(res.Err)
			return fmt.Errorf("run failed: %s", res.Err.UserMessage)
		}
		return enc.Encode(res.Response)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [snippet-file]",
	Short: "Parse, resolve and validate a snippet without executing it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadConfig()
		if err != nil {
			return err
		}
		lang, err := snippetrun.ParseLanguage(viper.GetString("lang"))
		if err != nil {
			return err
		}
		text, err := snippetInput(args)
		if err != nil {
			return err
		}
		mode, err := doc.Auth.ToMode()
		if err != nil {
			return err
		}

		p := snippetrun.Pipeline{RelayURL: doc.RelayURL, Auth: mode}
		d, result, err := p.Check(text, lang)
		if err != nil {
			return err
		}
		out := map[string]any{
			"valid":  result.Valid,
			"method": d.Method,
			"url":    d.URL,
		}
		if len(result.Errors) > 0 {
			out["errors"] = result.Errors
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
		if !result.Valid {
			return fmt.Errorf("validation failed with %d error(s)", len(result.Errors))
		}
		return nil
	},
}

var parseCmd = &cobra.Command{
	Use:   "parse [snippet-file]",
	Short: "Print the request descriptor extracted from a snippet",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		lang, err := snippetrun.ParseLanguage(viper.GetString("lang"))
		if err != nil {
			return err
		}
		text, err := snippetInput(args)
		if err != nil {
			return err
		}
		d := snippetrun.ParseSnippet(text, lang)
		out := map[string]any{
			"method":   d.Method,
			"url":      d.URL,
			"headers":  d.Headers.Map(),
			"body":     d.Body,
			"fallback": d.Fallback,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay server",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := doc.Relay
		if sec := viper.GetString("security_config"); sec != "" {
			cfg, err = cfg.LoadSecurityConfig(sec)
			if err != nil {
				return err
			}
		}
		return snippetrun.NewRelayServer(cfg).Run()
	},
}

func init() {
	serveCmd.Flags().String("security-config", "", "path to a relay security yaml (api keys, jwt secret, service keys)")
	_ = viper.BindPFlag("security_config", serveCmd.Flags().Lookup("security-config"))
}
