package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"timeclock/config"
	"timeclock/pkg/jwt"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

// tokenCmd 签发本地开发用的 HS256 Token，不需要数据库
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a development bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if !strings.EqualFold(cfg.Auth.SigningMethod, "HS256") {
			return fmt.Errorf("token 签发仅支持 HS256，当前配置为 %s", cfg.Auth.SigningMethod)
		}

		token, err := jwt.NewManager(&cfg.Auth).GenerateToken(tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "owner identity written to the sub claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	_ = tokenCmd.MarkFlagRequired("subject")
}
