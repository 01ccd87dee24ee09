package main

import (
	"fmt"
	"time"

	"github.com/nhankey2000/auto-post/internal/models"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage connected pages",
}

var (
	accountName      string
	accountPlatform  string
	accountToken     string
	accountAppID     string
	accountAppSecret string
	accountActive    bool
)

var accountAddCmd = &cobra.Command{
	Use:   "add <page-id>",
	Short: "Connect a page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		account := &models.PlatformAccount{
			Name:        accountName,
			Platform:    accountPlatform,
			PageID:      args[0],
			AccessToken: accountToken,
			AppID:       accountAppID,
			AppSecret:   accountAppSecret,
		}
		if err := app.Accounts().Add(cmd.Context(), account); err != nil {
			return err
		}
		return printResult(account, func() {
			printSuccess("✓ Connected page %s as account #%d", account.PageID, account.ID)
		})
	},
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, err := app.Accounts().List(cmd.Context(), accountActive)
		if err != nil {
			return err
		}
		return printResult(accounts, func() {
			rows := make([][]string, 0, len(accounts))
			for _, a := range accounts {
				rows = append(rows, []string{
					fmt.Sprint(a.ID), a.Name, a.PageID, fmt.Sprint(a.IsActive), formatExpiry(a.ExpiresAt),
				})
			}
			printTable([]string{"ID", "NAME", "PAGE", "ACTIVE", "EXPIRES"}, rows)
		})
	},
}

var accountCheckCmd = &cobra.Command{
	Use:   "check [id...]",
	Short: "Check page tokens (all active pages when no id is given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}

		if len(ids) == 1 {
			account, valid, err := app.Accounts().CheckConnection(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			return printResult(map[string]interface{}{"valid": valid, "expires_at": account.ExpiresAt}, func() {
				if !valid {
					printWarning("Account #%d: connection invalid", account.ID)
					return
				}
				printSuccess("✓ Account #%d: connection valid, token expires %s", account.ID, formatExpiry(account.ExpiresAt))
			})
		}

		result, err := app.Accounts().CheckAll(cmd.Context(), ids)
		if err != nil {
			return err
		}
		return printBulk("Valid connections:", result)
	},
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format(time.RFC3339)
}

func init() {
	accountAddCmd.Flags().StringVar(&accountName, "name", "", "Display name")
	accountAddCmd.Flags().StringVar(&accountPlatform, "platform", "facebook", "Platform")
	accountAddCmd.Flags().StringVar(&accountToken, "token", "", "Page access token")
	accountAddCmd.Flags().StringVar(&accountAppID, "app-id", "", "App id used to debug the token")
	accountAddCmd.Flags().StringVar(&accountAppSecret, "app-secret", "", "App secret used to debug the token")
	_ = accountAddCmd.MarkFlagRequired("token")

	accountListCmd.Flags().BoolVar(&accountActive, "active", false, "Only active pages")

	accountCmd.AddCommand(accountAddCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountCheckCmd)
}
