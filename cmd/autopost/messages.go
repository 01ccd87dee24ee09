package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Read and answer page conversations",
}

var messagesListCmd = &cobra.Command{
	Use:   "list <account-id>",
	Short: "List recent messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		messages, err := app.Messages().List(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printResult(messages, func() {
			rows := make([][]string, 0, len(messages))
			for _, m := range messages {
				rows = append(rows, []string{
					m.CreatedTime.Format("2006-01-02 15:04"), m.SenderName, m.SenderID, truncate(m.Text, 60),
					fmt.Sprint(len(m.Attachments)),
				})
			}
			printTable([]string{"TIME", "FROM", "SENDER ID", "TEXT", "ATTACHMENTS"}, rows)
		})
	},
}

var messagesReplyCmd = &cobra.Command{
	Use:   "reply <account-id> <recipient-id> <message>...",
	Short: "Send a reply to a user who messaged the page",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := app.Messages().Reply(cmd.Context(), id, args[1], strings.Join(args[2:], " ")); err != nil {
			return err
		}
		printSuccess("✓ Reply sent to %s", args[1])
		return nil
	},
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

func init() {
	messagesCmd.AddCommand(messagesListCmd)
	messagesCmd.AddCommand(messagesReplyCmd)
}
