package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	adminCmd := &cobra.Command{Use: "admin", Short: "Moderation operations (ADMIN role required)"}

	var reason string
	banCmd := &cobra.Command{
		Use:   "ban POST_ID",
		Short: "Ban a published post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload interface{}
			if reason != "" {
				payload = map[string]interface{}{"reason": reason}
			}
			return printResult(doPost(fmt.Sprintf("/api/admin/posts/%s/ban", args[0]), payload))
		},
	}
	banCmd.Flags().StringVarP(&reason, "reason", "m", "", "Reason recorded on the post")
	adminCmd.AddCommand(banCmd)

	unbanCmd := &cobra.Command{
		Use:   "unban POST_ID",
		Short: "Lift a ban; the post returns to published but stays archived",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(doPost(fmt.Sprintf("/api/admin/posts/%s/unban", args[0]), nil))
		},
	}
	adminCmd.AddCommand(unbanCmd)

	recoverCmd := &cobra.Command{
		Use:   "recover POST_ID",
		Short: "Recover a deleted post to published",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(doPost(fmt.Sprintf("/api/admin/posts/%s/recover", args[0]), nil))
		},
	}
	adminCmd.AddCommand(recoverCmd)

	bannedCmd := &cobra.Command{
		Use:   "banned",
		Short: "List banned posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(doGet("/api/admin/posts/banned"))
		},
	}
	adminCmd.AddCommand(bannedCmd)

	deletedCmd := &cobra.Command{
		Use:   "deleted [POST_ID]",
		Short: "List deleted posts, or inspect one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return printResult(doGet("/api/admin/posts/deleted/" + args[0]))
			}
			return printResult(doGet("/api/admin/posts/deleted"))
		},
	}
	adminCmd.AddCommand(deletedCmd)

	getCmd := &cobra.Command{
		Use:   "get POST_ID",
		Short: "Get any post regardless of stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(doGet("/api/admin/posts/" + args[0]))
		},
	}
	adminCmd.AddCommand(getCmd)

	rootCmd.AddCommand(adminCmd)
}
