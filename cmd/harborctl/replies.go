package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	repliesCmd := &cobra.Command{Use: "replies", Short: "Reply operations"}

	listCmd := &cobra.Command{
		Use:   "list POST_ID",
		Short: "List active replies on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(doGet(fmt.Sprintf("/api/posts/%s/replies", args[0])))
		},
	}
	repliesCmd.AddCommand(listCmd)

	var comment, parent string
	createCmd := &cobra.Command{
		Use:   "create POST_ID",
		Short: "Reply to a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{"comment": comment}
			if parent != "" {
				payload["parentReplyId"] = parent
			}
			return printResult(doPost(fmt.Sprintf("/api/posts/%s/replies", args[0]), payload))
		},
	}
	createCmd.Flags().StringVarP(&comment, "comment", "c", "", "Reply text (required)")
	createCmd.Flags().StringVarP(&parent, "parent", "p", "", "Parent reply ID for a nested reply")
	_ = createCmd.MarkFlagRequired("comment")
	repliesCmd.AddCommand(createCmd)

	var newComment string
	updateCmd := &cobra.Command{
		Use:   "update REPLY_ID",
		Short: "Edit a reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(doPatch("/api/replies/"+args[0], map[string]interface{}{"comment": newComment}))
		},
	}
	updateCmd.Flags().StringVarP(&newComment, "comment", "c", "", "New reply text (required)")
	_ = updateCmd.MarkFlagRequired("comment")
	repliesCmd.AddCommand(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete REPLY_ID",
		Short: "Soft-delete a reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(doDelete("/api/replies/" + args[0]))
		},
	}
	repliesCmd.AddCommand(deleteCmd)

	rootCmd.AddCommand(repliesCmd)
}
