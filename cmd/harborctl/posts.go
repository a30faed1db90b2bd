package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	postsCmd := &cobra.Command{Use: "posts", Short: "Post operations"}

	feedCmd := &cobra.Command{
		Use:   "feed",
		Short: "List the public feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(doGet("/api/posts"))
		},
	}
	postsCmd.AddCommand(feedCmd)

	var title, content string
	var publish bool
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post (draft unless --publish)",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{
				"title":   title,
				"content": content,
				"publish": publish,
			}
			return printResult(doPost("/api/posts", payload))
		},
	}
	createCmd.Flags().StringVarP(&title, "title", "t", "", "Post title (required)")
	createCmd.Flags().StringVarP(&content, "content", "c", "", "Post content (required)")
	createCmd.Flags().BoolVarP(&publish, "publish", "p", false, "Publish immediately instead of saving a draft")
	_ = createCmd.MarkFlagRequired("title")
	_ = createCmd.MarkFlagRequired("content")
	postsCmd.AddCommand(createCmd)

	getCmd := &cobra.Command{
		Use:   "get POST_ID",
		Short: "Get a post by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(doGet("/api/posts/" + args[0]))
		},
	}
	postsCmd.AddCommand(getCmd)

	var newTitle, newContent string
	updateCmd := &cobra.Command{
		Use:   "update POST_ID",
		Short: "Edit your own post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{}
			if cmd.Flags().Changed("title") {
				payload["title"] = newTitle
			}
			if cmd.Flags().Changed("content") {
				payload["content"] = newContent
			}
			if len(payload) == 0 {
				return fmt.Errorf("provide --title and/or --content")
			}
			return printResult(doPatch("/api/posts/"+args[0], payload))
		},
	}
	updateCmd.Flags().StringVarP(&newTitle, "title", "t", "", "New title")
	updateCmd.Flags().StringVarP(&newContent, "content", "c", "", "New content")
	postsCmd.AddCommand(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete POST_ID",
		Short: "Soft-delete your own post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(doDelete("/api/posts/" + args[0]))
		},
	}
	postsCmd.AddCommand(deleteCmd)

	// Stage transitions share a shape: POST /api/posts/{id}/{action}.
	for _, action := range []struct{ name, short string }{
		{"publish", "Publish a draft"},
		{"hide", "Hide a published post"},
		{"unhide", "Restore a hidden post to published"},
		{"archive", "Archive a published post"},
		{"unarchive", "Unarchive a post"},
	} {
		action := action
		postsCmd.AddCommand(&cobra.Command{
			Use:   action.name + " POST_ID",
			Short: action.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return printResult(doPost(fmt.Sprintf("/api/posts/%s/%s", args[0], action.name), nil))
			},
		})
	}

	mineCmd := &cobra.Command{
		Use:   "mine",
		Short: "List your own posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(doGet("/api/posts/mine"))
		},
	}
	postsCmd.AddCommand(mineCmd)

	draftsCmd := &cobra.Command{
		Use:   "drafts",
		Short: "List your unpublished drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(doGet("/api/posts/mine/drafts"))
		},
	}
	postsCmd.AddCommand(draftsCmd)

	var topLimit int
	topCmd := &cobra.Command{
		Use:   "top",
		Short: "List your posts with the most replies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(doGet(fmt.Sprintf("/api/posts/mine/top?limit=%d", topLimit)))
		},
	}
	topCmd.Flags().IntVarP(&topLimit, "limit", "n", 3, "Number of posts to return")
	postsCmd.AddCommand(topCmd)

	rootCmd.AddCommand(postsCmd)
}

func printResult(data string, err error) error {
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(os.Stdout, data)
	return nil
}
