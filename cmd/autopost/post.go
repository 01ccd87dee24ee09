package main

import (
	"fmt"

	"github.com/nhankey2000/auto-post/internal/content"
	"github.com/nhankey2000/auto-post/internal/models"
	"github.com/nhankey2000/auto-post/internal/repository"
	"github.com/nhankey2000/auto-post/internal/service"
	"github.com/spf13/cobra"
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Create, publish and edit posts",
}

var (
	postAccount  uint
	postTitle    string
	postContent  string
	postHashtags []string
	postMedia    []string
	postStatus   string
	postLimit    int
	postTopic    string
	postTone     string
)

var postCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Store a draft post",
	RunE: func(cmd *cobra.Command, args []string) error {
		post := &models.Post{
			PlatformAccountID: postAccount,
			Title:             postTitle,
			Content:           postContent,
			Hashtags:          postHashtags,
			Media:             postMedia,
		}
		if err := app.Posts().Create(cmd.Context(), post); err != nil {
			return err
		}
		return printResult(post, func() {
			printSuccess("✓ Created draft #%d", post.ID)
		})
	},
}

var postGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Store a draft written by the content generator",
	RunE: func(cmd *cobra.Command, args []string) error {
		post, err := app.Posts().CreateFromPrompt(cmd.Context(), postAccount, content.Prompt{
			Topic:    postTopic,
			Tone:     postTone,
			Platform: "facebook",
		})
		if err != nil {
			return err
		}
		return printResult(post, func() {
			printSuccess("✓ Generated draft #%d: %s", post.ID, post.Title)
		})
	},
}

var postListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		posts, err := app.Posts().List(cmd.Context(), repository.PostFilter{
			AccountID: postAccount,
			Status:    models.PostStatus(postStatus),
			Limit:     postLimit,
		})
		if err != nil {
			return err
		}
		return printResult(posts, func() {
			rows := make([][]string, 0, len(posts))
			for _, p := range posts {
				rows = append(rows, []string{
					fmt.Sprint(p.ID), fmt.Sprint(p.PlatformAccountID), string(p.Status), p.Title, p.RemotePostID,
				})
			}
			printTable([]string{"ID", "ACCOUNT", "STATUS", "TITLE", "REMOTE ID"}, rows)
		})
	},
}

var postPublishCmd = &cobra.Command{
	Use:   "publish <id>...",
	Short: "Publish posts to their pages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		if len(ids) == 1 {
			post, err := app.Posts().Publish(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			return printResult(post, func() {
				printSuccess("✓ Published post #%d as %s", post.ID, post.RemotePostID)
				for _, extra := range post.ExtraRemoteIDs {
					printInfo("  also %s", extra)
				}
			})
		}
		return printBulk("Published", app.Posts().PublishAll(cmd.Context(), ids))
	},
}

var postUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit a post; live posts are changed on the page too",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		var in service.UpdateInput
		flags := cmd.Flags()
		if flags.Changed("title") {
			in.Title = &postTitle
		}
		if flags.Changed("content") {
			in.Content = &postContent
		}
		if flags.Changed("hashtags") {
			in.Hashtags = &postHashtags
		}
		if flags.Changed("media") {
			in.Media = &postMedia
		}

		post, err := app.Posts().Update(cmd.Context(), id, in)
		if err != nil {
			return err
		}
		return printResult(post, func() {
			printSuccess("✓ Updated post #%d (%s)", post.ID, post.Status)
		})
	},
}

var postDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Remove posts from their pages and keep them as drafts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		if len(ids) == 1 {
			if err := app.Posts().Delete(cmd.Context(), ids[0]); err != nil {
				return err
			}
			printSuccess("✓ Removed post #%d from its page", ids[0])
			return nil
		}
		return printBulk("Removed", app.Posts().DeleteAll(cmd.Context(), ids))
	},
}

func init() {
	for _, c := range []*cobra.Command{postCreateCmd, postGenerateCmd} {
		c.Flags().UintVar(&postAccount, "account", 0, "Account id")
		_ = c.MarkFlagRequired("account")
	}
	for _, c := range []*cobra.Command{postCreateCmd, postUpdateCmd} {
		c.Flags().StringVar(&postTitle, "title", "", "Title")
		c.Flags().StringVar(&postContent, "content", "", "Body text")
		c.Flags().StringSliceVar(&postHashtags, "hashtags", nil, "Hashtags, with or without '#'")
		c.Flags().StringSliceVar(&postMedia, "media", nil, "Image or video file paths")
	}

	postGenerateCmd.Flags().StringVar(&postTopic, "topic", "", "What the post is about")
	postGenerateCmd.Flags().StringVar(&postTone, "tone", "", "Writing tone")
	_ = postGenerateCmd.MarkFlagRequired("topic")

	postListCmd.Flags().UintVar(&postAccount, "account", 0, "Only posts of this account")
	postListCmd.Flags().StringVar(&postStatus, "status", "", "draft, published or failed")
	postListCmd.Flags().IntVar(&postLimit, "limit", 50, "Maximum rows")

	postCmd.AddCommand(postCreateCmd)
	postCmd.AddCommand(postGenerateCmd)
	postCmd.AddCommand(postListCmd)
	postCmd.AddCommand(postPublishCmd)
	postCmd.AddCommand(postUpdateCmd)
	postCmd.AddCommand(postDeleteCmd)
}
