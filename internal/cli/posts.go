package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ogulcanaydogan/xcli/pkg/xapi"
	"github.com/spf13/cobra"
)

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Create, fetch and delete posts",
}

var postCreateCmd = &cobra.Command{
	Use:   "create <text>",
	Short: "Publish a post",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostCreate,
}

var postDeleteCmd = &cobra.Command{
	Use:   "delete <post-id>",
	Short: "Delete a post",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostDelete,
}

var postGetCmd = &cobra.Command{
	Use:   "get <post-id>",
	Short: "Fetch a post",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostGet,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search recent posts",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show your home timeline",
	Args:  cobra.NoArgs,
	RunE:  runTimeline,
}

var likeCmd = &cobra.Command{
	Use:   "like <post-id>",
	Short: "Like a post",
	Args:  cobra.ExactArgs(1),
	RunE:  runLike,
}

var unlikeCmd = &cobra.Command{
	Use:   "unlike <post-id>",
	Short: "Remove a like",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnlike,
}

var dmCmd = &cobra.Command{
	Use:   "dm",
	Short: "Direct messages",
}

var dmSendCmd = &cobra.Command{
	Use:   "send <user-id> <text>",
	Short: "Send a direct message",
	Args:  cobra.ExactArgs(2),
	RunE:  runDMSend,
}

const postFields = "created_at,author_id,public_metrics,conversation_id"

func init() {
	rootCmd.AddCommand(postCmd, searchCmd, timelineCmd, likeCmd, unlikeCmd, dmCmd)
	postCmd.AddCommand(postCreateCmd, postDeleteCmd, postGetCmd)
	dmCmd.AddCommand(dmSendCmd)

	postCreateCmd.Flags().String("reply-to", "", "Post id to reply to")
	postCreateCmd.Flags().String("quote", "", "Post id to quote")
	postCreateCmd.Flags().StringSlice("media", nil, "Media ids to attach (see 'xcli media upload')")

	searchCmd.Flags().IntP("max", "n", 10, "Maximum results (10-100)")
	searchCmd.Flags().String("next-token", "", "Pagination token from a previous page")

	timelineCmd.Flags().IntP("max", "n", 20, "Maximum results (1-100)")
	timelineCmd.Flags().String("next-token", "", "Pagination token from a previous page")
}

// call runs one operation through the accounting caller and prints the result.
func call(cmd *cobra.Command, req *xapi.Request) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.caller()
	if err != nil {
		return err
	}
	resp, err := c.Call(cmd.Context(), req)
	if err != nil {
		return err
	}
	return printResponse(cmd.OutOrStdout(), resp)
}

// withMe resolves the authenticated user's id, then runs build's request.
// Both calls are accounted.
func withMe(cmd *cobra.Command, build func(userID string) *xapi.Request) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.caller()
	if err != nil {
		return err
	}

	me, err := c.Call(cmd.Context(), xapi.NewRequest("users", "me"))
	if err != nil {
		return fmt.Errorf("resolve current user: %w", err)
	}
	id := me.Get("data.id").String()
	if id == "" {
		return fmt.Errorf("resolve current user: no id in response")
	}

	resp, err := c.Call(cmd.Context(), build(id))
	if err != nil {
		return err
	}
	return printResponse(cmd.OutOrStdout(), resp)
}

func runPostCreate(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(args[0])
	replyTo, _ := cmd.Flags().GetString("reply-to")
	quote, _ := cmd.Flags().GetString("quote")
	mediaIDs, _ := cmd.Flags().GetStringSlice("media")

	body := map[string]any{"text": text}
	if replyTo != "" {
		body["reply"] = map[string]string{"in_reply_to_tweet_id": replyTo}
	}
	if quote != "" {
		body["quote_tweet_id"] = quote
	}
	if len(mediaIDs) > 0 {
		body["media"] = map[string][]string{"media_ids": mediaIDs}
	}
	if text == "" && len(mediaIDs) == 0 {
		return fmt.Errorf("post text is empty")
	}

	req := xapi.NewRequest("posts", "create")
	req.Body = body
	return call(cmd, req)
}

func runPostDelete(cmd *cobra.Command, args []string) error {
	return call(cmd, xapi.NewRequest("posts", "delete").Param("id", args[0]))
}

func runPostGet(cmd *cobra.Command, args []string) error {
	req := xapi.NewRequest("posts", "get").
		Param("id", args[0]).
		Set("tweet.fields", postFields)
	return call(cmd, req)
}

func runSearch(cmd *cobra.Command, args []string) error {
	maxResults, _ := cmd.Flags().GetInt("max")
	next, _ := cmd.Flags().GetString("next-token")
	if maxResults < 10 || maxResults > 100 {
		return fmt.Errorf("--max must be between 10 and 100, got %d", maxResults)
	}

	req := xapi.NewRequest("posts", "search").
		Set("query", args[0]).
		Set("max_results", strconv.Itoa(maxResults)).
		Set("next_token", next).
		Set("tweet.fields", postFields)
	return call(cmd, req)
}

func runTimeline(cmd *cobra.Command, _ []string) error {
	maxResults, _ := cmd.Flags().GetInt("max")
	next, _ := cmd.Flags().GetString("next-token")
	if maxResults < 1 || maxResults > 100 {
		return fmt.Errorf("--max must be between 1 and 100, got %d", maxResults)
	}

	return withMe(cmd, func(userID string) *xapi.Request {
		return xapi.NewRequest("posts", "timeline").
			Param("id", userID).
			Set("max_results", strconv.Itoa(maxResults)).
			Set("pagination_token", next).
			Set("tweet.fields", postFields)
	})
}

func runLike(cmd *cobra.Command, args []string) error {
	return withMe(cmd, func(userID string) *xapi.Request {
		req := xapi.NewRequest("likes", "create").Param("id", userID)
		req.Body = map[string]string{"tweet_id": args[0]}
		return req
	})
}

func runUnlike(cmd *cobra.Command, args []string) error {
	return withMe(cmd, func(userID string) *xapi.Request {
		return xapi.NewRequest("likes", "delete").
			Param("id", userID).
			Param("tweet_id", args[0])
	})
}

func runDMSend(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(args[1])
	if text == "" {
		return fmt.Errorf("message text is empty")
	}
	req := xapi.NewRequest("dms", "send").Param("participant_id", args[0])
	req.Body = map[string]string{"text": text}
	return call(cmd, req)
}
