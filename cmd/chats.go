package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NitinBot001/claude-interface/internal/log"
	"github.com/NitinBot001/claude-interface/internal/store"
	"github.com/NitinBot001/claude-interface/internal/tree"
)

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Inspect stored conversations",
}

var chatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all chats, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		chats, err := st.Chats(cmd.Context())
		if err != nil {
			return err
		}
		if len(chats) == 0 {
			cmd.Println("No chats.")
			return nil
		}
		for _, c := range chats {
			cmd.Printf("%s  %s  %s\n", c.ID, c.UpdatedAt.Local().Format("2006-01-02 15:04"), c.Title)
		}
		return nil
	},
}

var chatsShowCmd = &cobra.Command{
	Use:   "show <chat-id>",
	Short: "Print a chat's active conversation path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := cmd.Context()
		c, err := st.GetChat(ctx, args[0])
		if err != nil {
			return err
		}
		msgs, err := st.MessagesByChat(ctx, c.ID)
		if err != nil {
			return err
		}

		t := tree.Build(msgs, log.NewNop())
		path := t.ActivePath(tree.Selections{})

		cmd.Printf("%s\n%s\n\n", c.Title, strings.Repeat("=", len(c.Title)))
		for _, step := range path {
			version := ""
			if step.SiblingCount > 1 {
				version = fmt.Sprintf(" (version %d of %d)", step.SiblingIndex+1, step.SiblingCount)
			}
			cmd.Printf("You%s:\n%s\n\n", version, step.UserText)
			switch {
			case step.Pending():
				cmd.Println("Assistant: (no response)")
			default:
				cmd.Printf("Assistant:\n%s\n", step.Response)
			}
			cmd.Println()
		}
		return nil
	},
}

var chatsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search chats by title and message content",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		query := strings.Join(args, " ")
		results, err := st.SearchChats(cmd.Context(), query)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			cmd.Println("No matches.")
			return nil
		}
		for _, res := range results {
			note := "title"
			if res.MatchType == store.MatchContent {
				note = fmt.Sprintf("%d message(s)", res.MatchCount)
			}
			cmd.Printf("%s  %-10s  %s\n", res.Chat.ID, note, res.Chat.Title)
		}
		return nil
	},
}

var chatsDeleteCmd = &cobra.Command{
	Use:   "delete <chat-id>",
	Short: "Delete a chat and all of its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, _, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteChat(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	chatsCmd.AddCommand(chatsListCmd, chatsShowCmd, chatsSearchCmd, chatsDeleteCmd)
	rootCmd.AddCommand(chatsCmd)
}
