package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/shelfswap/internal/domain"
	"github.com/roach88/shelfswap/internal/engine"
)

// NewMessageCommand creates the message command group.
func NewMessageCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "message",
		Aliases: []string{"msg"},
		Short:   "Send, read and accept messages",
	}

	cmd.AddCommand(newMessageSendCommand(rootOpts))
	cmd.AddCommand(newMessageAcceptCommand(rootOpts))
	cmd.AddCommand(newMessageReadCommand(rootOpts))
	cmd.AddCommand(newMessageThreadCommand(rootOpts))
	cmd.AddCommand(newMessageUnreadCommand(rootOpts))

	return cmd
}

func newMessageSendCommand(rootOpts *RootOptions) *cobra.Command {
	var isRequest bool

	cmd := &cobra.Command{
		Use:   "send <receiver-id> <book-id> <content>",
		Short: "Message another user about a listing",
		Long: `Send a message about a listing. With --request the message asks the
receiver for the book; the receiver can accept it with "message accept".

Example:
  shelfswap message send seed-owner 0192f0c1-... "Could I borrow this?" --request`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
				m, err := app.Engine.SendMessage(args[0], args[1], args[2], isRequest)
				if err != nil {
					return f.EngineError(err)
				}
				if f.Format == "json" {
					return f.Success(m)
				}
				kind := "Message"
				if m.IsRequest {
					kind = "Request"
				}
				fmt.Fprintf(f.Writer, "✓ %s sent about %q (id %s)\n", kind, m.BookTitle, m.ID)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&isRequest, "request", false, "send as a request for the book")
	return cmd
}

func newMessageAcceptCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accept <message-id>",
		Short: "Accept a request you received",
		Long: `Accept a request. The listing becomes unavailable and the requester
gets a reply with the listing's contact details.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
				reply, err := app.Engine.AcceptRequest(args[0])
				if err != nil {
					return f.EngineError(err)
				}
				if f.Format == "json" {
					return f.Success(reply)
				}
				fmt.Fprintf(f.Writer, "✓ Accepted; %q is now unavailable\n", reply.BookTitle)
				fmt.Fprintf(f.Writer, "  reply: %s\n", reply.Content)
				return nil
			})
		},
	}
}

func newMessageReadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "read <message-id>",
		Short:         "Mark a message you received as read",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
				if err := app.Engine.MarkAsRead(args[0]); err != nil {
					return f.EngineError(err)
				}
				return outputUnread(f, app.Engine.UnreadCount())
			})
		},
	}
}

func newMessageThreadCommand(rootOpts *RootOptions) *cobra.Command {
	var markRead bool

	cmd := &cobra.Command{
		Use:           "thread <partner-id>",
		Short:         "Show your messages with one user, oldest first",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
				me, ok := app.Engine.CurrentUser()
				if !ok {
					return f.EngineError(engine.ErrUnauthenticated)
				}

				thread := app.Engine.Thread(args[0])
				if markRead {
					for _, m := range thread {
						if m.ReceiverID == me.ID && !m.IsRead {
							if err := app.Engine.MarkAsRead(m.ID); err != nil {
								return f.EngineError(err)
							}
						}
					}
				}

				if f.Format == "json" {
					return f.Success(thread)
				}
				if len(thread) == 0 {
					fmt.Fprintln(f.Writer, "No messages.")
					return nil
				}
				for _, m := range thread {
					fmt.Fprintln(f.Writer, formatMessage(m, me.ID))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&markRead, "mark-read", false, "mark received messages as read")
	return cmd
}

func newMessageUnreadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "unread",
		Short:         "Count unread messages",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
				return outputUnread(f, app.Engine.UnreadCount())
			})
		},
	}
}

// NewInboxCommand creates the inbox command.
func NewInboxCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "Show conversations, most recent first",
		Long: `Show one line per conversation partner with the latest message and
the number of unread messages from them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
				if _, ok := app.Engine.CurrentUser(); !ok {
					return f.EngineError(engine.ErrUnauthenticated)
				}
				convs := app.Engine.Conversations()
				if f.Format == "json" {
					return f.Success(convs)
				}
				if len(convs) == 0 {
					fmt.Fprintln(f.Writer, "No conversations.")
					return nil
				}
				tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "PARTNER\tNAME\tBOOK\tLAST MESSAGE\tAT\tUNREAD")
				for _, c := range convs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
						c.PartnerID, c.PartnerName, c.BookTitle, truncate(c.LastMessage, 40),
						c.LastMessageAt.Format(timeLayout), c.UnreadCount)
				}
				return tw.Flush()
			})
		},
	}
}

func outputUnread(f *OutputFormatter, n int) error {
	if f.Format == "json" {
		return f.Success(map[string]int{"unread": n})
	}
	fmt.Fprintf(f.Writer, "%d unread\n", n)
	return nil
}

// formatMessage renders one thread line from the point of view of me.
func formatMessage(m domain.Message, me string) string {
	from := m.SenderName
	if m.SenderID == me {
		from = "you"
	}
	line := fmt.Sprintf("[%s] %s: %s", m.CreatedAt.Format(timeLayout), from, m.Content)
	if m.IsRequest {
		line += fmt.Sprintf(" (request %s)", m.ID)
	}
	if m.ReceiverID == me && !m.IsRead {
		line += " *"
	}
	return line
}
