package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/shelfswap/internal/domain"
	"github.com/roach88/shelfswap/internal/engine"
)

// timeLayout is how the CLI prints timestamps in text output.
const timeLayout = "2006-01-02 15:04"

// NewListingCommand creates the listing command group.
func NewListingCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "listing",
		Aliases: []string{"listings"},
		Short:   "Manage book listings",
	}

	cmd.AddCommand(newListingAddCommand(rootOpts))
	cmd.AddCommand(newListingToggleCommand(rootOpts))
	cmd.AddCommand(newListingDeleteCommand(rootOpts))
	cmd.AddCommand(newListingListCommand(rootOpts))
	cmd.AddCommand(newListingMineCommand(rootOpts))
	cmd.AddCommand(newListingShowCommand(rootOpts))

	return cmd
}

// ListingAddOptions holds flags for the listing add command.
type ListingAddOptions struct {
	*RootOptions
	Title     string
	Author    string
	Genre     string
	Location  string
	Contact   string
	CoverURL  string
	CoverFile string
}

func newListingAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListingAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "List a book you own",
		Long: `List a book as the signed-in owner. New listings are available.

A cover can be given as a URL (stored as is) or as an image file, which is
stored through the configured cover backend. If the file cannot be stored
the listing is still created without a cover and a warning is printed.

Examples:
  shelfswap listing add --title Dune --author "Frank Herbert" --contact olivia@example.com
  shelfswap listing add --title Emma --cover-file ./emma.jpg`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListingAdd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "book title (required)")
	cmd.Flags().StringVar(&opts.Author, "author", "", "author")
	cmd.Flags().StringVar(&opts.Genre, "genre", "", "genre")
	cmd.Flags().StringVar(&opts.Location, "location", "", "where the book can be picked up")
	cmd.Flags().StringVar(&opts.Contact, "contact", "", "how requesters reach you")
	cmd.Flags().StringVar(&opts.CoverURL, "cover-url", "", "cover image URL")
	cmd.Flags().StringVar(&opts.CoverFile, "cover-file", "", "cover image file to upload")
	_ = cmd.MarkFlagRequired("title")
	cmd.MarkFlagsMutuallyExclusive("cover-url", "cover-file")

	return cmd
}

func runListingAdd(opts *ListingAddOptions, cmd *cobra.Command) error {
	in := engine.NewListing{
		Title:    opts.Title,
		Author:   opts.Author,
		Genre:    opts.Genre,
		Location: opts.Location,
		Contact:  opts.Contact,
		CoverURL: opts.CoverURL,
	}
	if opts.CoverFile != "" {
		data, err := os.ReadFile(opts.CoverFile)
		if err != nil {
			_ = newFormatter(opts.RootOptions, cmd).Error(ErrCodeInput, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read cover file", err)
		}
		in.CoverData = data
	}

	return withApp(opts.RootOptions, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
		book, err := app.Engine.AddListing(ctx, in)
		if engine.IsCoverFailure(err) {
			return f.SuccessWithWarning(bookView(book), string(engine.CodeCoverUploadFailed), err.Error())
		}
		if err != nil {
			return f.EngineError(err)
		}
		if f.Format == "json" {
			return f.Success(book)
		}
		fmt.Fprintf(f.Writer, "✓ Listed %q (id %s)\n", book.Title, book.ID)
		return nil
	})
}

func newListingToggleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <book-id>",
		Short: "Flip a listing between available and unavailable",
		Long: `Flip the availability of one of your listings. Listings you do not
own, and ids that do not exist, are ignored.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
				if err := app.Engine.ToggleAvailability(args[0]); err != nil {
					return f.EngineError(err)
				}
				book, ok := app.Engine.Book(args[0])
				if f.Format == "json" {
					if !ok {
						return f.Success(nil)
					}
					return f.Success(book)
				}
				if ok {
					fmt.Fprintf(f.Writer, "%q is now %s\n", book.Title, availability(book.Available))
				}
				return nil
			})
		},
	}
}

func newListingDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <book-id>",
		Aliases:       []string{"rm"},
		Short:         "Delete one of your listings",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
				if err := app.Engine.DeleteListing(args[0]); err != nil {
					return f.EngineError(err)
				}
				if f.Format == "json" {
					return f.Success(map[string]string{"deleted": args[0]})
				}
				fmt.Fprintf(f.Writer, "✓ Deleted listing %s\n", args[0])
				return nil
			})
		},
	}
}

func newListingListCommand(rootOpts *RootOptions) *cobra.Command {
	var availableOnly bool

	cmd := &cobra.Command{
		Use:           "ls",
		Aliases:       []string{"list"},
		Short:         "Show every listing",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
				books := app.Engine.Books()
				if availableOnly {
					books = filterAvailable(books)
				}
				return outputBooks(f, books)
			})
		},
	}

	cmd.Flags().BoolVar(&availableOnly, "available", false, "only show available listings")
	return cmd
}

func newListingMineCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "mine",
		Short:         "Show your listings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
				books, err := app.Engine.MyListings()
				if err != nil {
					return f.EngineError(err)
				}
				return outputBooks(f, books)
			})
		},
	}
}

func newListingShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <book-id>",
		Short:         "Show one listing",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
				book, ok := app.Engine.Book(args[0])
				if !ok {
					return f.EngineError(engine.ErrBookNotFound)
				}
				if f.Format == "json" {
					return f.Success(book)
				}
				fmt.Fprintln(f.Writer, bookView(book))
				return nil
			})
		},
	}
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	var availableOnly bool

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search listings",
		Long: `Search listings by title, author, genre or location, ignoring case.
Without a query every listing is shown. No sign-in is needed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
				books := app.Engine.Search(query)
				if availableOnly {
					books = filterAvailable(books)
				}
				return outputBooks(f, books)
			})
		},
	}

	cmd.Flags().BoolVar(&availableOnly, "available", false, "only show available listings")
	return cmd
}

func filterAvailable(books []domain.Book) []domain.Book {
	out := []domain.Book{}
	for _, b := range books {
		if b.Available {
			out = append(out, b)
		}
	}
	return out
}

func availability(available bool) string {
	if available {
		return "available"
	}
	return "unavailable"
}

// bookView renders a listing as a multi-line block for text output.
type bookView domain.Book

func (b bookView) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (id %s)\n", b.Title, b.ID)
	if b.Author != "" {
		fmt.Fprintf(&sb, "  author:   %s\n", b.Author)
	}
	if b.Genre != "" {
		fmt.Fprintf(&sb, "  genre:    %s\n", b.Genre)
	}
	if b.Location != "" {
		fmt.Fprintf(&sb, "  location: %s\n", b.Location)
	}
	if b.Contact != "" {
		fmt.Fprintf(&sb, "  contact:  %s\n", b.Contact)
	}
	fmt.Fprintf(&sb, "  owner:    %s\n", b.OwnerName)
	fmt.Fprintf(&sb, "  status:   %s\n", availability(b.Available))
	if b.Cover != "" {
		fmt.Fprintf(&sb, "  cover:    %s\n", truncate(b.Cover, 60))
	}
	fmt.Fprintf(&sb, "  listed:   %s", b.CreatedAt.Format(timeLayout))
	return sb.String()
}

// outputBooks prints listings as a JSON array or a table.
func outputBooks(f *OutputFormatter, books []domain.Book) error {
	if f.Format == "json" {
		return f.Success(books)
	}
	if len(books) == 0 {
		fmt.Fprintln(f.Writer, "No listings.")
		return nil
	}
	return writeBookTable(f.Writer, books)
}

func writeBookTable(w io.Writer, books []domain.Book) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tLOCATION\tOWNER\tSTATUS")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.ID, b.Title, b.Author, b.Location, b.OwnerName, availability(b.Available))
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
