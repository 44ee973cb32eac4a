package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/shelfswap/internal/store"
)

// StoreDump is the JSON form of the store dump command.
type StoreDump struct {
	SnapshotVersion string      `json:"snapshot_version"`
	Entries         []EntryView `json:"entries"`
}

// EntryView is one stored entry.
type EntryView struct {
	Key       string          `json:"key"`
	UpdatedAt string          `json:"updated_at"`
	Size      int             `json:"size"`
	Value     json.RawMessage `json:"value,omitempty"`
}

// NewStoreCommand creates the store command group.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect the database",
	}

	cmd.AddCommand(newStoreDumpCommand(rootOpts))
	return cmd
}

func newStoreDumpCommand(rootOpts *RootOptions) *cobra.Command {
	var withValues bool

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "List the stored entries",
		Long: `List the named entries of the saved snapshot (users, books,
messages and session) without starting the engine.

Example:
  shelfswap store dump --db ./shelfswap.db --values --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStoreDump(rootOpts, withValues, cmd)
		},
	}

	cmd.Flags().BoolVar(&withValues, "values", false, "include entry values")
	return cmd
}

func runStoreDump(opts *RootOptions, withValues bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	formatter.VerboseLog("Opening database %s", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	version, err := st.SnapshotVersion(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read snapshot version", err)
	}

	entries, err := st.Entries(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read entries", err)
	}

	dump := StoreDump{SnapshotVersion: version, Entries: make([]EntryView, 0, len(entries))}
	for _, e := range entries {
		view := EntryView{Key: e.Key, UpdatedAt: e.UpdatedAt, Size: len(e.Value)}
		if withValues {
			view.Value = redactSecrets(json.RawMessage(e.Value))
		}
		dump.Entries = append(dump.Entries, view)
	}

	if formatter.Format == "json" {
		return formatter.Success(dump)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "snapshot version %s\n", version)
	if len(dump.Entries) == 0 {
		fmt.Fprintln(w, "No entries.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tUPDATED\tBYTES")
	for _, e := range dump.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", e.Key, e.UpdatedAt, e.Size)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if withValues {
		for _, e := range dump.Entries {
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, e.Value, "", "  "); err != nil {
				pretty.Reset()
				pretty.Write(e.Value)
			}
			fmt.Fprintf(w, "\n%s:\n%s\n", e.Key, pretty.String())
		}
	}
	return nil
}

// redactSecrets replaces every "secret" field in a stored JSON value.
// Values that are not valid JSON are returned unchanged.
func redactSecrets(raw json.RawMessage) json.RawMessage {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}
	out, err := json.Marshal(redact(v))
	if err != nil {
		return raw
	}
	return out
}

func redact(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if k == "secret" {
				if s, ok := val.(string); ok && s != "" {
					t[k] = masked
				}
				continue
			}
			t[k] = redact(val)
		}
	case []any:
		for i := range t {
			t[i] = redact(t[i])
		}
	}
	return v
}
