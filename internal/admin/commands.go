package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/sheetkeeper/internal/cryptox"
	"github.com/dmitrijs2005/sheetkeeper/internal/logging"
	"github.com/dmitrijs2005/sheetkeeper/internal/objectstore"
	"github.com/dmitrijs2005/sheetkeeper/internal/server"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Deps are the pieces of the environment the commands reach for. Zero
// fields fall back to the real implementations.
type Deps struct {
	LoadConfig     func(args []string) (*config.Config, error)
	OpenStore      func(ctx context.Context, c *config.Config) (objectstore.Store, error)
	ReadPassphrase func(w io.Writer) (string, error)
}

func (d *Deps) fill() {
	if d.LoadConfig == nil {
		d.LoadConfig = config.Load
	}
	if d.OpenStore == nil {
		d.OpenStore = server.OpenStore
	}
	if d.ReadPassphrase == nil {
		d.ReadPassphrase = ReadNewPassphrase
	}
}

type session struct {
	deps       Deps
	configPath string
	verbose    bool

	cfg   *config.Config
	store objectstore.Store
	log   logging.Logger
}

// NewRootCmd builds the sheetctl command tree.
func NewRootCmd(d Deps) *cobra.Command {
	d.fill()
	s := &session{deps: d}

	root := &cobra.Command{
		Use:   "sheetctl",
		Short: "Maintenance commands for the SheetKeeper record store",
		Long: `sheetctl operates directly on the bucket the server uses.

It reads the same configuration as the server: an optional JSON file,
then environment variables such as ENCRYPTION_KEY and S3_BUCKET_NAME.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: s.open,
	}
	root.PersistentFlags().StringVarP(&s.configPath, "config", "c", "", "path to a JSON config file")
	root.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false, "log every step to stderr")

	root.AddCommand(s.rebuildCmd(), s.listCmd(), s.rotateCmd())
	return root
}

func (s *session) open(cmd *cobra.Command, _ []string) error {
	var args []string
	if s.configPath != "" {
		args = []string{"-c", s.configPath}
	}

	cfg, err := s.deps.LoadConfig(args)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	level := "warn"
	if s.verbose {
		level = "debug"
	}
	s.log = logging.NewJSON(cmd.ErrOrStderr(), level)

	store, err := s.deps.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	s.cfg = cfg
	s.store = store
	return nil
}

func (s *session) rebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the summary index from every stored record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := server.NewServices(s.store, s.cfg, s.log)
			list, err := svc.Index.Rebuild(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Index rebuilt with %d records\n", color.GreenString("✓"), len(list))
			return nil
		},
	}
}

func (s *session) listCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the summary index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := server.NewServices(s.store, s.cfg, s.log)
			list, err := svc.Index.ListAll(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCHARACTER\tPLAYER\tUPDATED")
			for _, e := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.CharacterName, e.PlayerName, e.UpdatedAt)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the index as JSON")
	return cmd
}

func (s *session) rotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate-key",
		Short: "Re-encrypt every record under a new passphrase",
		Long: `Prompts for a new passphrase, re-encrypts every record readable under the
configured ENCRYPTION_KEY and rebuilds the index.

Records already readable under the new passphrase are left as they are, so
an interrupted rotation can be run again. Update ENCRYPTION_KEY before the
server is restarted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			next, err := s.deps.ReadPassphrase(out)
			if err != nil {
				return err
			}
			if next == s.cfg.EncryptionKey {
				return errors.New("new passphrase is the same as the current one")
			}

			res, err := RotateKey(ctx, s.store, cryptox.NewCipher(s.cfg.EncryptionKey), cryptox.NewCipher(next), s.cfg.Namespace, s.log)
			if err != nil {
				return err
			}

			rotated := *s.cfg
			rotated.EncryptionKey = next
			list, err := server.NewServices(s.store, &rotated, s.log).Index.Rebuild(ctx)
			if err != nil {
				return fmt.Errorf("records rotated but index rebuild failed: %w", err)
			}

			fmt.Fprintf(out, "%s Re-encrypted %d records (%d already current), index holds %d\n",
				color.GreenString("✓"), res.Rotated, res.Current, len(list))
			for _, key := range res.Skipped {
				fmt.Fprintf(out, "%s Skipped unreadable object %s\n", color.YellowString("!"), key)
			}
			fmt.Fprintf(out, "%s Set %s to the new passphrase before restarting the server\n",
				color.CyanString("→"), color.YellowString("ENCRYPTION_KEY"))
			return nil
		},
	}
}
