package main

import (
	"errors"
	"fmt"
	"strconv"

	"card-collection/collection/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	server     string
	token      string
	configPath string
	noColor    bool
	asJSON     bool
}

// client resolve servidor e token: flag > arquivo de configuração > padrão.
func (o *rootOptions) client() (*client.Client, error) {
	cfg, err := loadFileConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	server := o.server
	if server == "" {
		server = cfg.Server
	}
	token := o.token
	if token == "" {
		token = cfg.Token
	}
	return client.New(server, client.WithToken(token)), nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "cardctl",
		Short: "Look up Magic cards and manage your collection",
		Long: `cardctl talks to the card collection gateway.

Server and token come from --server/--token, or from
$XDG_CONFIG_HOME/cardctl/config.toml:

  server = "http://localhost:3000"
  token  = "<jwt>"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.server, "server", "", "gateway base URL (default "+client.DefaultServer+")")
	pf.StringVar(&opts.token, "token", "", "bearer token sent to the gateway")
	pf.StringVar(&opts.configPath, "config", defaultConfigPath(), "config file")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	pf.BoolVar(&opts.asJSON, "json", false, "print raw JSON")

	root.AddCommand(
		newLookupCmd(opts),
		newBatchCmd(opts),
		newListCmd(opts),
		newAddCmd(opts),
		newRemoveCmd(opts),
		newClearCmd(opts),
	)
	return root
}

func newLookupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "lookup <card name>",
		Short:   "Look up a card by exact name",
		Example: `  cardctl lookup "Black Lotus"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			card, err := c.Card(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printCard(cmd.OutOrStdout(), card, opts.asJSON)
			return nil
		},
	}
}

func newBatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <name>...",
		Short: "Fuzzy-look up several cards without saving them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			res, err := c.Batch(cmd.Context(), args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.asJSON {
				printJSON(out, res)
				return nil
			}
			for _, card := range res.Results {
				printCard(out, card, false)
			}
			printNames(out, errColor, "not found", res.Errors)
			return nil
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the cards in your collection",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			cards, err := c.Collection(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.asJSON {
				printJSON(out, cards)
				return nil
			}
			for _, card := range cards {
				fmt.Fprintln(out, card.Name)
			}
			dimColor.Fprintln(out, strconv.Itoa(len(cards))+" card(s)")
			return nil
		},
	}
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>...",
		Short: "Add cards to your collection (fuzzy names are resolved)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			res, err := c.Add(cmd.Context(), args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.asJSON {
				printJSON(out, res)
				return nil
			}
			printNames(out, okColor, "added", res.Added)
			printNames(out, warnColor, "skipped", res.Skipped)
			printNames(out, errColor, "not found", res.Errors)
			fmt.Fprintf(out, "total in collection: %d\n", res.TotalInCollection)
			return nil
		},
	}
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <card name>",
		Aliases: []string{"remove"},
		Short:   "Remove a card from your collection",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			total, err := c.Remove(cmd.Context(), args[0])
			if client.IsNotFound(err) {
				return errors.New("card not found in collection: " + args[0])
			}
			if err != nil {
				return err
			}
			okColor.Fprintf(cmd.OutOrStdout(), "removed %s (%d left)\n", args[0], total)
			return nil
		},
	}
}

func newClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every card from your collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			if err := c.Clear(cmd.Context()); err != nil {
				return err
			}
			okColor.Fprintln(cmd.OutOrStdout(), "collection cleared")
			return nil
		},
	}
}
