package commands

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/sheetsync/sheets-to-mysql/log"
	"github.com/sheetsync/sheets-to-mysql/sheets"
)

var AuthoriseCmd = Authorise{
	command: command{
		config:  DEFAULT_CONFIG,
		workdir: DEFAULT_WORKDIR,
	},

	credentials: "",
	tokens:      "",
	in:          os.Stdin,
	out:         os.Stdout,
}

// Authorise runs the OAuth2 console flow for installed application
// credentials and saves the token for 'run' and 'get'. Service account
// credentials do not need it.
type Authorise struct {
	command
	credentials string
	tokens      string
	in          io.Reader
	out         io.Writer
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises sheets-to-mysql to read the spreadsheet using OAuth2 client credentials"
}

func (cmd *Authorise) Usage() string {
	return "--config <file> | --credentials <file> --tokens <file>"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] authorise [options] --config <file>\n", APP)
	fmt.Println()
	fmt.Println("  Prints the Google authorisation URL, reads the authorisation code from the console and")
	fmt.Println("  saves the OAuth2 token used to access the spreadsheet. The credentials are read from")
	fmt.Println("  the job's source credentials secret unless --credentials is given.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Printf("    %s authorise --config sales.toml\n", APP)
	fmt.Printf("    %s authorise --credentials credentials.json --tokens .google/credentials.tokens\n", APP)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	flagset := flag.NewFlagSet("authorise", flag.ExitOnError)

	flagset.StringVar(&cmd.config, "config", cmd.config, "Job file (TOML)")
	flagset.StringVar(&cmd.workdir, "workdir", cmd.workdir, "Directory for working files (OAuth2 tokens)")
	flagset.StringVar(&cmd.credentials, "credentials", cmd.credentials, "OAuth2 client 'credentials.json' file")
	flagset.StringVar(&cmd.tokens, "tokens", cmd.tokens, "OAuth2 token file")

	return flagset
}

func (cmd *Authorise) Execute(ctx context.Context, options *Options) error {
	log.SetDebug(options.Debug)

	credentials, tokens, err := cmd.resolve(ctx)
	if err != nil {
		return err
	}

	config, err := google.ConfigFromJSON(credentials, sheets.SHEETS, sheets.DRIVE)
	if err != nil {
		return fmt.Errorf("invalid OAuth2 client credentials (%v)", err)
	}

	token, err := authorise(ctx, config, cmd.in, cmd.out)
	if err != nil {
		return fmt.Errorf("authorisation error (%v)", err)
	}

	if err := os.MkdirAll(filepath.Dir(tokens), 0700); err != nil {
		return err
	}

	if err := sheets.SaveToken(tokens, token); err != nil {
		return err
	}

	log.Infof("saved OAuth2 token to %s", tokens)

	return nil
}

func (cmd *Authorise) resolve(ctx context.Context) ([]byte, string, error) {
	if cmd.credentials != "" {
		if cmd.tokens == "" {
			return nil, "", fmt.Errorf("--tokens is a required option with --credentials")
		}

		b, err := os.ReadFile(cmd.credentials)
		if err != nil {
			return nil, "", err
		}

		return b, cmd.tokens, nil
	}

	cfg, err := cmd.load()
	if err != nil {
		return nil, "", err
	}

	store, err := cmd.secrets(ctx, cfg)
	if err != nil {
		return nil, "", err
	}

	credentials, err := store.Get(ctx, cfg.Source.Credentials)
	if err != nil {
		return nil, "", err
	}

	tokens := cmd.tokens
	if tokens == "" {
		tokens = cmd.command.tokens(cfg)
	}

	return credentials, tokens, nil
}

// authorise prints the authorisation URL and exchanges the code typed in by
// the user for a token.
func authorise(ctx context.Context, config *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	url := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)

	fmt.Fprintf(out, "Go to the following link in your browser then type the authorization code:\n%v\n\n", url)

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("unable to read authorization code (%v)", err)
		}

		return nil, fmt.Errorf("no authorization code")
	}

	code := strings.TrimSpace(scanner.Text())
	if code == "" {
		return nil, fmt.Errorf("no authorization code")
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web (%v)", err)
	}

	return token, nil
}
