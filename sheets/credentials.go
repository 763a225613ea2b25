package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/sheetsync/sheets-to-mysql/etl"
)

const (
	SHEETS = "https://www.googleapis.com/auth/spreadsheets.readonly"
	DRIVE  = "https://www.googleapis.com/auth/drive.metadata.readonly"
)

// Credentials returns the client options for a Google credentials JSON
// document. Service account and authorized user documents are used as is.
// Installed application (OAuth2 client) documents need the token file saved
// by the 'authorise' command.
func Credentials(ctx context.Context, credentials []byte, tokens string) ([]option.ClientOption, error) {
	var document struct {
		Type      string          `json:"type"`
		Installed json.RawMessage `json:"installed"`
		Web       json.RawMessage `json:"web"`
	}

	if err := json.Unmarshal(credentials, &document); err != nil {
		return nil, etl.Wrap(etl.Credential, err, "invalid Google credentials")
	}

	switch {
	case document.Type != "":
		creds, err := google.CredentialsFromJSON(ctx, credentials, SHEETS, DRIVE)
		if err != nil {
			return nil, etl.Wrap(etl.Credential, err, "invalid Google credentials")
		}

		return []option.ClientOption{option.WithCredentials(creds)}, nil

	case document.Installed != nil || document.Web != nil:
		config, err := google.ConfigFromJSON(credentials, SHEETS, DRIVE)
		if err != nil {
			return nil, etl.Wrap(etl.Credential, err, "invalid OAuth2 client credentials")
		}

		token, err := TokenFromFile(tokens)
		if err != nil {
			return nil, etl.Wrap(etl.Credential, err, fmt.Sprintf("no saved OAuth2 token in '%s' - run 'authorise' first", tokens))
		}

		return []option.ClientOption{option.WithTokenSource(config.TokenSource(ctx, token))}, nil

	default:
		return nil, etl.Errorf(etl.Credential, "unrecognised Google credentials - expected a service account or OAuth2 client JSON document")
	}
}

// Retrieves a token from a local file.
func TokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := oauth2.Token{}
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, err
	}

	return &token, nil
}

// Saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache OAuth2 token (%w)", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}
