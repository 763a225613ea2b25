// Package secrets resolves named credentials. A Store either returns the
// secret value or fails with an etl.Credential error.
package secrets

import (
	"context"
	"fmt"
	"strings"
)

type Store interface {
	Get(ctx context.Context, name string) ([]byte, error)
}

const (
	ProviderAWS  = "aws"
	ProviderEnv  = "env"
	ProviderFile = "file"
)

// Options holds the provider specific settings from the job file.
type Options struct {
	Provider string
	Region   string
	Dir      string
	EnvFiles []string
}

func NewStore(ctx context.Context, options Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(options.Provider)) {
	case ProviderAWS:
		return NewAWS(ctx, options.Region)

	case ProviderEnv, "":
		return NewEnv(options.EnvFiles...)

	case ProviderFile:
		return NewFile(options.Dir)

	default:
		return nil, fmt.Errorf("unknown secrets provider '%s'", options.Provider)
	}
}
