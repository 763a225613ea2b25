package secrets

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/sheetsync/sheets-to-mysql/etl"
	"github.com/sheetsync/sheets-to-mysql/log"
)

type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWS reads secrets from AWS Secrets Manager. The secret value is the
// SecretString if set, otherwise the SecretBinary.
type AWS struct {
	client secretsManagerAPI
}

func NewAWS(ctx context.Context, region string) (*AWS, error) {
	options := []func(*awsconfig.LoadOptions) error{}
	if region = strings.TrimSpace(region); region != "" {
		options = append(options, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, etl.Wrap(etl.Credential, err, "unable to load AWS configuration")
	}

	return &AWS{
		client: secretsmanager.NewFromConfig(cfg),
	}, nil
}

func (s *AWS) Get(ctx context.Context, name string) ([]byte, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return nil, etl.Wrap(etl.Credential, err, "unable to retrieve secret '"+name+"'")
	}

	switch {
	case out.SecretString != nil:
		log.Debugf("secret %v  version:%v", name, aws.ToString(out.VersionId))
		return []byte(*out.SecretString), nil

	case len(out.SecretBinary) > 0:
		log.Debugf("secret %v  version:%v", name, aws.ToString(out.VersionId))
		return out.SecretBinary, nil

	default:
		return nil, etl.Errorf(etl.Credential, "empty secret '%s'", name)
	}
}
