package mainconfig

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	appconfig "github.com/wolfman30/contact-relay/internal/config"
)

// LoadAWSConfig centralizes AWS SDK initialization so the SES sender works
// against LocalStack as well as production.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	return config.LoadDefaultConfig(ctx, loaders...)
}

// NewSESClient builds an SES v2 client, honoring AWS_ENDPOINT_OVERRIDE.
func NewSESClient(awsCfg aws.Config, cfg *appconfig.Config) *sesv2.Client {
	return sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		if endpoint := strings.TrimSpace(cfg.AWSEndpointOverride); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}
