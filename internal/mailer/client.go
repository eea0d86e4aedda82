package mailer

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/leslieo2/tioga-health/internal/config"
	"github.com/leslieo2/tioga-health/internal/constants"
)

// SESClient is the subset of the SES v2 API the mailer uses
type SESClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// NewSESClient builds an SES client for cfg.Region. Static keys from the
// environment take precedence over the default credential chain.
func NewSESClient(ctx context.Context, cfg config.MailConfig) (*sesv2.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	}

	accessKey := os.Getenv(constants.EnvAWSAccessKeyID)
	secretKey := os.Getenv(constants.EnvAWSSecretKey)
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return sesv2.NewFromConfig(awsCfg), nil
}
