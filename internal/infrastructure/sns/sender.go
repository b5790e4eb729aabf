package sns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/smithy-go"
	"github.com/go-notification-dispatch/internal/config"
	"github.com/go-notification-dispatch/internal/domain"
)

type publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Sender publishes push messages to SNS platform endpoints. The push address
// is the endpoint ARN.
type Sender struct {
	client publisher
}

func NewSender(ctx context.Context, cfg *config.Config) (*Sender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %v: %w", err, domain.ErrProviderUnavailable)
	}
	var opts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		opts = append(opts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return &Sender{client: sns.NewFromConfig(awsCfg, opts...)}, nil
}

func (s *Sender) Send(ctx context.Context, address, title, body string) (string, error) {
	msg, err := buildMessage(title, body)
	if err != nil {
		return "", err
	}
	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(address),
		Message:          aws.String(msg),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		return "", mapError(err)
	}
	return aws.ToString(out.MessageId), nil
}

// buildMessage renders the per-platform JSON envelope SNS expects when
// MessageStructure is "json".
func buildMessage(title, body string) (string, error) {
	gcm, err := json.Marshal(map[string]any{
		"notification": map[string]string{"title": title, "body": body},
	})
	if err != nil {
		return "", err
	}
	apns, err := json.Marshal(map[string]any{
		"aps": map[string]any{"alert": map[string]string{"title": title, "body": body}},
	})
	if err != nil {
		return "", err
	}
	envelope, err := json.Marshal(map[string]string{
		"default":      body,
		"GCM":          string(gcm),
		"APNS":         string(apns),
		"APNS_SANDBOX": string(apns),
	})
	return string(envelope), err
}

func mapError(err error) error {
	var (
		disabled    *types.EndpointDisabledException
		invalid     *types.InvalidParameterException
		notFound    *types.NotFoundException
		authz       *types.AuthorizationErrorException
		appDisabled *types.PlatformApplicationDisabledException
	)
	switch {
	case errors.As(err, &disabled):
		return fmt.Errorf("%v: %w", err, domain.ErrUnregistered)
	case errors.As(err, &invalid), errors.As(err, &notFound):
		return fmt.Errorf("%v: %w", err, domain.ErrInvalidAddress)
	case errors.As(err, &authz), errors.As(err, &appDisabled):
		return fmt.Errorf("%v: %w", err, domain.ErrProviderAuth)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "InvalidClientTokenId" {
		return fmt.Errorf("%v: %w", err, domain.ErrProviderAuth)
	}
	return err
}
