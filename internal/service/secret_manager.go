package service

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretManagerService resolves provider credentials (PayPal client secret,
// AI provider key) from Secret Manager in deployments where they are not
// passed through the environment.
type SecretManagerService interface {
	GetCredential(ctx context.Context, name string) (string, error)
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

// NewSecretManagerService creates a SecretManagerService for the project.
func NewSecretManagerService(ctx context.Context, projectID string) (SecretManagerService, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP project ID is not set")
	}

	var opts []option.ClientOption
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &secretManagerService{
		client:    client,
		projectID: projectID,
	}, nil
}

// GetCredential reads the latest version of the named secret.
func (s *secretManagerService) GetCredential(ctx context.Context, name string) (string, error) {
	resourceName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.projectID, name)

	result, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: resourceName,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}

	return string(result.Payload.Data), nil
}
