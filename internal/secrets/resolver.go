// Package secrets reads credentials from Google Secret Manager.
package secrets

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// Resolver returns the payload of a secret version.
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
	Close() error
}

type versionAccessor interface {
	access(ctx context.Context, resource string) ([]byte, error)
	Close() error
}

type clientAccessor struct {
	client *secretmanager.Client
}

func (c clientAccessor) access(ctx context.Context, resource string) ([]byte, error) {
	res, err := c.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: resource})
	if err != nil {
		return nil, err
	}
	return res.GetPayload().GetData(), nil
}

func (c clientAccessor) Close() error {
	return c.client.Close()
}

type secretManagerResolver struct {
	accessor  versionAccessor
	projectID string
}

// NewSecretManagerResolver connects to Secret Manager. credentialsFile may be
// empty to use application default credentials.
func NewSecretManagerResolver(ctx context.Context, projectID, credentialsFile string) (Resolver, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP project ID is required for Secret Manager")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &secretManagerResolver{accessor: clientAccessor{client: client}, projectID: projectID}, nil
}

// Resolve accepts a bare secret name, "name/versions/N", or a full resource path.
// Without a version the latest one is read.
func (r *secretManagerResolver) Resolve(ctx context.Context, name string) (string, error) {
	resource := r.resourceName(name)
	data, err := r.accessor.access(ctx, resource)
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", resource, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("secret %s is empty", resource)
	}
	return value, nil
}

func (r *secretManagerResolver) Close() error {
	return r.accessor.Close()
}

func (r *secretManagerResolver) resourceName(name string) string {
	name = strings.Trim(strings.TrimSpace(name), "/")
	if !strings.HasPrefix(name, "projects/") {
		name = fmt.Sprintf("projects/%s/secrets/%s", r.projectID, name)
	}
	if !strings.Contains(name, "/versions/") {
		name += "/versions/latest"
	}
	return name
}
