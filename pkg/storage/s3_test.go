package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresignUpload(t *testing.T) {
	client := s3.NewFromConfig(aws.Config{
		Region: "eu-west-1",
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: "AKIDTEST", SecretAccessKey: "secret"}, nil
		}),
	})
	u := NewS3UploaderFromClient(client, "eu-west-1", "friendsbook-media")

	up, err := u.PresignUpload(context.Background(), "profiles", "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(up.Key, "profiles/"))
	assert.True(t, strings.HasSuffix(up.Key, ".png"))
	assert.Equal(t, "https://friendsbook-media.s3.eu-west-1.amazonaws.com/"+up.Key, up.FileURL)

	parsed, err := url.Parse(up.UploadURL)
	require.NoError(t, err)
	assert.Contains(t, parsed.Path, up.Key)
	assert.NotEmpty(t, parsed.Query().Get("X-Amz-Signature"))
}
