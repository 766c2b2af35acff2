package repository

import (
	"context"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/amankumarsingh77/media-resolver/internal/download"
	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/pkg/utils"
)

type awsRepository struct {
	client        *s3.Client
	preSignClient *s3.PresignClient
}

func NewAwsRepository(awsClient *s3.Client, preSignClient *s3.PresignClient) download.AWSRepository {
	return &awsRepository{
		client:        awsClient,
		preSignClient: preSignClient,
	}
}

// PutObject streams the body without buffering it, so the payload is sent unsigned.
func (a *awsRepository) PutObject(ctx context.Context, input *models.HandoffObject) error {
	_, err := a.client.PutObject(
		ctx,
		&s3.PutObjectInput{
			Bucket:        &input.Bucket,
			Key:           &input.Key,
			ContentType:   &input.ContentType,
			ContentLength: &input.Size,
			Body:          input.Body,
		},
		s3.WithAPIOptions(v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware),
	)
	if err != nil {
		return errors.Wrapf(err, "PutObject %s/%s", input.Bucket, input.Key)
	}
	return nil
}

func (a *awsRepository) PresignGetObject(ctx context.Context, bucket, key, filename string, ttl time.Duration) (string, error) {
	disposition := utils.ContentDisposition(filename)
	req, err := a.preSignClient.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket:                     &bucket,
			Key:                        &key,
			ResponseContentDisposition: &disposition,
		},
		s3.WithPresignExpires(ttl),
	)
	if err != nil {
		return "", errors.Wrapf(err, "PresignGetObject %s/%s", bucket, key)
	}
	return req.URL, nil
}
