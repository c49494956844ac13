package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/ywy929/assay-dashboard-backend/config"
	"github.com/ywy929/assay-dashboard-backend/utils"
)

// ArchiveService keeps a copy of every generated certificate in S3.
// Optional: when no bucket is configured the service is nil and callers
// skip archival.
type ArchiveService struct {
	client *s3.Client
	bucket string
}

func NewArchiveService() (*ArchiveService, error) {
	if config.S3Bucket == "" {
		return nil, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(config.S3Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &ArchiveService{client: s3.NewFromConfig(cfg), bucket: config.S3Bucket}, nil
}

// Store uploads one certificate and returns its object key.
func (a *ArchiveService) Store(ctx context.Context, customerName string, pdfData []byte) (string, error) {
	key := fmt.Sprintf("certificates/%s/%s_%s.pdf",
		time.Now().Format("2006-01-02"),
		utils.SanitizeFilename(customerName),
		uuid.NewString(),
	)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pdfData),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading certificate: %w", err)
	}

	log.Printf("[ARCHIVE] stored certificate %s", key)
	return key, nil
}
