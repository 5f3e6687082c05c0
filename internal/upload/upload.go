// Package upload pushes finished creatives and reports to S3-compatible
// object storage.
package upload

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/brandgate/creative-automation/pkg/errors"
)

// Uploader is the storage boundary the pipeline depends on.
type Uploader interface {
	// Upload stores the local file under the campaign prefix and returns the
	// object key.
	Upload(ctx context.Context, campaignID, localPath string) (string, error)
}

// Config carries the S3 connection settings.
type Config struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	BasePath  string
}

// S3Uploader uploads through the s3manager, which handles multipart for
// large files. Works against AWS S3 and S3-compatible stores (R2, MinIO) via
// the endpoint override.
type S3Uploader struct {
	cfg      Config
	uploader *s3manager.Uploader
	log      *zap.Logger
}

// NewS3Uploader builds an uploader from config.
func NewS3Uploader(log *zap.Logger, cfg Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, errors.Wrap(errors.ErrConfiguration, "upload bucket is required")
	}

	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfiguration, fmt.Sprintf("creating AWS session: %v", err))
	}

	return &S3Uploader{
		cfg:      cfg,
		uploader: s3manager.NewUploader(sess),
		log:      log,
	}, nil
}

// Upload stores one file under <base>/<campaign>/<uuid>_<name>.
func (u *S3Uploader) Upload(ctx context.Context, campaignID, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", errors.Wrap(errors.ErrUploadFailed, fmt.Sprintf("opening %s: %v", localPath, err))
	}
	defer f.Close()

	key := path.Join(u.cfg.BasePath, campaignID,
		fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(localPath)))

	_, err = u.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrUploadFailed, err.Error())
	}

	u.log.Info("uploaded asset",
		zap.String("campaign", campaignID),
		zap.String("key", key))
	return key, nil
}

// Memory is an in-process Uploader for tests and dry runs. It records keys in
// upload order.
type Memory struct {
	mu   sync.Mutex
	keys []string

	// Err, when set, is returned by every call.
	Err error
}

// Upload records the file without storing bytes.
func (m *Memory) Upload(_ context.Context, campaignID, localPath string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := path.Join(campaignID, filepath.Base(localPath))
	m.keys = append(m.keys, key)
	return key, nil
}

// Keys returns the recorded object keys, sorted for stable assertions.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	sort.Strings(out)
	return out
}

// Count returns how many uploads happened.
func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}
