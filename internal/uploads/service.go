package uploads

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"jobboard-backend/internal/shared/apperr"
	"jobboard-backend/internal/shared/identity"
	"jobboard-backend/internal/shared/telemetry"
	"jobboard-backend/internal/shared/util"
)

const (
	maxUploadBytes       = 5 << 20
	presignExpires       = 15 * time.Minute
	defaultRegion        = "us-east-1"
	defaultUploadsPrefix = "resumes/"
)

var allowedContentTypes = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

// Presigner is the subset of *s3.PresignClient used here.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type Service struct {
	Presign       Presigner
	Bucket        string
	Prefix        string
	Region        string
	PublicBaseURL string
}

// NewService builds an S3-backed presigner. It returns a nil service and no
// error when no bucket is configured; PresignResume then reports Unavailable.
func NewService(ctx context.Context, region, bucket, prefix, publicBaseURL string) (*Service, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, nil
	}
	region = strings.TrimSpace(region)
	if region == "" {
		region = defaultRegion
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Service{
		Presign:       s3.NewPresignClient(s3.NewFromConfig(cfg)),
		Bucket:        bucket,
		Prefix:        normalizePrefix(prefix),
		Region:        region,
		PublicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}, nil
}

type PresignInput struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

type Presigned struct {
	UploadURL        string `json:"uploadUrl"`
	ResumeURL        string `json:"resumeUrl"`
	Key              string `json:"key"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

// PresignResume returns a short-lived PUT URL for a resume document and the
// URL the uploaded file will be reachable at.
func (s *Service) PresignResume(ctx context.Context, requester identity.Identity, in PresignInput) (Presigned, error) {
	in.FileName = strings.TrimSpace(in.FileName)
	in.ContentType = strings.TrimSpace(strings.ToLower(in.ContentType))

	var fields []apperr.FieldError
	sanitized, err := util.SanitizeFileName(in.FileName)
	if err != nil {
		fields = append(fields, apperr.Field("fileName", "fileName is invalid"))
	}
	ext, ok := allowedContentTypes[in.ContentType]
	if !ok {
		fields = append(fields, apperr.Field("contentType", "contentType must be a PDF or Word document"))
	} else if sanitized != "" && !strings.HasSuffix(strings.ToLower(sanitized), ext) {
		fields = append(fields, apperr.Field("fileName", "fileName extension does not match contentType"))
	}
	if in.SizeBytes <= 0 || in.SizeBytes > maxUploadBytes {
		fields = append(fields, apperr.Field("sizeBytes", fmt.Sprintf("sizeBytes must be between 1 and %d", maxUploadBytes)))
	}
	if len(fields) > 0 {
		return Presigned{}, apperr.Validation(fields...)
	}
	if s == nil || s.Presign == nil {
		return Presigned{}, apperr.Unavailable("uploads not configured", nil)
	}

	key := path.Join(s.Prefix, util.OwnerSegment(requester.UserID), uuid.NewString()+"-"+sanitized)
	out, err := s.Presign.PresignPutObject(ctx, presignInput(s.Bucket, key, in.ContentType), func(opts *s3.PresignOptions) {
		opts.Expires = presignExpires
	})
	if err != nil {
		telemetry.Error("uploads.presign.failed", map[string]any{
			"error":        err,
			"bucket":       s.Bucket,
			"key":          key,
			"content_type": in.ContentType,
			"size_bytes":   in.SizeBytes,
		})
		return Presigned{}, apperr.Unavailable("failed to generate upload url", err)
	}
	return Presigned{
		UploadURL:        out.URL,
		ResumeURL:        s.objectURL(key),
		Key:              key,
		ExpiresInSeconds: int64(presignExpires.Seconds()),
	}, nil
}

func (s *Service) objectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if s.PublicBaseURL != "" {
		return s.PublicBaseURL + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.Bucket, s.Region, escaped)
}

func presignInput(bucket, key, contentType string) *s3.PutObjectInput {
	return &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultUploadsPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}
