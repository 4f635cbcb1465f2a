package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/singleflight"

	"github.com/docgraph/docgraph/pkg/loader"
)

// S3GraphFileLoader is a GraphFileLoader implementation that loads file
// contents from an S3 bucket. It also lists the PDFs under a key prefix as
// a GraphFileSource.
type S3GraphFileLoader struct {
	bucket string
	prefix string
	client *s3.Client

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewS3GraphFileLoaderWithClient creates a new S3GraphFileLoader using an
// existing s3.Client.
func NewS3GraphFileLoaderWithClient(bucket string, prefix string, client *s3.Client) *S3GraphFileLoader {
	return &S3GraphFileLoader{
		bucket: bucket,
		prefix: prefix,
		client: client,
		cache:  make(map[string][]byte),
	}
}

// NewS3GraphFileLoaderParams defines the configuration parameters for
// creating a new S3GraphFileLoader.
//
// Endpoint allows overriding the S3 endpoint (useful for S3-compatible
// storage like MinIO). Prefix restricts ListFiles to keys below it.
type NewS3GraphFileLoaderParams struct {
	Bucket    string
	Prefix    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3GraphFileLoader creates a new S3GraphFileLoader with static
// credentials and path-style addressing.
//
// Example:
//
//	l, err := s3.NewS3GraphFileLoader(ctx, s3.NewS3GraphFileLoaderParams{
//		Bucket:    "bids",
//		Prefix:    "pdfs/",
//		Endpoint:  "http://localhost:9000",
//		Region:    "us-east-1",
//		AccessKey: os.Getenv("AWS_ACCESS_KEY"),
//		SecretKey: os.Getenv("AWS_SECRET_KEY"),
//	})
func NewS3GraphFileLoader(ctx context.Context, params NewS3GraphFileLoaderParams) (*S3GraphFileLoader, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(params.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	}
	if params.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(params.Endpoint))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return NewS3GraphFileLoaderWithClient(params.Bucket, params.Prefix, client), nil
}

// GetFileContent retrieves the contents of the given GraphFile from the
// configured S3 bucket. Results are cached.
func (l *S3GraphFileLoader) GetFileContent(ctx context.Context, file loader.GraphFile) ([]byte, error) {
	cacheKey := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[cacheKey]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(cacheKey, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[cacheKey]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(file.FilePath),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get %s from S3: %w", file.FilePath, err)
		}
		defer out.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, out.Body); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.FilePath, err)
		}

		byts := buf.Bytes()

		l.cacheMu.Lock()
		l.cache[cacheKey] = byts
		l.cacheMu.Unlock()

		return byts, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// Release implements loader.Releaser.
func (l *S3GraphFileLoader) Release(file loader.GraphFile) {
	l.cacheMu.Lock()
	delete(l.cache, loader.CacheKey(file))
	l.cacheMu.Unlock()
}

// ListFiles returns every *.pdf object below the configured prefix, sorted
// by key.
func (l *S3GraphFileLoader) ListFiles(ctx context.Context, maxTokens int) ([]loader.GraphFile, error) {
	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(l.bucket),
		Prefix: aws.String(l.prefix),
	}

	var files []loader.GraphFile
	for {
		listOutput, err := l.client.ListObjectsV2(ctx, listInput)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", l.prefix, err)
		}

		for _, obj := range listOutput.Contents {
			if obj.Key == nil || !strings.EqualFold(path.Ext(*obj.Key), ".pdf") {
				continue
			}
			files = append(files, loader.NewGraphDocumentFile(loader.NewGraphFileParams{
				ID:        *obj.Key,
				FilePath:  *obj.Key,
				Size:      aws.ToInt64(obj.Size),
				MaxTokens: maxTokens,
				Loader:    l,
			}))
		}

		if listOutput.IsTruncated != nil && *listOutput.IsTruncated {
			listInput.ContinuationToken = listOutput.NextContinuationToken
		} else {
			break
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].FilePath < files[j].FilePath })
	return files, nil
}
