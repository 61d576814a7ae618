package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aouyang1/inkframe/util"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrDownload = errors.New("download failed")

// Downloader fetches registry URLs into the image directory. http(s) URLs are
// fetched directly; s3://bucket/key URLs go through the S3 transfer manager.
type Downloader struct {
	imageDir   string
	awsProfile string
	http       *http.Client

	s3Once sync.Once
	s3     *s3.Client
	s3Err  error
}

func NewDownloader(imageDir, awsProfile string) *Downloader {
	return &Downloader{
		imageDir:   imageDir,
		awsProfile: awsProfile,
		http:       &http.Client{Timeout: 60 * time.Second},
	}
}

// Fetch writes the object at rawURL to <image dir>/name, replacing any
// existing file only once the download completed.
func (d *Downloader) Fetch(ctx context.Context, rawURL, name string) (string, error) {
	if !util.SafeFileName(name) {
		return "", fmt.Errorf("%w: unsafe file name %q", ErrDownload, name)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid url %q: %w", ErrDownload, rawURL, err)
	}

	if err := os.MkdirAll(d.imageDir, 0o755); err != nil {
		return "", fmt.Errorf("unable to create image directory, %s, %w", d.imageDir, err)
	}

	dst := filepath.Join(d.imageDir, name)
	tmp := filepath.Join(d.imageDir, "."+uuid.NewString()+".part")
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("unable to create file for download, %s, %w", name, err)
	}
	defer os.Remove(tmp)

	switch u.Scheme {
	case "http", "https":
		err = d.fetchHTTP(ctx, rawURL, f)
	case "s3":
		err = d.fetchS3(ctx, u.Host, strings.TrimPrefix(u.Path, "/"), f)
	default:
		err = fmt.Errorf("%w: unsupported url scheme %q", ErrDownload, u.Scheme)
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}

	if err := os.Rename(tmp, dst); err != nil {
		return "", fmt.Errorf("unable to move download into place, %s, %w", name, err)
	}
	slog.Info("downloaded image", "name", name, "url", rawURL)
	return dst, nil
}

func (d *Downloader) fetchHTTP(ctx context.Context, rawURL string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: server returned status %d", ErrDownload, resp.StatusCode)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}
	return nil
}

func (d *Downloader) fetchS3(ctx context.Context, bucket, key string, w io.WriterAt) error {
	client, err := d.s3Client(ctx)
	if err != nil {
		return err
	}

	downloader := manager.NewDownloader(client)
	if _, err := downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("%w: unable to download object from s3, %s/%s, %w", ErrDownload, bucket, key, err)
	}
	return nil
}

func (d *Downloader) s3Client(ctx context.Context) (*s3.Client, error) {
	d.s3Once.Do(func() {
		var opts []func(*awsconfig.LoadOptions) error
		if d.awsProfile != "" {
			opts = append(opts, awsconfig.WithSharedConfigProfile(d.awsProfile))
		}

		cfgCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		cfg, err := awsconfig.LoadDefaultConfig(cfgCtx, opts...)
		if err != nil {
			d.s3Err = fmt.Errorf("unable to load aws config: %w", err)
			return
		}
		d.s3 = s3.NewFromConfig(cfg)
	})
	return d.s3, d.s3Err
}
