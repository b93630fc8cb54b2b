package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nimble-go/nimble/internal/errors"
)

// ObjectStore is the subset of the S3 client used by Fetcher.
type ObjectStore interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Fetcher opens and stores documents.
type Fetcher struct {
	http   *http.Client
	s3     ObjectStore
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the client used for http(s) locations.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.http = c
		}
	}
}

// WithObjectStore sets the client used for s3:// locations.
func WithObjectStore(s ObjectStore) Option {
	return func(f *Fetcher) {
		f.s3 = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// New creates a Fetcher. Without WithObjectStore an S3 client is built from
// the AWS_* environment on first use.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: slog.Default().With("component", "fetch"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Location is a parsed location.
type Location struct {
	Scheme string // file, http, https or s3
	Path   string // file path, URL, or object key
	Bucket string
}

func (l Location) String() string {
	if l.Scheme == "s3" {
		return "s3://" + l.Bucket + "/" + l.Path
	}
	return l.Path
}

// Parse parses loc.
func Parse(loc string) (Location, error) {
	if loc == "" {
		return Location{}, errors.New("N082").WithDetail("Empty location")
	}
	u, err := url.Parse(loc)
	// Single-letter schemes are Windows drive letters.
	if err != nil || len(u.Scheme) <= 1 {
		return Location{Scheme: "file", Path: loc}, nil
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return Location{Scheme: "file", Path: filepath.FromSlash(u.Path)}, nil
	case "http", "https":
		return Location{Scheme: strings.ToLower(u.Scheme), Path: loc}, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, errors.New("N082").WithDetail("S3 locations need a bucket and a key: " + loc)
		}
		return Location{Scheme: "s3", Bucket: u.Host, Path: key}, nil
	}
	return Location{}, errors.New("N082").WithDetail("Unknown scheme " + u.Scheme)
}

// Open returns a reader for loc. The caller closes it.
func (f *Fetcher) Open(ctx context.Context, loc string) (io.ReadCloser, error) {
	l, err := Parse(loc)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("open", "location", l.String())

	switch l.Scheme {
	case "file":
		file, err := os.Open(l.Path)
		if err != nil {
			return nil, errors.New("N080").Wrap(err)
		}
		return file, nil

	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.Path, nil)
		if err != nil {
			return nil, errors.New("N080").Wrap(err)
		}
		resp, err := f.http.Do(req)
		if err != nil {
			return nil, errors.New("N080").Wrap(err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, errors.New("N080").Wrap(fmt.Errorf("GET %s: %s", l.Path, resp.Status))
		}
		return resp.Body, nil

	default:
		client, err := f.objectStore()
		if err != nil {
			return nil, err
		}
		out, err := client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.Bucket),
			Key:    aws.String(l.Path),
		})
		if err != nil {
			return nil, errors.New("N080").Wrap(fmt.Errorf("s3 get %s: %w", l, err))
		}
		return out.Body, nil
	}
}

// ReadAll reads the whole document at loc.
func (f *Fetcher) ReadAll(ctx context.Context, loc string) ([]byte, error) {
	rc, err := f.Open(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.New("N080").Wrap(err)
	}
	return data, nil
}

// Store writes data to loc.
func (f *Fetcher) Store(ctx context.Context, loc string, data []byte, contentType string) error {
	l, err := Parse(loc)
	if err != nil {
		return err
	}
	f.logger.Debug("store", "location", l.String(), "bytes", len(data))

	switch l.Scheme {
	case "file":
		if dir := filepath.Dir(l.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.New("N081").Wrap(err)
			}
		}
		if err := os.WriteFile(l.Path, data, 0o644); err != nil {
			return errors.New("N081").Wrap(err)
		}
		return nil

	case "s3":
		client, err := f.objectStore()
		if err != nil {
			return err
		}
		in := &s3.PutObjectInput{
			Bucket: aws.String(l.Bucket),
			Key:    aws.String(l.Path),
			Body:   bytes.NewReader(data),
		}
		if contentType != "" {
			in.ContentType = aws.String(contentType)
		}
		if _, err := client.PutObject(ctx, in); err != nil {
			return errors.New("N081").Wrap(fmt.Errorf("s3 put %s: %w", l, err))
		}
		return nil
	}
	return errors.New("N082").WithDetail("Cannot store to " + l.Scheme + " locations")
}

func (f *Fetcher) objectStore() (ObjectStore, error) {
	if f.s3 != nil {
		return f.s3, nil
	}
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		return nil, errors.New("N080").
			WithDetail("No AWS region configured").
			WithHint("Set AWS_REGION")
	}
	opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	}
	if endpoint := os.Getenv("AWS_ENDPOINT_URL"); endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	f.s3 = s3.New(opts)
	return f.s3, nil
}

func envCredentials(context.Context) (aws.Credentials, error) {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "environment",
	}, nil
}
