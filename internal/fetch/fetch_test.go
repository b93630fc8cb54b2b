package fetch

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nimble-go/nimble/internal/errors"
)

type memStore struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStore) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, stderrors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *memStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	m.objects[key] = data
	m.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestParse(t *testing.T) {
	tests := []struct {
		loc  string
		want Location
	}{
		{"page.html", Location{Scheme: "file", Path: "page.html"}},
		{"/tmp/page.html", Location{Scheme: "file", Path: "/tmp/page.html"}},
		{"file:///tmp/page.html", Location{Scheme: "file", Path: filepath.FromSlash("/tmp/page.html")}},
		{`C:\pages\home.html`, Location{Scheme: "file", Path: `C:\pages\home.html`}},
		{"https://example.com/a.html", Location{Scheme: "https", Path: "https://example.com/a.html"}},
		{"s3://bucket/dir/a.html", Location{Scheme: "s3", Bucket: "bucket", Path: "dir/a.html"}},
	}
	for _, tt := range tests {
		t.Run(tt.loc, func(t *testing.T) {
			got, err := Parse(tt.loc)
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}

	for _, bad := range []string{"", "s3://bucket", "ftp://host/a"} {
		_, err := Parse(bad)
		var ne *errors.Error
		if !stderrors.As(err, &ne) || ne.Code != "N082" {
			t.Errorf("Parse(%q) error = %v, want N082", bad, err)
		}
	}
}

func TestFileRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := New()
	path := filepath.Join(t.TempDir(), "out", "page.html")

	if err := f.Store(ctx, path, []byte("<p>hi</p>"), "text/html"); err != nil {
		t.Fatalf("Store error: %v", err)
	}
	data, err := f.ReadAll(ctx, path)
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	if string(data) != "<p>hi</p>" {
		t.Errorf("ReadAll() = %q", data)
	}

	_, err = f.ReadAll(ctx, filepath.Join(t.TempDir(), "missing.html"))
	if !stderrors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
}

func TestHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/page.html" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("<main>remote</main>"))
	}))
	defer srv.Close()

	ctx := context.Background()
	f := New(WithHTTPClient(srv.Client()))

	data, err := f.ReadAll(ctx, srv.URL+"/page.html")
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	if string(data) != "<main>remote</main>" {
		t.Errorf("ReadAll() = %q", data)
	}

	if _, err := f.ReadAll(ctx, srv.URL+"/missing"); err == nil {
		t.Error("expected error for 404")
	}
	var ne *errors.Error
	if err := f.Store(ctx, srv.URL+"/page.html", nil, ""); !stderrors.As(err, &ne) || ne.Code != "N082" {
		t.Errorf("Store(http) error = %v, want N082", err)
	}
}

func TestS3(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	f := New(WithObjectStore(store))

	if err := f.Store(ctx, "s3://site/pages/home.html", []byte("<p>s3</p>"), "text/html"); err != nil {
		t.Fatalf("Store error: %v", err)
	}
	if store.types["site/pages/home.html"] != "text/html" {
		t.Errorf("content type = %q", store.types["site/pages/home.html"])
	}
	data, err := f.ReadAll(ctx, "s3://site/pages/home.html")
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	if string(data) != "<p>s3</p>" {
		t.Errorf("ReadAll() = %q", data)
	}

	var ne *errors.Error
	if _, err := f.ReadAll(ctx, "s3://site/missing.html"); !stderrors.As(err, &ne) || ne.Code != "N080" {
		t.Errorf("missing object error = %v, want N080", err)
	}
}

func TestS3WithoutRegion(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")
	_, err := New().ReadAll(context.Background(), "s3://site/a.html")
	var ne *errors.Error
	if !stderrors.As(err, &ne) || ne.Hint == "" {
		t.Errorf("error = %v, want region hint", err)
	}
}
