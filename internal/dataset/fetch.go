package dataset

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/annobench/internal/model"
)

// Fetcher opens problem-set sources by URI: local paths, http(s)://, and
// ftp:// mirrors all yield a JSONL stream.
type Fetcher struct {
	HTTPClient *http.Client
	FTPTimeout time.Duration
}

// NewFetcher creates a fetcher with default timeouts.
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		FTPTimeout: 30 * time.Second,
	}
}

// Open returns a reader over the source. The caller must close it.
func (f *Fetcher) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return f.openHTTP(ctx, source)
	case strings.HasPrefix(source, "ftp://"):
		return f.openFTP(ctx, source)
	default:
		file, err := os.Open(source)
		if err != nil {
			return nil, eris.Wrap(err, "dataset: open file")
		}
		return file, nil
	}
}

// Fetch loads and normalizes the problem set at source.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]model.Problem, error) {
	rc, err := f.Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	return Load(rc)
}

func (f *Fetcher) openHTTP(ctx context.Context, source string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: create request")
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: fetch")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close() //nolint:errcheck
		return nil, eris.Errorf("dataset: unexpected status %d fetching %s", resp.StatusCode, source)
	}
	return resp.Body, nil
}

func (f *Fetcher) openFTP(ctx context.Context, source string) (io.ReadCloser, error) {
	host, path, err := parseFTPURL(source)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("dataset: ftp connecting", zap.String("host", host), zap.String("path", path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.FTPTimeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrap(err, "dataset: ftp dial")
	}

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		conn.Quit() //nolint:errcheck
		return nil, eris.Wrap(err, "dataset: ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		conn.Quit() //nolint:errcheck
		return nil, eris.Wrap(err, "dataset: ftp retrieve")
	}

	return &ftpConnReader{resp: resp, conn: conn}, nil
}

func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "dataset: parse ftp url")
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	if u.Path == "" {
		return "", "", eris.New("dataset: empty path in ftp url")
	}
	return host, u.Path, nil
}

// ftpConnReader ties the data stream to the control connection so closing
// the reader also disconnects from the server.
type ftpConnReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpConnReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpConnReader) Close() error {
	respErr := r.resp.Close()
	quitErr := r.conn.Quit()
	if respErr != nil {
		return eris.Wrap(respErr, "dataset: close ftp response")
	}
	if quitErr != nil {
		return eris.Wrap(quitErr, "dataset: quit ftp connection")
	}
	return nil
}
