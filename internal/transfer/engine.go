// Package transfer streams the files of a download plan to disk.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/azmtag/nextcloud-share-downloader/internal/logging"
	"github.com/azmtag/nextcloud-share-downloader/internal/plan"
	"github.com/azmtag/nextcloud-share-downloader/internal/share"
)

// TransferError indicates a download whose written byte count does not
// match the advertised size. Byte counting is the only integrity check
// this protocol allows; there are no checksums to verify against.
type TransferError struct {
	URL      string
	Expected int64
	Written  int64
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("could not download file: %s (wrote %d of %d bytes)", e.URL, e.Written, e.Expected)
}

// Progress receives transfer updates as chunks are written.
type Progress interface {
	Start(label string, total int64)
	Advance(n int64)
	Finish()
}

type noopProgress struct{}

func (noopProgress) Start(string, int64) {}
func (noopProgress) Advance(int64)       {}
func (noopProgress) Finish()             {}

// Engine downloads files one at a time through a shared session.
type Engine struct {
	session  *share.Session
	progress Progress
}

// NewEngine creates an engine. progress may be nil.
func NewEngine(s *share.Session, progress Progress) *Engine {
	if progress == nil {
		progress = noopProgress{}
	}
	return &Engine{session: s, progress: progress}
}

const chunkSize = 32 * 1024

// Run fetches every file of the plan exactly once: mismatched files
// first, then new ones, each bucket already path-sorted. The first
// failure aborts the rest of the run; completed files stay on disk and
// the failed one is left partially written so a resume run can pick it
// up as mismatched.
func (e *Engine) Run(ctx context.Context, p *plan.Plan) error {
	downloads := p.Downloads()
	for i, f := range downloads {
		label := fmt.Sprintf("[%d/%d] %s", i+1, len(downloads), f.Path)
		if err := e.download(ctx, f.Path, f.Dest, label); err != nil {
			return err
		}
	}
	return nil
}

// Download fetches a single remote file to dest.
func (e *Engine) Download(ctx context.Context, remotePath, dest string) error {
	return e.download(ctx, remotePath, dest, remotePath)
}

func (e *Engine) download(ctx context.Context, remotePath, dest, label string) error {
	logging.Debug("downloading", zap.String("path", remotePath), zap.String("dest", dest))

	resp, err := e.session.Get(ctx, remotePath)
	if err != nil {
		return errors.Wrapf(err, "get %s", remotePath)
	}
	defer resp.Body.Close()
	url := resp.Request.URL.String()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", dest)
	}

	// May be absent or zero for unknown-length responses; then the
	// byte-count check below is skipped.
	var total int64
	if resp.ContentLength > 0 {
		total = resp.ContentLength
	}

	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrapf(err, "create %s", dest)
	}

	e.progress.Start(label, total)
	written, copyErr := e.copyChunks(out, resp.Body)
	e.progress.Finish()

	closeErr := out.Close()
	if copyErr != nil {
		return errors.Wrapf(copyErr, "download %s", url)
	}
	if closeErr != nil {
		return errors.Wrapf(closeErr, "close %s", dest)
	}

	if total != 0 && written != total {
		return &TransferError{URL: url, Expected: total, Written: written}
	}
	return nil
}

// copyChunks streams src to dst in fixed-size chunks, reporting each
// chunk as it lands on disk. A truncated body is not an error here: the
// byte-count check in download turns it into a TransferError.
func (e *Engine) copyChunks(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
			e.progress.Advance(int64(n))
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return written, nil
			}
			return written, err
		}
	}
}
