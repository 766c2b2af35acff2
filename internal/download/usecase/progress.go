package usecase

import (
	"context"
	"io"
	"sync"

	"github.com/amankumarsingh77/media-resolver/internal/models"
	"github.com/amankumarsingh77/media-resolver/pkg/httperrors"
)

// progressReader reports bytes read and releases the download's cancel entry on Close.
// A read that fails after the download's context ended surfaces as Cancelled.
type progressReader struct {
	ctx        context.Context
	body       io.ReadCloser
	total      int64
	written    int64
	onProgress models.ProgressFunc
	release    func()
	once       sync.Once
}

func newProgressReader(ctx context.Context, body io.ReadCloser, total int64, onProgress models.ProgressFunc, release func()) *progressReader {
	if total < 0 {
		total = 0
	}
	return &progressReader{ctx: ctx, body: body, total: total, onProgress: onProgress, release: release}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.body.Read(b)
	if n > 0 {
		p.written += int64(n)
		if p.onProgress != nil {
			p.onProgress(p.written, p.total)
		}
	}
	if err != nil && err != io.EOF && p.ctx.Err() != nil {
		return n, httperrors.NewCancelled(p.ctx.Err())
	}
	return n, err
}

func (p *progressReader) Close() error {
	err := p.body.Close()
	p.once.Do(func() {
		if p.release != nil {
			p.release()
		}
	})
	return err
}

// cancelRegistry maps download ids to the cancel func of their context.
type cancelRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{cancels: make(map[string]context.CancelFunc)}
}

// register reports false when the id already belongs to a running download.
func (r *cancelRegistry) register(id string, cancel context.CancelFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.cancels[id]; taken {
		return false
	}
	r.cancels[id] = cancel
	return true
}

// release forgets the id and cancels its context; later Cancel calls are no-ops.
func (r *cancelRegistry) release(id string) {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	delete(r.cancels, id)
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

func (r *cancelRegistry) cancel(id string) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (r *cancelRegistry) active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}
