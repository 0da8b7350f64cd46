package dispatch

import (
	"bytes"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

// replayableBody returns a function producing a fresh copy of the request body for every send,
// or nil when the request has no body. Bodies without GetBody are read into memory once.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		req.Body.Close()
		return req.GetBody, nil
	}

	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, errors.Wrap(err, "[dispatch] read request body")
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

// releaseOnClose unbinds the request from its cancellation scope once the caller is done with
// the response body.
type releaseOnClose struct {
	io.ReadCloser
	release func()
}

func (b *releaseOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.release()
	return err
}
