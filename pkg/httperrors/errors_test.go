package httperrors

import (
	"context"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "typed", err: NewRemoteJobTimeout("deadline"), want: RemoteJobTimeout},
		{name: "wrapped typed", err: errors.Wrap(NewPayloadTooLarge("big"), "proxy"), want: PayloadTooLarge},
		{name: "context canceled", err: errors.Wrap(context.Canceled, "copy"), want: Cancelled},
		{name: "plain", err: errors.New("boom"), want: Internal},
		{name: "nil", err: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorResponseDistinctMessages(t *testing.T) {
	status, body := ErrorResponse(NewRemoteJobTimeout("deadline exceeded"))
	assert.Equal(t, http.StatusGatewayTimeout, status)
	assert.Contains(t, body.Error, "timed out")

	status, body = ErrorResponse(NewRemoteJobError("ffmpeg exited 1"))
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "processing failed: ffmpeg exited 1", body.Error)

	status, body = ErrorResponse(NewUpstreamFailure(http.StatusForbidden, "forbidden"))
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "could not fetch media (403)", body.Error)

	status, _ = ErrorResponse(NewPayloadTooLarge("too big"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)

	status, body = ErrorResponse(NewCancelled(context.Canceled))
	assert.Equal(t, StatusClientClosedRequest, status)
	assert.Equal(t, Cancelled, body.Kind)
}
