package storage

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"

	"tush00nka/filestash/internal/apperr"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"missing key", &smithy.GenericAPIError{Code: "NoSuchKey"}, apperr.ErrNotFound},
		{"head not found", fmt.Errorf("op: %w", &smithy.GenericAPIError{Code: "NotFound"}), apperr.ErrNotFound},
		{"quota", &smithy.GenericAPIError{Code: "QuotaExceeded", Message: "bucket full"}, apperr.ErrQuotaExceeded},
		{"minio full", &smithy.GenericAPIError{Code: "XMinioStorageFull"}, apperr.ErrQuotaExceeded},
		{"other api error", &smithy.GenericAPIError{Code: "InternalError"}, apperr.ErrUnavailable},
		{"network", errors.New("dial tcp: connection refused"), apperr.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translate(tt.err), tt.want)
		})
	}
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "files/abc", objectKey("abc"))
}

func TestCountingReader(t *testing.T) {
	c := &countingReader{r: strings.NewReader("twelve bytes")}
	data, err := io.ReadAll(c)
	assert.NoError(t, err)
	assert.Equal(t, "twelve bytes", string(data))
	assert.Equal(t, int64(12), c.n)
}
