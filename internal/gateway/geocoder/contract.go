package geocoder

import (
	"context"
	"net/http"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type retrier interface {
	ExecuteWithContext(ctx context.Context, fn func(context.Context) error) error
}
