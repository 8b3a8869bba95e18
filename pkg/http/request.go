package http

import (
	"context"
	"errors"
	"maps"
)

type RequestMethod string

const (
	GET    RequestMethod = "GET"
	POST   RequestMethod = "POST"
	PATCH  RequestMethod = "PATCH"
	PUT    RequestMethod = "PUT"
	DELETE RequestMethod = "DELETE"
)

// Request is a one-shot builder bound to a Client. Query params and headers accumulate across calls.
type Request struct {
	ctx         context.Context
	client      *Client
	method      RequestMethod
	path        string
	query       map[string]string
	headers     map[string]string
	body        any
	successResp any
	errorResp   any
	backoff     *BackoffConfig
}

func NewHttpClientRequest(client *Client) *Request {
	return &Request{client: client, method: GET, path: "/"}
}

func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

func (r *Request) WithMethod(method RequestMethod) *Request {
	r.method = method
	return r
}

func (r *Request) WithPath(path string) *Request {
	r.path = path
	return r
}

// WithQueryParams merges params into the query string.
func (r *Request) WithQueryParams(params map[string]string) *Request {
	r.query = merge(r.query, params)
	return r
}

// WithHeaders merges headers over the client defaults.
func (r *Request) WithHeaders(headers map[string]string) *Request {
	r.headers = merge(r.headers, headers)
	return r
}

// WithBody sets the payload. Strings, byte slices and url.Values are sent as is, anything else is
// encoded with the client content type.
func (r *Request) WithBody(body any) *Request {
	r.body = body
	return r
}

// WithSuccessResp sets the value a 2xx body is decoded into.
func (r *Request) WithSuccessResp(successResp any) *Request {
	r.successResp = successResp
	return r
}

// WithErrorResp sets the value a non-2xx body is decoded into.
func (r *Request) WithErrorResp(errorResp any) *Request {
	r.errorResp = errorResp
	return r
}

// WithBackoff overrides the client retry policy for this request.
func (r *Request) WithBackoff(backoff *BackoffConfig) *Request {
	r.backoff = backoff
	return r
}

// Execute sends the request and returns the success response, error response, status code and error.
func (r *Request) Execute() (any, any, int, error) {
	switch {
	case r.client == nil:
		return nil, nil, 0, errors.New("client is required")
	case r.method == "":
		return nil, nil, 0, errors.New("method is required")
	case r.path == "":
		return nil, nil, 0, errors.New("path is required")
	}

	ctx := r.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return r.client.doRequestWithBackoff(ctx, string(r.method), r.path, r.query, r.headers, r.body, r.successResp, r.errorResp, r.backoff)
}

func merge(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	maps.Copy(dst, src)
	return dst
}
