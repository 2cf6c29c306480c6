// Package swarm stores issue bodies through a Swarm HTTP gateway using the raw bzz API.
package swarm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/mango/internal/contentstore"
)

const (
	// DefaultGatewayURL is the public gateway used when none is configured.
	DefaultGatewayURL = "http://swarm-gateways.net"

	rawUploadPathConstant             = "/bzz-raw:/"
	rawDownloadPathTemplateConstant   = "/bzz-raw:/%s"
	contentTypeHeaderConstant         = "Content-Type"
	octetStreamContentTypeConstant    = "application/octet-stream"
	storeDescriptionTemplateConstant  = "swarm(%s)"
	invalidGatewayTemplateConstant    = "invalid swarm gateway %q: %w"
	requestBuildTemplateConstant      = "unable to build %s request: %w"
	uploadFailedTemplateConstant      = "swarm upload failed: %w"
	responseReadTemplateConstant      = "unable to read swarm response: %w"
	gatewayStatusTemplateConstant     = "swarm gateway answered %s with status %d"
	emptyUploadHashMessageConstant    = "swarm gateway returned an empty hash"
	gatewayNotAbsoluteMessageConstant = "gateway must be an absolute http(s) URL"
	uploadOperationNameConstant       = "upload"
	downloadOperationNameConstant     = "download"
	logMessageUploadedConstant        = "content uploaded"
	logMessageDownloadedConstant      = "content downloaded"
	logFieldGatewayConstant           = "gateway"
	logFieldHashConstant              = "hash"
	logFieldSizeConstant              = "size"
)

var (
	// ErrEmptyUploadHash indicates the gateway accepted an upload without returning its hash.
	ErrEmptyUploadHash = errors.New(emptyUploadHashMessageConstant)
	// ErrGatewayNotAbsolute indicates the configured gateway lacks a scheme or host.
	ErrGatewayNotAbsolute = errors.New(gatewayNotAbsoluteMessageConstant)
)

// GatewayStatusError reports an unexpected HTTP status from the gateway.
type GatewayStatusError struct {
	Operation  string
	StatusCode int
}

// Error describes the unexpected status.
func (statusError GatewayStatusError) Error() string {
	return fmt.Sprintf(gatewayStatusTemplateConstant, statusError.Operation, statusError.StatusCode)
}

// HTTPDoer issues HTTP requests.
type HTTPDoer interface {
	Do(request *http.Request) (*http.Response, error)
}

// ClientDependencies enumerates collaborators of the gateway client.
type ClientDependencies struct {
	HTTPClient HTTPDoer
	Logger     *zap.Logger
}

// Client implements contentstore.Store against a Swarm gateway.
type Client struct {
	gatewayURL *url.URL
	httpClient HTTPDoer
	logger     *zap.Logger
}

// NewClient validates the gateway address and constructs a Client. A blank gateway selects DefaultGatewayURL.
func NewClient(gateway string, dependencies ClientDependencies) (*Client, error) {
	trimmedGateway := strings.TrimRight(strings.TrimSpace(gateway), "/")
	if len(trimmedGateway) == 0 {
		trimmedGateway = DefaultGatewayURL
	}

	gatewayURL, parseError := url.Parse(trimmedGateway)
	if parseError != nil {
		return nil, fmt.Errorf(invalidGatewayTemplateConstant, gateway, parseError)
	}
	if len(gatewayURL.Scheme) == 0 || len(gatewayURL.Host) == 0 {
		return nil, fmt.Errorf(invalidGatewayTemplateConstant, gateway, ErrGatewayNotAbsolute)
	}

	httpClient := dependencies.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{gatewayURL: gatewayURL, httpClient: httpClient, logger: logger}, nil
}

// String describes the store.
func (client *Client) String() string {
	return fmt.Sprintf(storeDescriptionTemplateConstant, client.gatewayURL.String())
}

// Put uploads the content and returns the hash reported by the gateway.
func (client *Client) Put(executionContext context.Context, content []byte) (string, error) {
	request, requestError := http.NewRequestWithContext(executionContext, http.MethodPost, client.endpoint(rawUploadPathConstant), bytes.NewReader(content))
	if requestError != nil {
		return "", fmt.Errorf(requestBuildTemplateConstant, uploadOperationNameConstant, requestError)
	}
	request.Header.Set(contentTypeHeaderConstant, octetStreamContentTypeConstant)

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		return "", fmt.Errorf(uploadFailedTemplateConstant, responseError)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf(uploadFailedTemplateConstant, GatewayStatusError{Operation: uploadOperationNameConstant, StatusCode: response.StatusCode})
	}

	responseBody, readError := io.ReadAll(response.Body)
	if readError != nil {
		return "", fmt.Errorf(responseReadTemplateConstant, readError)
	}

	contentHash := strings.TrimSpace(string(responseBody))
	if len(contentHash) == 0 {
		return "", ErrEmptyUploadHash
	}

	client.logger.Debug(logMessageUploadedConstant,
		zap.String(logFieldGatewayConstant, client.gatewayURL.String()),
		zap.String(logFieldHashConstant, contentHash),
		zap.Int(logFieldSizeConstant, len(content)),
	)
	return contentHash, nil
}

// Get downloads the content stored under the hash.
func (client *Client) Get(executionContext context.Context, contentHash string) ([]byte, error) {
	trimmedHash := strings.TrimSpace(contentHash)
	if len(trimmedHash) == 0 {
		return nil, contentstore.ErrEmptyHash
	}

	downloadPath := fmt.Sprintf(rawDownloadPathTemplateConstant, url.PathEscape(trimmedHash))
	request, requestError := http.NewRequestWithContext(executionContext, http.MethodGet, client.endpoint(downloadPath), nil)
	if requestError != nil {
		return nil, fmt.Errorf(requestBuildTemplateConstant, downloadOperationNameConstant, requestError)
	}

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		return nil, contentstore.ContentUnavailableError{Hash: trimmedHash, Cause: responseError}
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, contentstore.ContentUnavailableError{
			Hash:  trimmedHash,
			Cause: GatewayStatusError{Operation: downloadOperationNameConstant, StatusCode: response.StatusCode},
		}
	}

	content, readError := io.ReadAll(response.Body)
	if readError != nil {
		return nil, contentstore.ContentUnavailableError{Hash: trimmedHash, Cause: readError}
	}

	client.logger.Debug(logMessageDownloadedConstant,
		zap.String(logFieldGatewayConstant, client.gatewayURL.String()),
		zap.String(logFieldHashConstant, trimmedHash),
		zap.Int(logFieldSizeConstant, len(content)),
	)
	return content, nil
}

func (client *Client) endpoint(path string) string {
	return client.gatewayURL.String() + path
}
