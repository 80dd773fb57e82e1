package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeElementNotFound represents a required page control that never appeared
	ErrorTypeElementNotFound ErrorType = "element_not_found"
	// ErrorTypeDiscoveryFailed represents a search whose outcome could not be determined
	ErrorTypeDiscoveryFailed ErrorType = "discovery_failed"
	// ErrorTypeDetailFetchFailed represents a case detail page that could not be loaded
	ErrorTypeDetailFetchFailed ErrorType = "detail_fetch_failed"
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeSession represents browser session setup/teardown errors
	ErrorTypeSession ErrorType = "session"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypeStore represents persistence errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// CrawlerError represents a crawler-specific error
type CrawlerError struct {
	Type     ErrorType
	Provider string
	Message  string
	Err      error
	Time     time.Time
}

// Error implements the error interface
func (e *CrawlerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Provider, e.Message)
}

// Unwrap returns the underlying error
func (e *CrawlerError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *CrawlerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeDetailFetchFailed:
		return true
	default:
		return false
	}
}

// IsType reports whether err, or any error it wraps, is a CrawlerError of the given type.
func IsType(err error, errType ErrorType) bool {
	var ce *CrawlerError
	for err != nil {
		if !stderrors.As(err, &ce) {
			return false
		}
		if ce.Type == errType {
			return true
		}
		err = ce.Err
	}
	return false
}

// New creates a new CrawlerError
func New(errType ErrorType, provider, message string, err error) *CrawlerError {
	return &CrawlerError{
		Type:     errType,
		Provider: provider,
		Message:  message,
		Err:      err,
		Time:     time.Now(),
	}
}

// NewElementNotFound creates an error for a page element missing after its bounded wait
func NewElementNotFound(provider, selector string, err error) *CrawlerError {
	return New(ErrorTypeElementNotFound, provider, fmt.Sprintf("element %s not found", selector), err)
}

// NewDiscoveryFailed creates a discovery error
func NewDiscoveryFailed(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeDiscoveryFailed, provider, message, err)
}

// NewDetailFetchFailed creates a detail page error
func NewDetailFetchFailed(provider, url string, err error) *CrawlerError {
	return New(ErrorTypeDetailFetchFailed, provider, "failed to load "+url, err)
}

// NewNetwork creates a new network error
func NewNetwork(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeNetwork, provider, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeParsing, provider, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(provider string, retryAfter string) *CrawlerError {
	message := "rate limited"
	if retryAfter != "" {
		message = fmt.Sprintf("rate limited; retry after %s", retryAfter)
	}
	return New(ErrorTypeRateLimit, provider, message, nil)
}

// NewSession creates a new session error
func NewSession(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeSession, provider, message, err)
}

// NewCache creates a new cache error
func NewCache(provider, message string, err error) *CrawlerError {
	return New(ErrorTypeCache, provider, message, err)
}

// NewStore creates a new store error
func NewStore(message string, err error) *CrawlerError {
	return New(ErrorTypeStore, "store", message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(provider, message string, err error) *CrawlerError {
	return New(ErrorTypePublisher, provider, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *CrawlerError {
	return New(ErrorTypeConfiguration, "", message, err)
}
