package factom

import (
	"errors"
	"fmt"

	"github.com/AdamSLevy/jsonrpc2/v14"
)

// ErrorCode is one of the JSON RPC error codes returned by factomd and
// factom-walletd.
type ErrorCode int

// The closed set of error codes returned by factomd and factom-walletd. Any
// code not listed here is reported as ErrorCodeUnknown.
const (
	ErrorCodeUnknown          ErrorCode = -1
	ErrorCodeBlockNotFound    ErrorCode = -32008
	ErrorCodeMissingChainHead ErrorCode = -32009
	ErrorCodeReceiptCreation  ErrorCode = -32010
	ErrorCodeRepeatedCommit   ErrorCode = -32011
	ErrorCodeInvalidRequest   ErrorCode = -32600
	ErrorCodeMethodNotFound   ErrorCode = -32601
	ErrorCodeInvalidParams    ErrorCode = -32602
	ErrorCodeInternal         ErrorCode = -32603
	ErrorCodeParse            ErrorCode = -32700
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCodeUnknown:          "Unknown Error",
	ErrorCodeBlockNotFound:    "Block Not Found",
	ErrorCodeMissingChainHead: "Missing Chain Head",
	ErrorCodeReceiptCreation:  "Receipt Creation Error",
	ErrorCodeRepeatedCommit:   "Repeated Commit",
	ErrorCodeInvalidRequest:   "Invalid Request",
	ErrorCodeMethodNotFound:   "Method Not Found",
	ErrorCodeInvalidParams:    "Invalid Params",
	ErrorCodeInternal:         "Internal Error",
	ErrorCodeParse:            "Parse Error",
}

// String returns the name of the error code.
func (code ErrorCode) String() string {
	if name, ok := errorCodeNames[code]; ok {
		return name
	}
	return errorCodeNames[ErrorCodeUnknown]
}

func knownErrorCode(code int) ErrorCode {
	if _, ok := errorCodeNames[ErrorCode(code)]; ok {
		return ErrorCode(code)
	}
	return ErrorCodeUnknown
}

// RemoteError is returned when factomd or factom-walletd successfully
// responded to a request, but with a JSON RPC error object.
type RemoteError struct {
	Method  string
	Code    ErrorCode
	Message string
	Data    interface{}
}

// Error formats the code and message of the remote error.
func (err *RemoteError) Error() string {
	msg := err.Message
	if len(msg) == 0 {
		msg = err.Code.String()
	}
	if err.Data != nil {
		return fmt.Sprintf("%v: %v: %v: %v", err.Method, int(err.Code), msg, err.Data)
	}
	return fmt.Sprintf("%v: %v: %v", err.Method, int(err.Code), msg)
}

// Is reports whether target is ErrNotFound and err is a BlockNotFound or
// MissingChainHead error, or whether target is a *RemoteError with the same
// Code.
func (err *RemoteError) Is(target error) bool {
	if target == ErrNotFound {
		return err.Code == ErrorCodeBlockNotFound ||
			err.Code == ErrorCodeMissingChainHead
	}
	t, ok := target.(*RemoteError)
	return ok && t.Code == err.Code
}

// ErrNotFound matches any RemoteError that indicates that a chain, block or
// entry does not exist.
var ErrNotFound = errors.New("not found")

// Sentinel errors for use with errors.Is.
var (
	ErrBlockNotFound    = &RemoteError{Code: ErrorCodeBlockNotFound}
	ErrMissingChainHead = &RemoteError{Code: ErrorCodeMissingChainHead}
	ErrReceiptCreation  = &RemoteError{Code: ErrorCodeReceiptCreation}
	ErrRepeatedCommit   = &RemoteError{Code: ErrorCodeRepeatedCommit}
	ErrInvalidRequest   = &RemoteError{Code: ErrorCodeInvalidRequest}
	ErrMethodNotFound   = &RemoteError{Code: ErrorCodeMethodNotFound}
	ErrInvalidParams    = &RemoteError{Code: ErrorCodeInvalidParams}
	ErrInternal         = &RemoteError{Code: ErrorCodeInternal}
	ErrParse            = &RemoteError{Code: ErrorCodeParse}
)

// TransportError is returned when a request could not be completed, or the
// response could not be read, for any reason other than a JSON RPC error.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("%v %v: %v", err.URL, err.Method, err.Err)
}

func (err *TransportError) Unwrap() error { return err.Err }

// newRequestError translates an error returned by jsonrpc2.Client.Request.
func newRequestError(url, method string, err error) error {
	var jErr jsonrpc2.Error
	if errors.As(err, &jErr) {
		return &RemoteError{
			Method:  method,
			Code:    knownErrorCode(int(jErr.Code)),
			Message: jErr.Message,
			Data:    jErr.Data,
		}
	}
	return &TransportError{Method: method, URL: url, Err: err}
}
