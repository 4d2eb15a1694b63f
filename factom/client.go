package factom

import (
	"context"
	"time"

	"github.com/AdamSLevy/jsonrpc2/v14"
	"github.com/sirupsen/logrus"
)

// Client makes RPC requests to factomd's and factom-walletd's APIs.  Client
// embeds two jsonrpc2.Clients, and thus also two http.Client, one for requests
// to factomd and one for requests to factom-walletd.  Use jsonrpc2.Client's
// BasicAuth settings to set up BasicAuth and http.Client's transport settings
// to configure TLS.
type Client struct {
	Factomd       jsonrpc2.Client
	FactomdServer string
	Walletd       jsonrpc2.Client
	WalletdServer string

	// Log receives a debug line for every request, if not nil.
	Log *logrus.Entry
}

// Defaults for the factomd and factom-walletd endpoints.
const (
	FactomdDefault = "http://localhost:8088/v2"
	WalletdDefault = "http://localhost:8089/v2"
)

// NewClient returns a pointer to a Client initialized with the default
// localhost endpoints for factomd and factom-walletd, and a 20 and 10 second
// timeout for each of the http.Clients, respectively.
func NewClient() *Client {
	c := &Client{FactomdServer: FactomdDefault, WalletdServer: WalletdDefault}
	c.Factomd.Timeout = 20 * time.Second
	c.Walletd.Timeout = 10 * time.Second
	return c
}

// FactomdRequest makes a request to factomd's v2 API.
//
// A JSON RPC error is returned as a *RemoteError. Any other failure is
// returned as a *TransportError.
func (c *Client) FactomdRequest(
	ctx context.Context, method string, params, result interface{}) error {
	return c.request(ctx, &c.Factomd, c.FactomdServer, method, params, result)
}

// WalletdRequest makes a request to factom-walletd's v2 API.
//
// Errors are returned in the same form as FactomdRequest.
func (c *Client) WalletdRequest(
	ctx context.Context, method string, params, result interface{}) error {
	return c.request(ctx, &c.Walletd, c.WalletdServer, method, params, result)
}

func (c *Client) request(ctx context.Context, jc *jsonrpc2.Client,
	url, method string, params, result interface{}) error {
	if c.Log != nil {
		c.Log.WithField("method", method).Debugf("POST %v", url)
	}
	if err := jc.Request(ctx, url, method, params, result); err != nil {
		return newRequestError(url, method, err)
	}
	return nil
}
