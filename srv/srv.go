// MIT License
//
// Copyright 2018 Canonical Ledgers, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS
// IN THE SOFTWARE.

// Package srv serves the livefeedd JSON RPC API, which exposes the recorded
// LiveFeed events and stored chain entries.
package srv

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"crawshaw.io/sqlite/sqlitex"
	jsonrpc2 "github.com/AdamSLevy/jsonrpc2/v14"
	"github.com/Factom-Asset-Tokens/factom-api/api"
	_log "github.com/Factom-Asset-Tokens/factom-api/log"
	"github.com/rs/cors"
)

// Handler returns the API http.Handler. A nil pool serves only
// get-daemon-properties, and every other method returns
// api.ErrorNotRecording.
func Handler(pool *sqlitex.Pool, revision string, log _log.Log) http.Handler {
	jrpcHandler := jsonrpc2.HTTPRequestHandler(methods(pool, revision), log)
	var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add(http.CanonicalHeaderKey("Livefeedd-Version"), revision)
		w.Header().Add(http.CanonicalHeaderKey("Livefeedd-Api-Version"),
			api.APIVersion)
		jrpcHandler(w, r)
	}

	srvMux := http.NewServeMux()
	srvMux.Handle("/", handler)
	srvMux.Handle("/v1", handler)

	return cors.New(cors.Options{AllowedOrigins: []string{"*"}}).Handler(srvMux)
}

// Start serves the API on addr until ctx is done. The returned channel is
// closed once the server has stopped.
func Start(ctx context.Context, addr string,
	pool *sqlitex.Pool, revision string) (<-chan struct{}, error) {
	log := _log.New("srv")

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("srv: %w", err)
	}

	srv := http.Server{Handler: Handler(pool, revision, log)}
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != http.ErrServerClosed {
			log.Errorf("srv.Serve(): %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Errorf("srv.Shutdown(): %v", err)
		}
	}()
	log.Infof("Serving the JSON RPC API on %v", ln.Addr())
	return done, nil
}
