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

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"
	"time"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"github.com/Factom-Asset-Tokens/factom-api/db"
	"github.com/Factom-Asset-Tokens/factom-api/flag"
	"github.com/Factom-Asset-Tokens/factom-api/livefeed"
	_log "github.com/Factom-Asset-Tokens/factom-api/log"
	"github.com/Factom-Asset-Tokens/factom-api/srv"
)

func main() { os.Exit(_main()) }
func _main() (ret int) {
	// Completion uses some flags, so parse them first thing.
	flag.Parse()
	if flag.Completion.Complete() {
		// Invoked for the purposes of completion, so don't actually
		// run the daemon.
		return 0
	}

	_log.Debug = flag.LogDebug
	log := _log.New("main")
	if err := flag.Validate(); err != nil {
		log.Error(err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt)
	go func() {
		if _, ok := <-sigint; ok {
			log.Infof("SIGINT: Shutting down...")
			cancel()
		}
	}()
	// Stop handling signals once we return.
	defer func() { signal.Reset(); close(sigint) }()

	log.Info("LiveFeed Daemon Version: ", flag.Revision)
	defer log.Info("LiveFeed Daemon stopped.")

	h := eventLogger{log: _log.New("events")}
	if len(flag.DBPath) > 0 {
		unlock, err := db.Lock(flag.DBPath)
		if err != nil {
			log.Errorf("db.Lock(%q): %v", flag.DBPath, err)
			return 1
		}
		defer func() {
			if err := unlock(); err != nil {
				log.Error(err)
			}
		}()
		conn, err := db.Open(ctx, flag.DBPath)
		if err != nil {
			log.Errorf("db.Open(%q): %v", flag.DBPath, err)
			return 1
		}
		defer func() {
			if err := db.Close(conn); err != nil {
				log.Error(err)
				ret = 1
			}
		}()
		count, err := db.SelectEventCount(conn)
		if err != nil {
			log.Error(err)
			return 1
		}
		log.Infof("Recording events to %v, %v events recorded so far.",
			flag.DBPath, count)
		h.conn = conn
	}

	if len(flag.APIAddress) > 0 {
		var pool *sqlitex.Pool
		if h.conn != nil {
			var err error
			pool, err = db.OpenPool(flag.DBPath, runtime.NumCPU())
			if err != nil {
				log.Error(err)
				return 1
			}
			defer func() {
				if err := pool.Close(); err != nil {
					log.Errorf("pool.Close(): %v", err)
				}
			}()
		}
		srvCtx, cancelSrv := context.WithCancel(ctx)
		done, err := srv.Start(srvCtx, flag.APIAddress, pool, flag.Revision)
		if err != nil {
			cancelSrv()
			log.Error(err)
			return 1
		}
		// The server must stop before the pool is closed.
		defer func() { cancelSrv(); <-done }()
	}

	l := livefeed.Listener{
		Addr:           flag.ListenAddress,
		Handler:        &h,
		MaxMessageSize: flag.MaxMessageSize,
		Log:            _log.New("livefeed"),
	}
	err := l.ListenAndServe(ctx)
	log.Infof("%v events received.", h.count)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error(err)
		return 1
	}
	return 0
}

// eventLogger logs every LiveFeed message and records it in conn, if not nil.
type eventLogger struct {
	log   _log.Log
	conn  *sqlite.Conn
	count int64
}

func (h *eventLogger) HandleMessage(msg []byte) {
	h.count++
	h.log.Debugf("Event %v: %v bytes", h.count, len(msg))
	if h.conn == nil {
		return
	}
	if _, err := db.InsertEvent(h.conn, time.Now(), msg); err != nil {
		h.log.Errorf("db.InsertEvent(): %v", err)
	}
}
