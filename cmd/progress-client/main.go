package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	progress "lipidlibrarian/internal/sync"
	"lipidlibrarian/pkg/logger"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP progress stream address")
	raw := flag.Bool("raw", false, "print the JSON lines unchanged")
	flag.Parse()

	if err := logger.Initialize(false, 0); err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Named("progress-client")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for ctx.Err() == nil {
		if err := run(ctx, *addr, *raw, os.Stdout, log); err != nil && ctx.Err() == nil {
			log.Warnw("disconnected", logger.FieldError, err)
		}
		select {
		case <-ctx.Done():
		case <-time.After(time.Second): // reconnect
		}
	}
}

func run(ctx context.Context, addr string, raw bool, out io.Writer, log *zap.SugaredLogger) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "dial %s", addr)
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	log.Infow("connected", "addr", addr)
	return follow(conn, raw, out)
}

// follow prints every line of r until it ends.
func follow(r io.Reader, raw bool, out io.Writer) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if !raw {
			line = describe(sc.Bytes())
		}
		fmt.Fprintln(out, line)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

// describe renders a query event as one readable line. Other messages are
// returned as they came.
func describe(line []byte) string {
	var e progress.QueryEvent
	if err := json.Unmarshal(line, &e); err != nil || e.QueryID == "" {
		return string(line)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %-18s %s %q", e.At.Format("15:04:05"), e.Type, shortID(e.QueryID), e.Input)
	if e.Method != "" {
		fmt.Fprintf(&b, " method=%s", e.Method)
	}
	if e.Phase != "" {
		fmt.Fprintf(&b, " phase=%s", e.Phase)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " source=%s", e.Source)
	}
	switch e.Type {
	case progress.EventQueryStarted, progress.EventQueryDetected, progress.EventQueryFailed:
	default:
		fmt.Fprintf(&b, " count=%d", e.Count)
	}
	if e.Error != "" {
		fmt.Fprintf(&b, " error=%q", e.Error)
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
