package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/TimelyDataflow/timely-dataflow-sub000/config"
	"github.com/TimelyDataflow/timely-dataflow-sub000/lib/backoff"
	"github.com/TimelyDataflow/timely-dataflow-sub000/logging"
)

// dialCluster opens the already-connected sockets worker.New requires,
// one per peer other than self. Connecting the clique is this host
// process's own job, never the core's: it listens for connections from
// every lower-indexed peer and dials every higher-indexed one, the same
// "listen from below, dial above" split tlc/peering/layer.go's runPeer
// uses for its own stream-mode peers, but over real TCP, with each
// dial's retry loop reporting through logger via backoff.Logged instead
// of that file's own hand-rolled backoff-and-print loop.
func dialCluster(ctx context.Context, cfg config.Config, logger logging.Logger) (map[int]net.Conn, error) {
	conns := make(map[int]net.Conn, cfg.Processes-1)

	var ln net.Listener
	if cfg.Index > 0 {
		var err error
		ln, err = net.Listen("tcp", cfg.Peers[cfg.Index].Addr)
		if err != nil {
			return nil, fmt.Errorf("tdworker: listen on %s: %w", cfg.Peers[cfg.Index].Addr, err)
		}
		defer ln.Close()
	}

	for i := cfg.Index + 1; i < cfg.Processes; i++ {
		i := i
		var conn net.Conn
		retry := backoff.Config{Report: backoff.Logged(logger, i)}
		err := retry.Retry(ctx, func() error {
			c, err := net.DialTimeout("tcp", cfg.Peers[i].Addr, 5*time.Second)
			if err != nil {
				return err
			}
			// Announce our own index so the peer's Accept loop, which
			// may see several lower-indexed dialers arrive out of order,
			// can tell them apart.
			if _, err := c.Write([]byte{byte(cfg.Index)}); err != nil {
				c.Close()
				return err
			}
			conn = c
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("tdworker: dial peer %d (%s): %w", i, cfg.Peers[i].Addr, err)
		}
		conns[i] = conn
	}

	for remaining := cfg.Index; remaining > 0; remaining-- {
		conn, err := ln.Accept()
		if err != nil {
			return nil, fmt.Errorf("tdworker: accept peer connection: %w", err)
		}
		var idByte [1]byte
		if _, err := conn.Read(idByte[:]); err != nil {
			return nil, fmt.Errorf("tdworker: read peer index: %w", err)
		}
		conns[int(idByte[0])] = conn
	}

	return conns, nil
}
