package redisconn

import (
	"context"
	"strconv"

	"github.com/kvstream/rediswire/redis"
)

// ScanOpts configures a Scanner, matching the teacher's redis.ScanOpts
// shape: an optional key pattern/count plus which SCAN-family command to
// drive (SCAN itself needs no key; HSCAN/SSCAN/ZSCAN need one).
type ScanOpts struct {
	Cmd     string // "SCAN", "HSCAN", "SSCAN", "ZSCAN"
	Key     string // ignored for SCAN
	Match   string
	Count   int64
	HasType bool
	Type    string
}

func (o ScanOpts) request(cursor string) redis.Request {
	args := make([][]byte, 0, 6)
	if o.Key != "" && o.Cmd != "SCAN" {
		args = append(args, []byte(o.Key))
	}
	args = append(args, []byte(cursor))
	if o.Match != "" {
		args = append(args, []byte("MATCH"), []byte(o.Match))
	}
	if o.Count != 0 {
		args = append(args, []byte("COUNT"), []byte(strconv.FormatInt(o.Count, 10)))
	}
	if o.HasType {
		args = append(args, []byte("TYPE"), []byte(o.Type))
	}
	return redis.Req(o.Cmd, args...)
}

// Scanner iterates a SCAN-family cursor against a single connection,
// grounded on the teacher's redisconn.Scanner (redisconn/scan.go).
type Scanner struct {
	opts   ScanOpts
	conn   *Connection
	cursor string
	done   bool
}

// NewScanner builds a Scanner bound to conn.
func NewScanner(conn *Connection, opts ScanOpts) *Scanner {
	return &Scanner{opts: opts, conn: conn, cursor: "0"}
}

// Next fetches the next page of keys. It returns ok=false once the server
// signals cursor "0" again (scan complete).
func (s *Scanner) Next(ctx context.Context) (keys []string, ok bool, err error) {
	if s.done {
		return nil, false, nil
	}
	v, err := redis.ExecuteSync(ctx, s.conn, s.opts.request(s.cursor))
	if err != nil {
		return nil, false, err
	}
	if v.IsError() {
		return nil, false, redis.ClassifyReplyError(v.Str)
	}
	reply, err := redis.Scan(redis.MultiString)(v)
	if err != nil {
		return nil, false, err
	}
	s.cursor = reply.Cursor
	if s.cursor == "0" {
		s.done = true
	}
	return reply.Items, true, nil
}
