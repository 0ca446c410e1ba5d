// jsonline-probe exercises a jsonlined server's framing behavior: several
// frames in one write, a frame fragmented across writes, a large frame
// below the size ceiling, and a frame far above it. The last scenario is
// expected to get the connection dropped.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"net"
	"os"
	"time"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server address")
	large := flag.Int("large", 50000, "size of the below-ceiling frame")
	oversize := flag.Int("oversize", 500000000, "size of the above-ceiling frame")
	pause := flag.Duration("pause", 200*time.Millisecond, "delay between scenarios")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dial:", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Println("probe: multiple messages in one write")
	mustWrite(conn, []byte("\"msg1\"\n\"msg2\"\n\"msg3\"\n"))
	time.Sleep(*pause)

	fmt.Println("probe: fragmented message")
	mustWrite(conn, []byte("\"partia"))
	time.Sleep(*pause)
	mustWrite(conn, []byte("l message\"\n"))
	time.Sleep(*pause)

	fmt.Printf("probe: large message (%d bytes)\n", *large)
	mustWrite(conn, quotedFrame(*large))
	time.Sleep(*pause)

	fmt.Printf("probe: oversize message (%d bytes, expecting disconnect)\n", *oversize)
	if err := writeOversize(conn, *oversize); err != nil {
		fmt.Println("probe: server dropped the connection:", err)
		return
	}

	// The server may close after the write completed; a read settles it.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err != nil {
		fmt.Println("probe: server dropped the connection:", err)
		return
	}

	fmt.Fprintln(os.Stderr, "probe: oversize frame was not rejected")
	os.Exit(1)
}

func mustWrite(conn net.Conn, p []byte) {
	if _, err := conn.Write(p); err != nil {
		fmt.Fprintln(os.Stderr, "write:", err)
		os.Exit(1)
	}
}

// quotedFrame builds a newline-terminated JSON string frame of roughly n
// payload bytes.
func quotedFrame(n int) []byte {
	frame := make([]byte, 0, n+3)
	frame = append(frame, '"')
	frame = append(frame, bytes.Repeat([]byte("A"), n)...)
	return append(frame, '"', '\n')
}

// writeOversize streams an unterminated frame in 1 MiB chunks so the
// probe never holds the whole oversize payload in memory.
func writeOversize(conn net.Conn, n int) error {
	chunk := bytes.Repeat([]byte("A"), 1024*1024)
	written := 0
	for written < n {
		if n-written < len(chunk) {
			chunk = chunk[:n-written]
		}
		m, err := conn.Write(chunk)
		written += m
		if err != nil {
			return err
		}
	}
	_, err := conn.Write([]byte("\n"))
	return err
}
