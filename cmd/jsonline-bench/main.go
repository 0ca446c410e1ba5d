// jsonline-bench streams newline-delimited JSON messages at a jsonlined
// server in large concatenated batches and reports throughput.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/katti/jsonline"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server address")
	total := flag.Int("total", 100000, "total number of messages")
	batch := flag.Int("batch", 10000, "messages per write")
	repeat := flag.Int("repeat", 200, "payload token repetitions per message")
	flag.Parse()

	if *batch <= 0 || *total < *batch {
		fmt.Fprintln(os.Stderr, "total must be at least batch, and batch positive")
		os.Exit(2)
	}

	message, err := jsonline.NewJSONMessage(map[string]string{
		"msg": strings.Repeat("mirri", *repeat),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "build message:", err)
		os.Exit(1)
	}

	frame, err := jsonline.JSONCodec{}.Encode(message)
	if err != nil {
		fmt.Fprintln(os.Stderr, "encode message:", err)
		os.Exit(1)
	}

	payload := bytes.Repeat(frame, *batch)
	fmt.Printf("sending %d messages, per message length: %d bytes\n", *total, len(frame))

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dial:", err)
		os.Exit(1)
	}
	defer conn.Close()

	start := time.Now()
	for i := 0; i < *total / *batch; i++ {
		if _, err := conn.Write(payload); err != nil {
			fmt.Fprintf(os.Stderr, "write batch %d: %v\n", i, err)
			os.Exit(1)
		}
	}
	duration := time.Since(start)

	fmt.Println("\nresults:")
	fmt.Printf("total time:   %.4f seconds\n", duration.Seconds())
	fmt.Printf("messages/sec: %.0f\n", float64(*total)/duration.Seconds())
}
