package terminal

import (
	"bufio"
	"io"
	"log"
	"strings"
	"time"
)

// maxLineBytes caps the length of a single decoded output line. Bytes
// past the cap are discarded so an unbounded line can neither grow
// memory nor end the stream's reader early.
const maxLineBytes = 1024 * 1024

// pumpStream is one reader unit: it decodes a single process stream into
// lines and publishes each one. It runs in its own goroutine per
// (session, stream), so stdout and stderr never block each other. done is
// closed on end-of-stream, which is how the Manager learns about natural
// process exit.
func pumpStream(sess *Session, stream StreamKind, r io.Reader, b *Broadcaster, done chan struct{}) {
	defer close(done)

	br := bufio.NewReaderSize(r, 64*1024)
	for {
		raw, err := readLine(br)
		if len(raw) > 0 || err == nil {
			// Malformed byte sequences become replacement characters; a
			// corrupt line must never take the session down.
			line := strings.ToValidUTF8(raw, "�")
			now := time.Now().UTC()

			sess.touch()
			msg := OutputMessage{
				SessionID: sess.ID,
				Stream:    stream,
				Line:      line,
				Timestamp: now,
			}
			sess.scrollback.Append(msg)
			b.Publish(sess.ID, stream, line, now)
		}
		if err != nil {
			if err != io.EOF {
				// The pipe closing during teardown lands here; treat it like EOF.
				log.Printf("[terminal] session %s: %s reader ended: %v", sess.ID, stream, err)
			}
			return
		}
	}
}

// readLine reads one line, keeping at most maxLineBytes of it. The rest
// of an oversized line is consumed and dropped so the next read starts on
// the following line.
func readLine(br *bufio.Reader) (string, error) {
	var buf []byte
	for {
		frag, isPrefix, err := br.ReadLine()
		if len(frag) > 0 && len(buf) < maxLineBytes {
			if room := maxLineBytes - len(buf); len(frag) > room {
				frag = frag[:room]
			}
			buf = append(buf, frag...)
		}
		if err != nil {
			return string(buf), err
		}
		if !isPrefix {
			return string(buf), nil
		}
	}
}
