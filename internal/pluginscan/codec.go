package pluginscan

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/wavecraft/wavecraft/internal/errors"
)

// writeMessage XML-encodes msg as a single line (newline-delimited framing)
// and writes it to w.
func writeMessage(w io.Writer, msg any) error {
	data, err := xml.Marshal(msg)
	if err != nil {
		return errors.New(err).Category(errors.CategoryEncodeFailed).Build()
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return errors.New(err).Category(errors.CategoryIoError).Build()
	}
	return nil
}

// readMessage reads one newline-delimited XML message from r and decodes it
// into the concrete type matching its root element name.
func readMessage(r *bufio.Reader) (any, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err // EOF/pipe closure signals worker loss to the caller
	}

	dec := xml.NewDecoder(strings.NewReader(line))
	tok, err := dec.Token()
	for err == nil {
		if start, ok := tok.(xml.StartElement); ok {
			return decodeByName(dec, start)
		}
		tok, err = dec.Token()
	}
	return nil, errors.Newf("pluginscan: malformed message: %q", line).
		Category(errors.CategoryDecodeFailed).Build()
}

func decodeByName(dec *xml.Decoder, start xml.StartElement) (any, error) {
	var target any
	switch start.Name.Local {
	case "ScanPlugin":
		target = &ScanPlugin{}
	case "Heartbeat":
		target = &Heartbeat{}
	case "Shutdown":
		target = &Shutdown{}
	case "Ready":
		target = &Ready{}
	case "ScanStarted":
		target = &ScanStarted{}
	case "ScanComplete":
		target = &ScanComplete{}
	case "ScanFailed":
		target = &ScanFailed{}
	case "HeartbeatAck":
		target = &HeartbeatAck{}
	case "Error":
		target = &ErrorMessage{}
	default:
		return nil, fmt.Errorf("pluginscan: unknown message tag %q", start.Name.Local)
	}
	if err := dec.DecodeElement(target, &start); err != nil {
		return nil, errors.New(err).Category(errors.CategoryDecodeFailed).Build()
	}
	return target, nil
}
