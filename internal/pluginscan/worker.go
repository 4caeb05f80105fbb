package pluginscan

import (
	"bufio"
	"io"
	"os"
	"time"
)

// Scanner performs the actual plugin-format probe inside the worker
// process. Implementations live outside this package (they depend on the
// plugin formats supported by the host); this package only owns the IPC
// envelope and the crash isolation around it.
type Scanner func(path, format string) ([]Descriptor, error)

// RunWorker is the worker-side main loop, invoked when the executable is
// re-launched with --waveedit-plugin-scanner. It reads ScanPlugin/Heartbeat/
// Shutdown messages from in and writes responses to out until Shutdown or
// EOF. A panic during scan is itself a form of "crash" this function cannot
// protect against by design — that's exactly the isolation the out-of-
// process architecture buys the coordinator.
func RunWorker(in io.Reader, out io.Writer, scan Scanner) error {
	reader := bufio.NewReader(in)

	if err := writeMessage(out, &Ready{Pid: os.Getpid()}); err != nil {
		return err
	}

	for {
		msg, err := readMessage(reader)
		if err != nil {
			return err // EOF: coordinator closed the pipe, worker exits
		}

		switch m := msg.(type) {
		case *ScanPlugin:
			handleScan(out, scan, m)
		case *Heartbeat:
			_ = writeMessage(out, &HeartbeatAck{Time: m.Time})
		case *Shutdown:
			return nil
		default:
			_ = writeMessage(out, &ErrorMessage{Message: "unexpected message type"})
		}
	}
}

func handleScan(out io.Writer, scan Scanner, m *ScanPlugin) {
	_ = writeMessage(out, &ScanStarted{Path: m.Path, Time: time.Now().Unix()})

	descriptors, err := scan(m.Path, m.Format)
	if err != nil {
		_ = writeMessage(out, &ScanFailed{Path: m.Path, Error: err.Error()})
		return
	}
	_ = writeMessage(out, &ScanComplete{Path: m.Path, Descriptors: descriptors})
}
