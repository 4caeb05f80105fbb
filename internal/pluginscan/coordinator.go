package pluginscan

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/wavecraft/wavecraft/internal/config"
	"github.com/wavecraft/wavecraft/internal/errors"
)

// scannerFlag is the argument that re-launches this executable in worker
// mode. cmd/wavecraft checks for it before any other flag parsing.
const scannerFlag = "--waveedit-plugin-scanner"

// TimeoutCallback is asked how to proceed when a plugin's scan exceeds its
// timeout. It must not block indefinitely; the coordinator has already
// stalled the whole scan waiting for an answer.
type TimeoutCallback func(path string) TimeoutDecision

// Coordinator drives the worker subprocess through a batch of plugin paths,
// isolating the host process from per-plugin crashes.
type Coordinator struct {
	cacheDir     string
	cache        *Cache
	blacklist    *Blacklist
	onTimeout    TimeoutCallback
	scanTimeout  time.Duration
	heartbeat    time.Duration
	autoBlacklist bool

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// NewCoordinator loads the cache and blacklist from cacheDir and reads
// scan policy from the application settings.
func NewCoordinator(cacheDir string, onTimeout TimeoutCallback) (*Coordinator, error) {
	cache, err := LoadCache(cacheDir)
	if err != nil {
		return nil, err
	}
	blacklist, err := LoadBlacklist(cacheDir)
	if err != nil {
		return nil, err
	}

	settings := config.GetSettings()
	scanTimeout := 30 * time.Second
	heartbeat := 5 * time.Second
	autoBlacklist := false
	if settings != nil {
		if settings.Plugins.ScanTimeoutSec > 0 {
			scanTimeout = time.Duration(settings.Plugins.ScanTimeoutSec) * time.Second
		}
		if settings.Plugins.HeartbeatSec > 0 {
			heartbeat = time.Duration(settings.Plugins.HeartbeatSec) * time.Second
		}
		autoBlacklist = settings.Plugins.AutoBlacklist
	}

	return &Coordinator{
		cacheDir:      cacheDir,
		cache:         cache,
		blacklist:     blacklist,
		onTimeout:     onTimeout,
		scanTimeout:   scanTimeout,
		heartbeat:     heartbeat,
		autoBlacklist: autoBlacklist,
	}, nil
}

// spawn starts a fresh worker subprocess, replacing any prior one.
func (c *Coordinator) spawn(ctx context.Context) error {
	c.killWorker()

	exe, err := os.Executable()
	if err != nil {
		return errors.New(err).Category(errors.CategoryFileIO).Build()
	}

	cmd := exec.CommandContext(ctx, exe, scannerFlag)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return errors.New(err).Category(errors.CategoryPluginInstantiate).Build()
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.New(err).Category(errors.CategoryPluginInstantiate).Build()
	}
	if err := cmd.Start(); err != nil {
		return errors.New(err).Category(errors.CategoryPluginInstantiate).Build()
	}

	c.cmd = cmd
	c.stdin = stdin
	c.stdout = bufio.NewReader(stdout)

	msg, err := readMessage(c.stdout)
	if err != nil {
		return errors.New(err).Category(errors.CategoryPluginCrashed).
			Context("stage", "handshake").Build()
	}
	if _, ok := msg.(*Ready); !ok {
		return errors.New(nil).Category(errors.CategoryPluginCrashed).
			Context("stage", "handshake").Build()
	}
	return nil
}

func (c *Coordinator) killWorker() {
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		_ = c.cmd.Wait()
	}
	c.cmd = nil
	c.stdin = nil
	c.stdout = nil
}

// Shutdown asks the worker to exit and tears down the subprocess.
func (c *Coordinator) Shutdown() {
	if c.stdin != nil {
		_ = writeMessage(c.stdin, &Shutdown{})
	}
	c.killWorker()
}

// Scan walks paths, skipping blacklisted entries and cache hits, scanning
// everything else through the worker subprocess. It respawns the worker and
// resumes with the next path whenever the current one crashes. Results are
// reported through each path in scan order; the cache and blacklist are
// saved to disk once the batch completes.
func (c *Coordinator) Scan(ctx context.Context, paths []string) ([]Result, error) {
	results := make([]Result, 0, len(paths))

	for _, path := range paths {
		if c.blacklist.IsBlacklisted(path) {
			results = append(results, Result{Path: path, Status: Blacklisted})
			continue
		}

		info, statErr := os.Stat(path)
		if statErr == nil {
			if entry, ok := c.cache.Lookup(path, info.ModTime(), info.Size()); ok {
				results = append(results, Result{
					Path: path, Status: Cached, Descriptors: entry.Descriptors,
					ModTime: entry.ModTime, Size: entry.Size,
				})
				continue
			}
		}

		result := c.scanOne(ctx, path)
		if statErr == nil {
			result.ModTime = info.ModTime()
			result.Size = info.Size()
		}
		results = append(results, result)

		switch result.Status {
		case Success:
			c.cache.Store(path, CacheEntry{
				ModTime: result.ModTime, Size: result.Size,
				Descriptors: result.Descriptors, LastScanned: time.Now(),
			})
		case Blacklisted:
			c.blacklist.Add(path)
		}
	}

	if err := c.cache.Save(); err != nil {
		return results, err
	}
	if err := c.blacklist.Save(); err != nil {
		return results, err
	}
	return results, nil
}

// scanOne scans a single path, respawning the worker on crash or unusable
// pipe state. It never returns an error: every failure mode maps to a
// Result status so the batch can continue.
func (c *Coordinator) scanOne(ctx context.Context, path string) Result {
	if c.cmd == nil {
		if err := c.spawn(ctx); err != nil {
			return Result{Path: path, Status: Crashed, Error: err.Error()}
		}
	}

	format := pluginFormatOf(path)
	if err := writeMessage(c.stdin, &ScanPlugin{Path: path, Format: format}); err != nil {
		return c.handleCrash(ctx, path, err)
	}

	msgCh := make(chan any, 1)
	errCh := make(chan error, 1)
	go func() {
		for {
			msg, err := readMessage(c.stdout)
			if err != nil {
				errCh <- err
				return
			}
			if _, ok := msg.(*ScanStarted); ok {
				continue
			}
			msgCh <- msg
			return
		}
	}()

	deadline := time.NewTimer(c.scanTimeout)
	defer deadline.Stop()

	for {
		select {
		case msg := <-msgCh:
			switch m := msg.(type) {
			case *ScanComplete:
				return Result{Path: path, Status: Success, Descriptors: m.Descriptors}
			case *ScanFailed:
				return Result{Path: path, Status: Failed, Error: m.Error}
			default:
				return Result{Path: path, Status: Failed, Error: "unexpected response"}
			}
		case err := <-errCh:
			return c.handleCrash(ctx, path, err)
		case <-deadline.C:
			switch c.onTimeout(path) {
			case Skip:
				return Result{Path: path, Status: Timeout}
			case Blacklist:
				return Result{Path: path, Status: Blacklisted}
			default: // WaitLonger
				deadline.Reset(c.scanTimeout)
			}
		case <-ctx.Done():
			return Result{Path: path, Status: Failed, Error: ctx.Err().Error()}
		}
	}
}

// handleCrash records the crash as an EnhancedError (fanning it out to any
// installed event publisher and telemetry reporter — e.g. Sentry, if
// configured — without this package depending on either), then respawns
// the worker so the batch can continue with the next path.
func (c *Coordinator) handleCrash(ctx context.Context, path string, cause error) Result {
	reported := errors.New(cause).Category(errors.CategoryPluginCrashed).
		Context("path", path).Build()

	status := Crashed
	if c.autoBlacklist {
		c.blacklist.Add(path)
		status = Blacklisted
	}
	if err := c.spawn(ctx); err != nil {
		return Result{Path: path, Status: status, Error: reported.Error()}
	}
	return Result{Path: path, Status: status, Error: reported.Error()}
}

// pluginFormatOf guesses a plugin format from its path extension; platform
// packages refine this further when scanning bundle contents.
func pluginFormatOf(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/' && path[i] != '\\'; i-- {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return ""
}
