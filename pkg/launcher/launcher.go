// Package launcher opens converted files in a viewer application.
package launcher

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/browser"
	"github.com/sirupsen/logrus"

	"github.com/encodingman/encodingman/pkg/config"
	"github.com/encodingman/encodingman/pkg/errors"
)

// Opener hands a file to the desktop's default handler.
type Opener func(path string) error

// Launcher starts the configured application on a file. It does not wait for
// the application to exit.
type Launcher struct {
	app    string
	opener Opener
	start  func(ctx context.Context, app, path string) error
	log    logrus.FieldLogger
}

// New creates a launcher for app. An empty app or config.SystemDefaultApp
// uses the platform's default handler.
func New(app string) *Launcher {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	return &Launcher{
		app:    app,
		opener: browser.OpenFile,
		start:  startProcess,
		log:    discard,
	}
}

// WithOpener replaces the default-handler opener.
func (l *Launcher) WithOpener(o Opener) *Launcher {
	l.opener = o
	return l
}

// WithLogger sets the logger.
func (l *Launcher) WithLogger(log logrus.FieldLogger) *Launcher {
	l.log = log
	return l
}

// App returns the configured application.
func (l *Launcher) App() string {
	return l.app
}

// SystemDefault reports whether the platform handler is used.
func (l *Launcher) SystemDefault() bool {
	return l.app == "" || l.app == config.SystemDefaultApp
}

// Open launches the viewer on path. Failures carry CodeLaunchFailed.
func (l *Launcher) Open(ctx context.Context, path string) error {
	log := l.log.WithFields(logrus.Fields{"path": path, "app": l.app})

	if _, err := os.Stat(path); err != nil {
		return launchErr(path, l.app, err)
	}

	if l.SystemDefault() {
		if err := l.opener(path); err != nil {
			log.WithError(err).Warn("default handler failed")
			return launchErr(path, l.app, err)
		}
		log.Debug("opened with default handler")
		return nil
	}

	if _, err := os.Stat(l.app); err != nil {
		if _, lookErr := exec.LookPath(l.app); lookErr != nil {
			return launchErr(path, l.app, err)
		}
	}
	if err := l.start(ctx, l.app, path); err != nil {
		log.WithError(err).Warn("application failed to start")
		return launchErr(path, l.app, err)
	}
	log.Debug("opened")
	return nil
}

func launchErr(path, app string, cause error) error {
	return errors.Wrap(cause, errors.CodeLaunchFailed, "cannot open file").
		WithContext("path", path).
		WithContext("app", app)
}

func startProcess(ctx context.Context, app, path string) error {
	cmd := exec.CommandContext(context.WithoutCancel(ctx), app, path)
	if err := cmd.Start(); err != nil {
		return err
	}
	// reap in the background
	go cmd.Wait()
	return nil
}
