package config_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/okian/rotorsim/internal/config"
	"github.com/okian/rotorsim/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestWatch(t *testing.T) {
	convey.Convey("Given a watched config file", t, func() {
		clearConfigEnvVars()
		path := createTempConfigFile("log_level: info\n")
		defer func() { _ = os.Remove(path) }()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		changes := make(chan *config.Config, 4)
		done := make(chan error, 1)
		go func() {
			done <- config.Watch(ctx, path, func(c *config.Config) {
				select {
				case changes <- c:
				default:
				}
			})
		}()

		convey.Convey("When the file is rewritten", func() {
			var got *config.Config
			deadline := time.After(3 * time.Second)
		loop:
			// The watcher may not be registered yet, and a reload can observe
			// the truncated file; keep writing until the new level is seen.
			for {
				_ = os.WriteFile(path, []byte("log_level: debug\n"), 0o600)
				select {
				case c := <-changes:
					if c.LogLevel == "debug" {
						got = c
						break loop
					}
				case <-deadline:
					break loop
				case <-time.After(50 * time.Millisecond):
				}
			}

			convey.Convey("Then the reloaded config should be delivered", func() {
				convey.So(got, convey.ShouldNotBeNil)
				convey.So(got.LogLevel, convey.ShouldEqual, "debug")
			})

			convey.Convey("And cancelling should end the watch", func() {
				cancel()
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(2 * time.Second):
					convey.So("watch did not return", convey.ShouldBeEmpty)
				}
			})
		})
	})

	convey.Convey("Given a path that does not exist", t, func() {
		convey.Convey("Then Watch should fail immediately", func() {
			err := config.Watch(context.Background(), "/non/existent/rotorsim.yaml", func(*config.Config) {})
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
