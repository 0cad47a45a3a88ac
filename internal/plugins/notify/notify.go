// Package notify publishes a build summary to NATS after a full build.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/bang/internal/config"
	"git.home.luguber.info/inful/bang/internal/events"
	"git.home.luguber.info/inful/bang/internal/logfields"
	"git.home.luguber.info/inful/bang/internal/plugin"
)

const (
	// DefaultSubject is used when nats.subject is not set.
	DefaultSubject = "bang.build"

	defaultTimeout = 5 * time.Second
)

// Summary is the published message.
type Summary struct {
	Output   string    `json:"output"`
	Items    int       `json:"items"`
	Host     string    `json:"host,omitempty"`
	Finished time.Time `json:"finished"`
}

// Plugin publishes a Summary on output.finish.
type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (*Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "notify",
		Version:     "v1.0.0",
		Type:        plugin.TypePublisher,
		Description: "NATS build notifications",
	}
}

// Configure binds the publisher. The server comes from nats.url, the
// subject from nats.subject. Settings: jetstream (publish with
// acknowledgement, default false), timeout (default 5s), required (fail
// the build when publishing fails, default false).
func (*Plugin) Configure(_ context.Context, host plugin.Host, settings plugin.Settings) error {
	useJS := settings.Bool("jetstream", false)
	timeout := settings.Duration("timeout", defaultTimeout)
	required := settings.Bool("required", false)

	events.On(host.Bus(), events.OutputFinish, "notify", func(ctx context.Context, fin *plugin.OutputFinish) error {
		cfg := host.Config()
		url := cfg.String("nats_url")
		if url == "" {
			host.Logger().Debug("No NATS server configured, skipping notification")
			return nil
		}
		subject := cfg.String("nats_subject")
		if subject == "" {
			subject = DefaultSubject
		}
		msg := Summary{
			Output:   fin.OutputDir,
			Items:    len(fin.Items),
			Host:     cfg.String(config.KeyHost),
			Finished: time.Now().UTC(),
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := Publish(ctx, url, subject, msg, useJS, timeout); err != nil {
			if required {
				return plugin.Error("notify", "publish", err)
			}
			host.Logger().Warn("Build notification failed", logfields.URL(url), logfields.Error(err))
			return nil
		}
		host.Logger().Info("Build notification published", logfields.URL(url), logfields.Count(msg.Items))
		return nil
	})
	return nil
}

// Publish sends msg to subject on the server at url, through JetStream
// when useJS is set.
func Publish(ctx context.Context, url, subject string, msg Summary, useJS bool, timeout time.Duration) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	conn, err := nats.Connect(url, nats.Name("bang"), nats.Timeout(timeout), nats.NoReconnect())
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer conn.Close()

	if useJS {
		js, err := jetstream.New(conn)
		if err != nil {
			return fmt.Errorf("failed to create JetStream context: %w", err)
		}
		if _, err := js.Publish(ctx, subject, data); err != nil {
			return fmt.Errorf("failed to publish summary: %w", err)
		}
		return nil
	}

	if err := conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish summary: %w", err)
	}
	if err := conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	return nil
}
