// Package slack posts incident lifecycle summaries to a Slack channel.
package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/akmatori/incident-analyst/internal/services"
	"github.com/akmatori/incident-analyst/internal/utils"
)

// maxFieldLen keeps free-text fields well under Slack's section limit
const maxFieldLen = 500

// Notifier posts submitted and resolved incidents to one channel.
// Fix attempts are only streamed over the event feed.
type Notifier struct {
	client   *slack.Client
	resolver *ChannelResolver
	channel  string
	logger   *zap.Logger
}

// NotifierOption configures a Notifier
type NotifierOption func(*notifierOptions)

type notifierOptions struct {
	apiURL string
	logger *zap.Logger
}

// WithAPIURL points the client at a different Slack API base URL
func WithAPIURL(url string) NotifierOption {
	return func(o *notifierOptions) {
		o.apiURL = url
	}
}

// WithLogger sets the notifier logger
func WithLogger(logger *zap.Logger) NotifierOption {
	return func(o *notifierOptions) {
		o.logger = logger
	}
}

// NewNotifier creates a notifier. It returns nil when token or channel is
// empty, which callers treat as "notifications disabled".
func NewNotifier(token, channel string, opts ...NotifierOption) *Notifier {
	token = strings.TrimSpace(token)
	channel = strings.TrimSpace(channel)
	if token == "" || channel == "" {
		return nil
	}

	o := notifierOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	var clientOpts []slack.Option
	if o.apiURL != "" {
		apiURL := o.apiURL
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		clientOpts = append(clientOpts, slack.OptionAPIURL(apiURL))
	}

	client := slack.New(token, clientOpts...)
	return &Notifier{
		client:   client,
		resolver: NewChannelResolver(client, o.logger),
		channel:  channel,
		logger:   o.logger,
	}
}

// Notify implements services.Notifier
func (n *Notifier) Notify(ctx context.Context, event services.Event) error {
	text, ok := formatEvent(event)
	if !ok {
		return nil
	}

	channelID, err := n.resolver.ResolveChannel(ctx, n.channel)
	if err != nil {
		return fmt.Errorf("failed to resolve channel: %w", err)
	}

	_, ts, err := n.client.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)),
	)
	if err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}

	n.logger.Debug("Posted incident notification",
		zap.Uint("incident_id", event.IncidentID),
		zap.String("event", string(event.Type)),
		zap.String("ts", ts))
	return nil
}

// formatEvent renders the message text, reporting false for events that are not posted
func formatEvent(e services.Event) (string, bool) {
	var b strings.Builder
	switch e.Type {
	case services.EventSubmitted:
		fmt.Fprintf(&b, ":rotating_light: *Incident #%d submitted*\n", e.IncidentID)
		if len(e.RootCauses) > 0 {
			fmt.Fprintf(&b, "*Suspected root causes:* %s\n", strings.Join(e.RootCauses, ", "))
		}
		if e.Confidence != "" {
			fmt.Fprintf(&b, "*Confidence:* %s\n", e.Confidence)
		}
		if e.SuggestedFix != "" {
			fmt.Fprintf(&b, "*Suggested fix:* %s\n", utils.TruncateText(e.SuggestedFix, maxFieldLen))
		}
		if e.SimilarCount > 0 {
			fmt.Fprintf(&b, "_%d similar resolved incident(s) found_\n", e.SimilarCount)
		}
		if e.Source != "" {
			fmt.Fprintf(&b, "_Analysis by %s_", e.Source)
		}
	case services.EventResolved:
		fmt.Fprintf(&b, ":white_check_mark: *Incident #%d resolved*\n", e.IncidentID)
		if e.ResolutionNotes != "" {
			fmt.Fprintf(&b, "*Resolution:* %s", utils.TruncateText(e.ResolutionNotes, maxFieldLen))
		}
	default:
		return "", false
	}
	return strings.TrimRight(b.String(), "\n"), true
}
