package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"conveyor/internal/collab"
	"conveyor/internal/logging"
)

// Dispatcher maps the final run outcome to one of three notification
// templates and hands it to the Notifier. Sending is strictly
// best-effort: a delivery failure is logged and never changes the
// recorded outcome.
type Dispatcher struct {
	Notifier   collab.Notifier
	Recipients []string
	// Endpoint is the deployed application URL included in success
	// notifications, when known.
	Endpoint string
	Log      *logging.Logger
}

// Dispatch sends the post-run notification for outcome. It is called
// exactly once per run, from the finalizing phase.
func (d *Dispatcher) Dispatch(ctx context.Context, outcome Outcome, rc *RunContext, duration time.Duration) {
	n := collab.Notification{
		Subject:    d.subject(outcome, rc),
		Body:       d.body(outcome, rc, duration),
		Recipients: d.Recipients,
	}

	if err := d.Notifier.Send(ctx, n); err != nil {
		d.Log.Warn("failed to send notification", "error", err, "outcome", string(outcome))
		return
	}
	d.Log.Info("notification sent", "outcome", string(outcome))
}

func (d *Dispatcher) subject(outcome Outcome, rc *RunContext) string {
	var verdict string
	switch outcome {
	case OutcomeSucceeded:
		verdict = "SUCCESS"
	case OutcomeUnstable:
		verdict = "UNSTABLE"
	default:
		verdict = "FAILURE"
	}
	return fmt.Sprintf("%s: %s #%d (%s)", verdict, rc.JobName, rc.RunNumber, rc.Env.Version)
}

func (d *Dispatcher) body(outcome Outcome, rc *RunContext, duration time.Duration) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Job:      %s\n", rc.JobName)
	fmt.Fprintf(&sb, "Run:      #%d\n", rc.RunNumber)
	fmt.Fprintf(&sb, "Version:  %s\n", rc.Env.Version)
	fmt.Fprintf(&sb, "Branch:   %s\n", rc.Branch())
	fmt.Fprintf(&sb, "Duration: %s\n", duration.Round(time.Second))

	switch outcome {
	case OutcomeSucceeded:
		fmt.Fprintf(&sb, "\nArtifacts: %s\n", rc.Env.ArtifactDir)
		if d.Endpoint != "" {
			fmt.Fprintf(&sb, "Deployed:  %s\n", d.Endpoint)
		}
	case OutcomeUnstable:
		sb.WriteString("\nTests reported failures without aborting the build:\n")
		for _, r := range rc.Results() {
			if r.Status == StatusUnstable || (r.Status == StatusFailure && r.BestEffort) {
				fmt.Fprintf(&sb, "  - %s (%s)\n", r.StageName, r.LogPath)
			}
		}
	default:
		sb.WriteString("\nFailed stages:\n")
		for _, r := range rc.Results() {
			if r.Status == StatusFailure && !r.BestEffort {
				fmt.Fprintf(&sb, "  - %s: %s (%s)\n", r.StageName, r.Error, r.LogPath)
			}
		}
	}
	return sb.String()
}
