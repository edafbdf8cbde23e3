package conductor

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/valksor/go-opsdesk/internal/log"
	"github.com/valksor/go-opsdesk/internal/sidecar"
	"github.com/valksor/go-opsdesk/internal/storage"
)

// ErrNoTarget is returned by AutoAddress when the request names no item.
var ErrNoTarget = errors.New("auto workflow needs an issue, pr or task")

// StopStatuses are local_status values after which an item is not
// addressed.
var StopStatuses = []string{"blocked", "wontfix", "needs_info", "done"}

// RiskHigh is the risk value that needs AllowHighRisk.
const RiskHigh = "high"

// AutoResult holds the result of a triage-then-address run
type AutoResult struct {
	Triage      *ExecutedRun `json:"triage,omitempty"`
	Address     *ExecutedRun `json:"address,omitempty"`
	LocalStatus string       `json:"local_status,omitempty"`
	Risk        string       `json:"risk,omitempty"`
	SkipReason  string       `json:"skip_reason,omitempty"` // Why address was not run
	FailedAt    string       `json:"failed_at,omitempty"`   // Phase that exited non-zero
}

// ExitCode is the exit code of the last command that ran.
func (r *AutoResult) ExitCode() int {
	if r.Address != nil {
		return r.Address.ExitCode
	}
	if r.Triage != nil {
		return r.Triage.ExitCode
	}
	return 0
}

// AutoAddress runs the triage command, re-reads the sidecar the triage was
// expected to update, and runs the address command only when the sidecar
// allows it. A non-zero triage exit ends the workflow with that exit code.
func (c *Conductor) AutoAddress(ctx context.Context, req RunRequest, opts AutoOptions) (*AutoResult, error) {
	if req.Target == nil {
		return nil, ErrNoTarget
	}
	defaults := DefaultAutoOptions()
	opts.TriageCommand = cmp.Or(opts.TriageCommand, defaults.TriageCommand)
	opts.AddressCommand = cmp.Or(opts.AddressCommand, defaults.AddressCommand)

	result := &AutoResult{}

	triageReq := req
	triageReq.Command = opts.TriageCommand
	triageReq.EnsureSidecar = true
	triage, err := c.Run(ctx, triageReq)
	if err != nil {
		result.FailedAt = "triage"
		return result, fmt.Errorf("triage: %w", err)
	}
	result.Triage = triage
	if triage.ExitCode != 0 {
		result.FailedAt = "triage"
		log.Debug("triage failed, not addressing", "exit_code", triage.ExitCode)
		return result, nil
	}

	it := triage.Context.Item
	var rec *sidecar.Record
	err = c.session(func(store storage.Store) error {
		var err error
		rec, err = sidecar.Find(store, it.Kind, it.Key)
		return err
	})
	if err != nil {
		return result, fmt.Errorf("read sidecar after triage: %w", err)
	}
	if rec == nil {
		result.SkipReason = "no sidecar after triage"
		return result, nil
	}

	result.LocalStatus = rec.LocalStatus()
	result.Risk = rec.Risk()
	if reason := gate(result.LocalStatus, result.Risk, opts.AllowHighRisk); reason != "" {
		result.SkipReason = reason
		log.Debug("address skipped", "reason", reason)
		return result, nil
	}

	addressReq := req
	addressReq.Command = opts.AddressCommand
	addressReq.EnsureSidecar = false
	address, err := c.Run(ctx, addressReq)
	if err != nil {
		result.FailedAt = "address"
		return result, fmt.Errorf("address: %w", err)
	}
	result.Address = address
	if address.ExitCode != 0 {
		result.FailedAt = "address"
	}

	return result, nil
}

// gate returns why an item must not be addressed, or "".
func gate(status, risk string, allowHighRisk bool) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if slices.Contains(StopStatuses, status) {
		return "local_status is " + status
	}
	if strings.EqualFold(strings.TrimSpace(risk), RiskHigh) && !allowHighRisk {
		return "risk is high"
	}
	return ""
}
