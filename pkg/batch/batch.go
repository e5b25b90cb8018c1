package batch

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/monshunter/fleetftp/pkg/log"
	"github.com/monshunter/fleetftp/pkg/master"
	"github.com/monshunter/fleetftp/pkg/models"
	"github.com/monshunter/fleetftp/pkg/transfer"
	"github.com/monshunter/fleetftp/pkg/utils"
)

// DefaultOutputDir is the download root used when none is given
const DefaultOutputDir = "downloads"

// Skip reasons
const (
	ReasonBlankField   = "equipment_id, address or model is blank"
	ReasonUnsafeID     = "equipment_id does not name a directory under the output root"
	ReasonUnknownModel = "unknown model"
)

// Outcome is the result of one master data row
type Outcome struct {
	Device    master.Device
	LocalPath string
	Bytes     int64
	// Skipped is set when no transfer was attempted
	Skipped string
	Err     error
}

// Succeeded reports whether the row was downloaded
func (o Outcome) Succeeded() bool {
	return o.Skipped == "" && o.Err == nil
}

// Summary aggregates the outcomes of a run in master data order
type Summary struct {
	Succeeded int
	Failed    int
	Attempted int
	Outcomes  []Outcome
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	if o.Skipped == "" {
		s.Attempted++
	}
	if o.Succeeded() {
		s.Succeeded++
	} else {
		s.Failed++
	}
}

// String renders the end-of-run totals
func (s Summary) String() string {
	return fmt.Sprintf("Done: succeeded %d, failed %d", s.Succeeded, s.Failed)
}

// Runner downloads the model's remote file from every device, one device
// at a time.
type Runner struct {
	Models    *models.Table
	Fetcher   transfer.Fetcher
	OutputDir string
	// Port is used for ftp models that do not set their own
	Port    int
	Passive bool
}

// LocalPath returns <outputDir>/<equipmentID>/<basename of remotePath>.
// Remote paths always use forward slashes, whatever the local OS.
func LocalPath(outputDir, equipmentID, remotePath string) string {
	return filepath.Join(outputDir, equipmentID, path.Base(remotePath))
}

// PrepareOutput creates the output root. Call it before Run.
func (r *Runner) PrepareOutput() error {
	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", r.OutputDir, err)
	}
	return nil
}

// Run processes devices in order. A failing row never stops the run; only
// a cancelled context does, and the summary then covers every row processed
// so far. The output root is expected to exist, see PrepareOutput.
func (r *Runner) Run(ctx context.Context, devices []master.Device) (Summary, error) {
	var summary Summary
	for _, d := range devices {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.add(r.process(ctx, d))
	}
	return summary, nil
}

func (r *Runner) process(ctx context.Context, d master.Device) Outcome {
	o := Outcome{Device: d}

	if d.EquipmentID == "" || d.Address == "" || d.Model == "" {
		o.Skipped = ReasonBlankField
		log.Warnf("[skipped] row %d, eqp_id=%s: %s", d.Row, d.EquipmentID, ReasonBlankField)
		return o
	}
	// the id becomes a directory name; it must stay below the output root
	// and not collapse onto it
	if !filepath.IsLocal(d.EquipmentID) || filepath.Clean(d.EquipmentID) == "." {
		o.Skipped = ReasonUnsafeID
		log.Errorf("[failed] row %d, eqp_id=%s: %s", d.Row, d.EquipmentID, ReasonUnsafeID)
		return o
	}

	entry, ok := r.Models.Lookup(d.Model)
	if !ok {
		o.Skipped = ReasonUnknownModel
		log.Errorf("[failed] eqp_id=%s, address=%s: %s '%s' (configured: %s)",
			d.EquipmentID, d.Address, ReasonUnknownModel, d.Model, strings.Join(r.Models.Names(), ", "))
		return o
	}

	o.LocalPath = LocalPath(r.OutputDir, d.EquipmentID, entry.RemotePath)
	req := transfer.Request{
		Protocol:   entry.Protocol,
		Host:       d.Address,
		Port:       entry.Port,
		User:       entry.User,
		Password:   entry.Password,
		KeyFile:    entry.KeyFile,
		RemotePath: entry.RemotePath,
		LocalPath:  o.LocalPath,
		Passive:    r.Passive,
	}
	if req.Port == 0 && entry.Protocol == models.ProtocolFTP {
		req.Port = r.Port
	}

	log.Debugf("fetching %s from %s:%d as %s", entry.RemotePath, d.Address, req.Port, entry.User)
	o.Bytes, o.Err = r.Fetcher.Fetch(ctx, req)
	if o.Err != nil {
		log.Errorf("[failed] eqp_id=%s, address=%s (%s): %v",
			d.EquipmentID, d.Address, transfer.Classify(o.Err), o.Err)
		return o
	}

	log.Infof("[ok] eqp_id=%s, address=%s, model=%s -> %s (%s)",
		d.EquipmentID, d.Address, d.Model, o.LocalPath, utils.FormatSize(o.Bytes))
	return o
}
