package release

import (
	"fmt"
	"time"
)

// Outcome is the per-entry result of a deployment.
type Outcome string

// Possible deployment outcomes.
const (
	OutcomeDeployed           Outcome = "deployed"
	OutcomeSkippedUnsupported Outcome = "skipped_unsupported"
	OutcomeTransferFailed     Outcome = "transfer_failed"
)

// ArchitectureResult records what happened to one entry of the device ABI list.
type ArchitectureResult struct {
	// Entry is the raw ABI list entry.
	Entry string `yaml:"abi"`
	// Outcome is the resolution of the entry.
	Outcome Outcome `yaml:"outcome"`
	// Primary marks the device's primary ABI.
	Primary bool `yaml:"primary,omitempty"`
	// DevicePath is where the binary was (or would have been) installed.
	DevicePath string `yaml:"device_path,omitempty"`
	// Reason explains a skip or failure.
	Reason string `yaml:"reason,omitempty"`
}

// DeploymentReport accumulates the results of one deployment call.
type DeploymentReport struct {
	ID      string        `yaml:"id"`
	Variant string        `yaml:"variant"`
	Profile DeviceProfile `yaml:"device"`
	// CleanupError is set when no removal strategy succeeded; it never fails the deployment.
	CleanupError string               `yaml:"cleanup_error,omitempty"`
	Results      []ArchitectureResult `yaml:"results"`
	StartedAt    time.Time            `yaml:"started_at"`
	FinishedAt   time.Time            `yaml:"finished_at"`
}

// Add appends a result and returns the report, so the ABI loop reads as a fold.
func (r *DeploymentReport) Add(result ArchitectureResult) *DeploymentReport {
	r.Results = append(r.Results, result)

	return r
}

// Count returns how many entries ended with outcome.
func (r *DeploymentReport) Count(outcome Outcome) int {
	n := 0

	for _, result := range r.Results {
		if result.Outcome == outcome {
			n++
		}
	}

	return n
}

// Succeeded reports whether at least one architecture was deployed.
func (r *DeploymentReport) Succeeded() bool {
	return r.Count(OutcomeDeployed) > 0
}

// Primary returns the result of the primary ABI entry, if the device listed it.
func (r *DeploymentReport) Primary() (ArchitectureResult, bool) {
	for _, result := range r.Results {
		if result.Primary {
			return result, true
		}
	}

	return ArchitectureResult{}, false
}

// Summary renders a one-line human readable outcome.
func (r *DeploymentReport) Summary() string {
	deployed := r.Count(OutcomeDeployed)
	counts := fmt.Sprintf("%d of %d entries deployed, %d skipped, %d failed",
		deployed, len(r.Results), r.Count(OutcomeSkippedUnsupported), r.Count(OutcomeTransferFailed))

	if deployed == 0 {
		return "no architecture deployed: " + counts
	}

	return counts
}
