package qcmpipeline

// Global threshold defaults. Per-module biomedical thresholds come from the
// profile file; context and keywords thresholds are global knobs. All of
// these are tunable configuration, not invariants.
const (
	DefaultBiomedicalThreshold = 0.05
	DefaultContextThreshold    = 0.60
	DefaultKeywordsThreshold   = 0.30
)

// ModuleProfiles maps module id to its per-topic configuration. Absent
// modules fall back to the global defaults.
type ModuleProfiles map[string]*ModuleProfile

// LoadModuleProfiles reads the profile file. A missing file is not an error:
// every lookup then resolves to defaults.
func LoadModuleProfiles(path string) (ModuleProfiles, error) {
	if path == "" {
		return ModuleProfiles{}, nil
	}
	var profiles ModuleProfiles
	if err := LoadJSON(path, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// BiomedicalThreshold returns the adaptive threshold for moduleID, or the
// global default when the module has no profile.
func (mp ModuleProfiles) BiomedicalThreshold(moduleID string) float64 {
	if p, ok := mp[moduleID]; ok && p.BiomedicalThreshold > 0 {
		return p.BiomedicalThreshold
	}
	return DefaultBiomedicalThreshold
}

// ExamWeights returns the normalized sampling weights of all modules that
// declare one. Nil when no module declares a weight.
func (mp ModuleProfiles) ExamWeights() map[string]float64 {
	weights := make(map[string]float64)
	total := 0.0
	for moduleID, p := range mp {
		if p.ExamWeight > 0 {
			weights[moduleID] = p.ExamWeight
			total += p.ExamWeight
		}
	}
	if total == 0 {
		return nil
	}
	for moduleID := range weights {
		weights[moduleID] /= total
	}
	return weights
}
