package types

// FileOperation describes a single pending transfer of one file into the
// target tree. Instances only live for the duration of a sort run.
type FileOperation struct {
	SourcePath string    `json:"source_path"`
	TargetPath string    `json:"target_path"`
	Category   string    `json:"category"` // relative subtree label, for logging
	Kind       Operation `json:"kind"`
}
