package domain

// ActionType represents the type of a sync event
type ActionType string

const (
	ActionCopy ActionType = "copy"
)

// SyncEvent is reported once for every file a synchronization visits
type SyncEvent struct {
	Action ActionType `json:"action"`
	Source string     `json:"source"`
	Target string     `json:"target"`
}

// SyncJob is a named source/target pair from the configuration file
type SyncJob struct {
	// Name is the unique identifier for this job
	Name string `mapstructure:"name"`

	// Source directory to mirror from
	Source string `mapstructure:"source"`

	// Target directory to mirror into
	Target string `mapstructure:"target"`

	// Recursive descends into subdirectories
	Recursive bool `mapstructure:"recursive"`

	// Exclude glob patterns, matched against the source-relative slash path
	Exclude []string `mapstructure:"exclude"`

	// Enabled allows disabling jobs without removing them
	Enabled bool `mapstructure:"enabled"`
}

// Validate checks if the job is properly configured
func (j SyncJob) Validate() error {
	if j.Name == "" {
		return ErrConfigInvalid
	}
	if j.Source == "" || j.Target == "" {
		return ErrConfigInvalid
	}
	if j.Source == j.Target {
		return ErrConfigInvalid // source and target cannot be the same
	}
	return nil
}
