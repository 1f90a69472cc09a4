package model

// Settings is the TOML settings file layout
type Settings struct {
	ITS      ITSSettings                `toml:"its"`
	Projects map[string]ProjectSettings `toml:"projects"`
}

// ITSSettings configures issue extraction and rule lookup
type ITSSettings struct {
	// Name selects the plugin-specific rule file actions-<name>.config
	Name              string `toml:"name"`
	IssuePattern      string `toml:"issue_pattern"`
	IssuePatternGroup int    `toml:"issue_pattern_group"`
	// EnabledByDefault applies to projects without an entry in Projects
	EnabledByDefault bool `toml:"enabled_by_default"`
}

// ProjectSettings configures one repository
type ProjectSettings struct {
	Enabled *bool `toml:"enabled"`
	// Branches are doublestar globs over full ref names; empty means all
	Branches   []string `toml:"branches"`
	ITSProject string   `toml:"its_project"`
}

// DefaultSettings returns settings used when no file is given
func DefaultSettings() *Settings {
	return &Settings{
		ITS: ITSSettings{
			Name:              "github",
			IssuePattern:      `#(\d+)`,
			IssuePatternGroup: 1,
			EnabledByDefault:  true,
		},
		Projects: map[string]ProjectSettings{},
	}
}
