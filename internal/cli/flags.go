package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile        string
	LogLevel       string
	StateDir       string
	UILanguage     string
	SelectLanguage bool

	// Project flags
	Root     string
	Language string

	// Processing flags
	IDsFile  string
	Mode     string
	DryRun   bool
	NoBackup bool
	Workers  int
	Report   string

	// clean-lint and detect flags
	Output string
	Apply  bool

	// history flags
	Limit int
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		LogLevel: "info",
		Root:     ".",
		Mode:     "comment",
		Limit:    20,
	}
}
