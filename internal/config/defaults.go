package config

const (
	defaultConfigPath            = "~/.config/creators/config.toml"
	defaultDataDir               = "~/.local/share/creators"
	defaultEMLDir                = "~/.local/share/creators/eml"
	defaultCorrectionsDir        = "~/.config/creators/corrections"
	defaultSnapshotDir           = "~/.local/share/creators/possible_dups"
	defaultLogDir                = "~/.local/share/creators/logs"
	defaultDatabasePath          = "~/.local/share/creators/creators.db"
	defaultLockPath              = "~/.local/share/creators/update.lock"
	defaultNicknamesFile         = "corrections_nicknames.xml"
	defaultPersonVariantsFile    = "corrections_name_variants.xml"
	defaultOverridesFile         = "corrections_overrides.xml"
	defaultIdentifierFile        = "corrections_orcids.xml"
	defaultOrganizationsFile     = "organizations.xml"
	defaultPASTABaseURL          = "https://pasta.lternet.edu"
	defaultBurstSize             = 10
	defaultMaxRetries            = 5
	defaultRetryDelaySeconds     = 1
	defaultRequestTimeoutSeconds = 60
	defaultFromDate              = "2021-10-01"
	defaultAPIBind               = "127.0.0.1:5000"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
)

// FromDateLayout is the date format of the change feed's fromDate parameter.
const FromDateLayout = "2006-01-02"

func defaultSkipScopes() []string {
	return []string{
		"ecotrends",
		"msb-cap",
		"msb-paleon",
		"msb-tempbiodev",
		"lter-landsat",
		"lter-landsat-ledaps",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:        defaultDataDir,
			EMLDir:         defaultEMLDir,
			CorrectionsDir: defaultCorrectionsDir,
			SnapshotDir:    defaultSnapshotDir,
			LogDir:         defaultLogDir,
			DatabasePath:   defaultDatabasePath,
			LockPath:       defaultLockPath,
		},
		Corrections: Corrections{
			Nicknames:             defaultNicknamesFile,
			PersonVariants:        defaultPersonVariantsFile,
			Overrides:             defaultOverridesFile,
			IdentifierCorrections: defaultIdentifierFile,
			Organizations:         defaultOrganizationsFile,
		},
		PASTA: PASTA{
			BaseURL:               defaultPASTABaseURL,
			BurstSize:             defaultBurstSize,
			MaxRetries:            defaultMaxRetries,
			RetryDelaySeconds:     defaultRetryDelaySeconds,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			DefaultFromDate:       defaultFromDate,
			SkipScopes:            defaultSkipScopes(),
		},
		Matching: Matching{
			CreatorsOnly:          true,
			MatchSharedIdentifier: true,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
