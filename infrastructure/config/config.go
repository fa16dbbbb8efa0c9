package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/prismledger/prismd/infrastructure/logger"
)

const (
	defaultConfigFilename = "prismd.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "prismd.log"
	defaultErrLogFilename = "prismd_err.log"
	defaultCacheSizeMiB   = 256
)

var (
	// DefaultAppDir is the default home directory for prismd.
	DefaultAppDir = defaultAppDir()

	defaultConfigFile = filepath.Join(DefaultAppDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(DefaultAppDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(DefaultAppDir, defaultLogDirname)
)

// Flags defines the configuration options for prismd.
//
// See LoadConfig for details on the configuration load process.
type Flags struct {
	ConfigFile   string `short:"C" long:"configfile" description:"Path to configuration file"`
	AppDir       string `short:"b" long:"appdir" description:"Directory to store data"`
	LogDir       string `long:"logdir" description:"Directory to log output."`
	LogLevel     string `short:"d" long:"loglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	CacheSizeMiB int    `long:"cachesize" description:"Size of the database block cache in MiB"`
	NetworkFlags
}

// Config defines the configuration options for prismd.
//
// See LoadConfig for details on the configuration load process.
type Config struct {
	*Flags

	// DataDir is AppDir namespaced by the active network
	DataDir string
}

func defaultAppDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".prismd"
	}
	return filepath.Join(homeDir, ".prismd")
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultAppDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:   defaultConfigFile,
		AppDir:       defaultDataDir,
		LogDir:       defaultLogDir,
		LogLevel:     defaultLogLevel,
		CacheSizeMiB: defaultCacheSizeMiB,
	}
}

// LoadConfig initializes and parses the config using a config file and the
// given command line arguments.
//
// The configuration proceeds as follows:
// 	1) Start with a default config with sane settings
// 	2) Pre-parse the command line to check for an alternative config file
// 	3) Load configuration file overwriting defaults with any specified options
// 	4) Parse CLI options and overwrite/add any specified options
//
// The above results in prismd functioning properly without any config settings
// while still allowing the user to override settings with config files and
// command line options. Command line options always take precedence.
func LoadConfig(appName string, args []string) (*Config, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file was specified. Any errors aside from the help message error can
	// be ignored here since they will be caught by the final parse below.
	preCfg := *cfgFlags
	preParser := flags.NewNamedParser(appName, flags.HelpFlag)
	_, err := preParser.AddGroup("Application Options", "", &preCfg)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	_, err = preParser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, err
		}
	}

	usageMessage := fmt.Sprintf("Use %s -h to show usage", appName)
	parser := flags.NewNamedParser(appName, flags.Default)
	_, err = parser.AddGroup("Application Options", "", cfgFlags)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	// Load additional config from file. A missing file at the default
	// location is not an error.
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		if _, ok := err.(*os.PathError); !ok || preCfg.ConfigFile != defaultConfigFile {
			return nil, errors.Wrapf(err, "error parsing config file %s. %s", preCfg.ConfigFile, usageMessage)
		}
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}

	err = cfgFlags.ResolveNetwork(parser)
	if err != nil {
		return nil, errors.Wrap(err, usageMessage)
	}

	if cfgFlags.CacheSizeMiB <= 0 {
		return nil, errors.Errorf("cachesize must be positive, got %d. %s", cfgFlags.CacheSizeMiB, usageMessage)
	}

	if cfgFlags.LogLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}

	// Append the network type to the data directory so it is "namespaced"
	// per network. All data is specific to a network, so namespacing the
	// data directory means the stored leaders of one network can never be
	// read as the leaders of another.
	cfg := &Config{Flags: cfgFlags}
	cfg.AppDir = cleanAndExpandPath(cfg.AppDir)
	cfg.DataDir = filepath.Join(cfg.AppDir, cfg.NetParams().Name)

	// Append the network type to the log directory so it is "namespaced"
	// per network in the same fashion as the data directory.
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.NetParams().Name)

	return cfg, nil
}

// InitLogging initializes the log files and levels according to the configuration
func (cfg *Config) InitLogging() error {
	err := logger.InitLog(filepath.Join(cfg.LogDir, defaultLogFilename),
		filepath.Join(cfg.LogDir, defaultErrLogFilename))
	if err != nil {
		return err
	}
	return logger.ParseAndSetLogLevels(cfg.LogLevel)
}
