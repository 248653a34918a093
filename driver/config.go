package driver

import (
	"encoding/json"
	"errors"
	"flag"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	derror "github.com/devaraj-kavali/spark/pkg/errors"
	"github.com/devaraj-kavali/spark/pkg/resourceprofile"
)

const (
	defaultMaster         = "yarn"
	defaultExecutorCores  = 1
	defaultExecutorMemory = "1g"
	defaultTaskCPUs       = 1
)

// NewConfig creates a config for the driver process.
func NewConfig() *Config {
	cfg := &Config{}
	cfg.flagSet = flag.NewFlagSet("driver", flag.ContinueOnError)
	fs := cfg.flagSet

	fs.StringVar(&cfg.ConfigFile, "config", "", "path to config file")
	fs.StringVar(&cfg.Master, "master", defaultMaster, "master endpoint of the cluster manager")
	fs.StringVar(&cfg.AppName, "app-name", "", "human-readable application name")
	fs.BoolVar(&cfg.DynamicAllocation, "dynamic-allocation", false, "enable elastic executor allocation")
	fs.BoolVar(&cfg.ExecutorReuse, "executor-reuse", false, "allow executor reuse across compatible resource profiles")
	fs.Int64Var(&cfg.ExecutorCores, "executor-cores", defaultExecutorCores, "cores per executor for the default profile")
	fs.StringVar(&cfg.ExecutorMemory, "executor-memory", defaultExecutorMemory, `heap memory per executor, e.g. "512m" or "4g"`)
	fs.IntVar(&cfg.TaskCPUs, "task-cpus", defaultTaskCPUs, "cpus per task for the default profile")
	fs.StringVar(&cfg.LogLevel, "L", "info", "log level: debug, info, warn, error, fatal")
	fs.StringVar(&cfg.LogFile, "log-file", "", "log file path")
	fs.StringVar(&cfg.LogFormat, "log-format", "text", `the format of the log, "text" or "json"`)

	return cfg
}

// Config is the configuration of the driver-side resource profile
// subsystem.
type Config struct {
	flagSet *flag.FlagSet

	LogLevel  string `toml:"log-level" json:"log-level"`
	LogFile   string `toml:"log-file" json:"log-file"`
	LogFormat string `toml:"log-format" json:"log-format"`

	ConfigFile string `toml:"config-file" json:"config-file"`

	Master  string `toml:"master" json:"master"`
	AppName string `toml:"app-name" json:"app-name"`

	DynamicAllocation bool `toml:"dynamic-allocation" json:"dynamic-allocation"`
	ExecutorReuse     bool `toml:"executor-reuse" json:"executor-reuse"`

	// Testing relaxes the resource profile admission policy unless
	// StrictProfileValidation asks for the production behavior. Only
	// test harnesses should set it.
	Testing                 bool `toml:"testing" json:"testing"`
	StrictProfileValidation bool `toml:"strict-profile-validation" json:"strict-profile-validation"`

	// default profile settings
	ExecutorCores  int64  `toml:"executor-cores" json:"executor-cores"`
	ExecutorMemory string `toml:"executor-memory" json:"executor-memory"`
	TaskCPUs       int    `toml:"task-cpus" json:"task-cpus"`

	// additional resources of the default profile, e.g. gpus
	ExecutorResources []CustomResource `toml:"executor-resource" json:"executor-resource"`
	TaskResources     []CustomResource `toml:"task-resource" json:"task-resource"`
}

// CustomResource declares one custom resource of the default profile.
type CustomResource struct {
	Name            string  `toml:"name" json:"name"`
	Amount          float64 `toml:"amount" json:"amount"`
	DiscoveryScript string  `toml:"discovery-script" json:"discovery-script"`
	Vendor          string  `toml:"vendor" json:"vendor"`
}

func (c *Config) String() string {
	cfg, err := json.Marshal(c)
	if err != nil {
		log.L().Error("marshal to json", zap.Reflect("driver config", c), zap.Error(err))
	}
	return string(cfg)
}

// Parse parses flag definitions from the argument list.
func (c *Config) Parse(arguments []string) error {
	// Parse first to get config file.
	err := c.flagSet.Parse(arguments)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return derror.Wrap(derror.ErrMasterConfigParseFlagSet, err)
	}

	// Load config file if specified.
	if c.ConfigFile != "" {
		err = c.configFromFile(c.ConfigFile)
		if err != nil {
			return err
		}
	}

	// Parse again to replace with command line options.
	err = c.flagSet.Parse(arguments)
	if err != nil {
		return derror.Wrap(derror.ErrMasterConfigParseFlagSet, err)
	}

	if len(c.flagSet.Args()) != 0 {
		return derror.ErrMasterConfigInvalidFlag.GenWithStackByArgs(c.flagSet.Arg(0))
	}
	return c.adjust()
}

func (c *Config) adjust() error {
	if c.Master == "" {
		c.Master = defaultMaster
	}
	if c.ExecutorCores <= 0 {
		c.ExecutorCores = defaultExecutorCores
	}
	if c.ExecutorMemory == "" {
		c.ExecutorMemory = defaultExecutorMemory
	}
	if c.TaskCPUs <= 0 {
		c.TaskCPUs = defaultTaskCPUs
	}
	if _, _, err := parseSizeSuffix(c.ExecutorMemory); err != nil {
		return err
	}
	return nil
}

// configFromFile loads config from file.
func (c *Config) configFromFile(path string) error {
	metaData, err := toml.DecodeFile(path, c)
	if err != nil {
		return derror.Wrap(derror.ErrMasterDecodeConfigFile, err)
	}
	undecoded := metaData.Undecoded()
	if len(undecoded) > 0 {
		var undecodedItems []string
		for _, item := range undecoded {
			undecodedItems = append(undecodedItems, item.String())
		}
		return derror.ErrMasterConfigUnknownItem.GenWithStackByArgs(strings.Join(undecodedItems, ","))
	}
	return nil
}

// ClusterFacts derives the admission policy inputs from the config.
func (c *Config) ClusterFacts() resourceprofile.ClusterFacts {
	return resourceprofile.ClusterFacts{
		IsYarn:                   strings.HasPrefix(c.Master, "yarn"),
		DynamicAllocationEnabled: c.DynamicAllocation,
		TestingOverride:          c.Testing && !c.StrictProfileValidation,
	}
}

// DefaultProfile builds the default resource profile from the
// application-level settings.
func (c *Config) DefaultProfile() (*resourceprofile.ResourceProfile, error) {
	amount, units, err := parseSizeSuffix(c.ExecutorMemory)
	if err != nil {
		return nil, err
	}

	execReqs := resourceprofile.NewExecutorResourceRequests().
		Cores(c.ExecutorCores).
		Memory(amount, units)
	for _, res := range c.ExecutorResources {
		execReqs.Resource(res.Name, int64(res.Amount), res.DiscoveryScript, res.Vendor)
	}

	taskReqs := resourceprofile.NewTaskResourceRequests().CPUs(c.TaskCPUs)
	for _, res := range c.TaskResources {
		taskReqs.Resource(res.Name, res.Amount)
	}

	return resourceprofile.NewResourceProfile(
		resourceprofile.DefaultProfileID, execReqs, taskReqs), nil
}

// parseSizeSuffix splits a size string such as "512m" into its numeric
// amount and unit suffix.
func parseSizeSuffix(s string) (int64, string, error) {
	s = strings.TrimSpace(s)
	split := len(s)
	for split > 0 && !isDigit(s[split-1]) {
		split--
	}
	amount, err := strconv.ParseInt(s[:split], 10, 64)
	if err != nil {
		return 0, "", derror.ErrInvalidArgument.GenWithStackByArgs("invalid size: " + s)
	}
	return amount, strings.ToLower(s[split:]), nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
