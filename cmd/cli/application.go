package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/temirov/mango/cmd/cli/forks"
	issuescmd "github.com/temirov/mango/cmd/cli/issues"
	pullrequestscmd "github.com/temirov/mango/cmd/cli/pullrequests"
	repositorycmd "github.com/temirov/mango/cmd/cli/repository"
	"github.com/temirov/mango/internal/contentstore"
	"github.com/temirov/mango/internal/dependencies"
	"github.com/temirov/mango/internal/ledger"
	"github.com/temirov/mango/internal/shared"
	"github.com/temirov/mango/internal/utils"
	flagutils "github.com/temirov/mango/internal/utils/flags"
)

const (
	applicationNameConstant                 = "mango"
	applicationShortDescriptionConstant     = "Decentralized issue and pull request tracker for git repositories"
	applicationLongDescriptionConstant      = "mango records the issues and pull requests of a git repository on a ledger contract and keeps issue bodies in a content-addressed store."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant               = "MANGO"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLedgerFieldConstant        = "ledger_endpoint"
	configurationContentFieldConstant       = "content_backend"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	commandBuildErrorTemplateConstant       = "unable to build command %T: %w"
	rootCommandInfoMessageConstant          = "mango CLI executed"
	rootCommandDebugMessageConstant         = "mango CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	userConfigurationSearchPathConstant     = "$HOME/.mango"
)

var (
	logLevelChoices = flagutils.NewChoiceSet(
		logLevelFlagNameConstant,
		string(utils.LogLevelInfo),
		string(utils.LogLevelDebug),
		string(utils.LogLevelInfo),
		string(utils.LogLevelWarn),
		string(utils.LogLevelError),
	)
	logFormatChoices = flagutils.NewChoiceSet(
		logFormatFlagNameConstant,
		string(utils.LogFormatStructured),
		string(utils.LogFormatStructured),
		string(utils.LogFormatConsole),
	)
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common  ApplicationCommonConfiguration    `mapstructure:"common"`
	Ledger  dependencies.LedgerConfiguration  `mapstructure:"ledger"`
	Content dependencies.ContentConfiguration `mapstructure:"content"`
	Editor  dependencies.EditorConfiguration  `mapstructure:"editor"`
	Fork    dependencies.ForkConfiguration    `mapstructure:"fork"`
	Merge   dependencies.MergeConfiguration   `mapstructure:"merge"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// RepositoryConfiguration extracts the settings repository commands consume.
func (configuration ApplicationConfiguration) RepositoryConfiguration() dependencies.Configuration {
	return dependencies.Configuration{
		Ledger:  configuration.Ledger,
		Content: configuration.Content,
		Editor:  configuration.Editor,
		Fork:    configuration.Fork,
		Merge:   configuration.Merge,
	}
}

// ApplicationDependencies replaces collaborators the commands would otherwise build from configuration.
// Zero values select the OS-backed defaults.
type ApplicationDependencies struct {
	FileSystem          afero.Fs
	GitExecutor         shared.GitExecutor
	InteractiveExecutor shared.InteractiveExecutor
	LedgerConnection    ledger.Connection
	ContentStore        contentstore.Store
	WorkingDirectory    string
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	consoleLogger          *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	ledgerFlagValues       *flagutils.LedgerFlagValues
	commandContextAccessor utils.CommandContextAccessor
	workingDirectory       string
}

type commandBuilder interface {
	Build() (*cobra.Command, error)
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() (*Application, error) {
	return NewApplicationWithDependencies(ApplicationDependencies{})
}

// NewApplicationWithDependencies assembles the CLI application around the provided collaborators.
func NewApplicationWithDependencies(applicationDependencies ApplicationDependencies) (*Application, error) {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant, userConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
		workingDirectory:       strings.TrimSpace(applicationDependencies.WorkingDirectory),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.SetOut(os.Stdout)
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelChoices.Usage(logLevelFlagUsageConstant))
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatChoices.Usage(logFormatFlagUsageConstant))

	defaultLedger := dependencies.DefaultConfiguration().Ledger
	application.ledgerFlagValues = flagutils.BindLedgerFlags(cobraCommand, flagutils.LedgerFlagValues{
		Host:    defaultLedger.Host,
		Port:    defaultLedger.Port,
		Account: defaultLedger.Account,
	})

	environment := dependencies.CommandEnvironment{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConsoleLoggerProvider: application.commandEventsLogger,
		ConfigurationProvider: func() dependencies.Configuration {
			return application.configuration.RepositoryConfiguration()
		},
		FileSystem:          applicationDependencies.FileSystem,
		GitExecutor:         applicationDependencies.GitExecutor,
		InteractiveExecutor: applicationDependencies.InteractiveExecutor,
		LedgerConnection:    applicationDependencies.LedgerConnection,
		ContentStore:        applicationDependencies.ContentStore,
	}

	builders := []commandBuilder{
		&repositorycmd.InitCommandBuilder{Environment: environment},
		&repositorycmd.StatusCommandBuilder{Environment: environment},
		&issuescmd.ListCommandBuilder{Environment: environment},
		&issuescmd.ShowCommandBuilder{Environment: environment},
		&issuescmd.CreateCommandBuilder{Environment: environment},
		&issuescmd.EditCommandBuilder{Environment: environment},
		&issuescmd.DeleteCommandBuilder{Environment: environment},
		&forks.ForkCommandBuilder{Environment: environment},
		&forks.MergeCommandBuilder{Environment: environment},
		&forks.AbortCommandBuilder{Environment: environment},
		&pullrequestscmd.ListCommandBuilder{Environment: environment},
		&pullrequestscmd.ShowCommandBuilder{Environment: environment},
		&pullrequestscmd.OpenCommandBuilder{Environment: environment},
		&pullrequestscmd.CloseCommandBuilder{Environment: environment},
	}
	for _, builder := range builders {
		subcommand, buildError := builder.Build()
		if buildError != nil {
			return nil, fmt.Errorf(commandBuildErrorTemplateConstant, builder, buildError)
		}
		cobraCommand.AddCommand(subcommand)
	}

	application.rootCommand = cobraCommand

	return application, nil
}

// RootCommand exposes the Cobra root command.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// Configuration returns the configuration resolved for the last executed command.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	application, creationError := NewApplication()
	if creationError != nil {
		return creationError
	}
	return application.Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}
	for configurationKey, configurationValue := range dependencies.DefaultConfigurationValues() {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		logLevel, choiceError := logLevelChoices.Canonical(application.logLevelFlagValue)
		if choiceError != nil {
			return choiceError
		}
		application.configuration.Common.LogLevel = logLevel
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		logFormat, choiceError := logFormatChoices.Canonical(application.logFormatFlagValue)
		if choiceError != nil {
			return choiceError
		}
		application.configuration.Common.LogFormat = logFormat
	}

	application.applyLedgerFlags(command)

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	application.consoleLogger = loggerOutputs.ConsoleLogger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationLedgerFieldConstant, net.JoinHostPort(application.configuration.Ledger.Host, strconv.Itoa(application.configuration.Ledger.Port))),
		zap.String(configurationContentFieldConstant, application.configuration.Content.Backend),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		if len(application.workingDirectory) > 0 {
			updatedContext = application.commandContextAccessor.WithWorkingDirectory(updatedContext, application.workingDirectory)
		}
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) applyLedgerFlags(command *cobra.Command) {
	if command == nil || application.ledgerFlagValues == nil {
		return
	}

	flagSetsToInspect := []*pflag.FlagSet{command.PersistentFlags(), command.InheritedFlags()}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	changes := flagutils.DetectLedgerFlagChanges(flagSetsToInspect...)
	if changes.Host {
		application.configuration.Ledger.Host = application.ledgerFlagValues.Host
	}
	if changes.Port {
		application.configuration.Ledger.Port = application.ledgerFlagValues.Port
	}
	if changes.Account {
		application.configuration.Ledger.Account = application.ledgerFlagValues.Account
	}
}

// commandEventsLogger returns the console logger when human-readable output was requested.
func (application *Application) commandEventsLogger() *zap.Logger {
	if !application.humanReadableLoggingEnabled() {
		return nil
	}
	return application.consoleLogger
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	return command.Help()
}

func (application *Application) flushLogger() error {
	return multierr.Combine(
		application.syncLoggerInstance(application.logger),
		application.syncLoggerInstance(application.consoleLogger),
	)
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
