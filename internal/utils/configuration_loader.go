package utils

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	configurationKeySeparatorConstant               = "."
	environmentKeySeparatorConstant                 = "_"
	listSeparatorConstant                           = ","
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
	environmentBindingErrorTemplateConstant         = "failed to bind environment variable for %s: %w"
)

// ConfigurationLoader layers configuration sources into a target struct through Viper.
//
// Precedence from lowest to highest: default values, embedded configuration, the first configuration
// file found on the search paths (or the explicit file), then PREFIX_SECTION_KEY environment variables.
// Durations decode from strings such as "5m", and list settings accept comma-separated strings.
type ConfigurationLoader struct {
	configurationName string
	configurationType string
	environmentPrefix string
	searchPaths       []string
	embeddedData      []byte
	embeddedType      string
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader creates a loader for <configurationName>.<configurationType> files on the search paths.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string(nil), searchPaths...),
	}
}

// SetEmbeddedConfiguration stores a built-in document merged beneath any configuration file.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}
	loader.embeddedType = strings.TrimSpace(configurationType)
	loader.embeddedData = nil
	if len(configurationData) > 0 {
		loader.embeddedData = append([]byte(nil), configurationData...)
	}
}

// LoadConfiguration populates targetConfiguration from every layer. A missing file on the search
// paths is not an error; a missing or unreadable explicit file is.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)
	viperInstance.SetConfigType(loader.configurationType)
	for _, searchPath := range loader.searchPaths {
		viperInstance.AddConfigPath(searchPath)
	}
	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if mergeError := loader.mergeEmbedded(viperInstance); mergeError != nil {
		return LoadedConfiguration{}, mergeError
	}
	if bindError := loader.bindEnvironment(viperInstance, defaultValues); bindError != nil {
		return LoadedConfiguration{}, bindError
	}
	if readError := mergeConfigurationFile(viperInstance, configurationFilePath); readError != nil {
		return LoadedConfiguration{}, readError
	}

	if unmarshalError := viperInstance.Unmarshal(targetConfiguration, viper.DecodeHook(configurationDecodeHook())); unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}
	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}

func (loader *ConfigurationLoader) mergeEmbedded(viperInstance *viper.Viper) error {
	if len(loader.embeddedData) == 0 {
		return nil
	}
	if len(loader.embeddedType) > 0 {
		viperInstance.SetConfigType(loader.embeddedType)
		defer viperInstance.SetConfigType(loader.configurationType)
	}
	if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedData)); mergeError != nil {
		return fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
	}
	return nil
}

// bindEnvironment binds every default key explicitly because AutomaticEnv alone is invisible to Unmarshal.
func (loader *ConfigurationLoader) bindEnvironment(viperInstance *viper.Viper, defaultValues map[string]any) error {
	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(configurationKeySeparatorConstant, environmentKeySeparatorConstant))
	viperInstance.AutomaticEnv()

	for defaultKey := range defaultValues {
		if bindError := viperInstance.BindEnv(defaultKey); bindError != nil {
			return fmt.Errorf(environmentBindingErrorTemplateConstant, defaultKey, bindError)
		}
	}
	return nil
}

func mergeConfigurationFile(viperInstance *viper.Viper, configurationFilePath string) error {
	if len(configurationFilePath) > 0 {
		viperInstance.SetConfigFile(configurationFilePath)
	}
	readError := viperInstance.MergeInConfig()
	if readError == nil {
		return nil
	}
	var notFoundError viper.ConfigFileNotFoundError
	if errors.As(readError, &notFoundError) {
		return nil
	}
	return fmt.Errorf(configurationReadErrorTemplateConstant, readError)
}

func configurationDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(listSeparatorConstant),
		trimStringSliceHook,
	)
}

// trimStringSliceHook drops blanks and surrounding whitespace from list entries such as " .mango, vendor ".
func trimStringSliceHook(sourceType reflect.Type, targetType reflect.Type, data any) (any, error) {
	if sourceType.Kind() != reflect.Slice || targetType != reflect.TypeOf([]string{}) {
		return data, nil
	}
	entries, isStrings := data.([]string)
	if !isStrings {
		return data, nil
	}
	trimmedEntries := make([]string, 0, len(entries))
	for _, entry := range entries {
		trimmedEntry := strings.TrimSpace(entry)
		if len(trimmedEntry) > 0 {
			trimmedEntries = append(trimmedEntries, trimmedEntry)
		}
	}
	return trimmedEntries, nil
}
