package config

// ProvidersConfig is the massage-provider directory, loaded from
// providers.yaml and hot-reloaded alongside the main config.
type ProvidersConfig struct {
	Providers []Provider `yaml:"providers"`
}

type Provider struct {
	Name     string `yaml:"name"`
	Phone    string `yaml:"phone"`
	Location string `yaml:"location"`
	InStudio bool   `yaml:"in_studio"`
}
