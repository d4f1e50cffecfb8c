package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/GreyGoose98/Resume-ATS-Optimizer/internal/types"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()

	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}

	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// applyServerAPIKeyFallbacks reads a comma separated key list from the
// environment and drops blank entries.
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv(EnvPrefix + "_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = strings.Split(apiKeysEnv, ",")
		}
	}

	keys := c.Server.APIKeys[:0]
	for _, key := range c.Server.APIKeys {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	c.Server.APIKeys = keys
}

func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		EnvPrefix + "_AI_APIKEY",
		EnvPrefix + "_AI_PROVIDER",
		EnvPrefix + "_AI_MODEL",
		EnvPrefix + "_SERVER_PORT",
		EnvPrefix + "_SERVER_HOST",
		EnvPrefix + "_APP_LOGLEVEL",
		EnvPrefix + "_VAULT_ENABLED",
		"GEMINI_API_KEY",
		"OPENROUTER_API_KEY",
	}

	var set []string
	for _, envVar := range envVars {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		if strings.Contains(strings.ToLower(envVar), "key") {
			value = "***MASKED***"
		}
		set = append(set, envVar+"="+value)
	}
	if len(set) == 0 {
		log.Println("[CONFIG] Environment variables: none set")
	} else {
		log.Printf("[CONFIG] Environment variables: %s", strings.Join(set, ", "))
	}

	keyState := "***NOT SET***"
	if c.AI.APIKey != "" {
		keyState = "***CONFIGURED***"
	}
	log.Printf("[CONFIG] AI provider=%s model=%s key=%s timeout=%s", c.AI.Provider, c.AI.Model, keyState, c.AI.Timeout)
	log.Printf("[CONFIG] Extraction pdf=%s docx=%s", c.Extraction.PDFEngine, c.Extraction.DOCXEngine)
	log.Printf("[CONFIG] Server %s:%s tls=%s vault=%t observability=%t",
		c.Server.Host, c.Server.Port, c.Server.TLS.Mode, c.Vault.Enabled, c.Observability.Enabled)

	for _, op := range types.Operations {
		opCfg := c.AI.operations()[op]
		if opCfg.Provider != "" || opCfg.Model != "" {
			log.Printf("[CONFIG] %s override provider=%s model=%s", op, opCfg.Provider, opCfg.Model)
		}
	}
}
