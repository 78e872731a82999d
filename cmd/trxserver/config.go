/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harrykodden/trx/driver"
)

// Config is the server's YAML configuration file shape (§6.4 base
// expansion). Command-line flags, set via cobra in main.go, override
// whatever this file declares.
type Config struct {
	Listen         string        `yaml:"listen"`
	WorkerPoolSize int           `yaml:"workerPoolSize"`
	LogLevel       string        `yaml:"logLevel"`
	Database       DatabaseConfig `yaml:"database"`
}

// DatabaseConfig mirrors driver.Config's shape for the parts a deployment
// actually needs to set from a file.
type DatabaseConfig struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
	DatabasePath     string `yaml:"databasePath"`
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	DatabaseName     string `yaml:"databaseName"`
}

func defaultConfig() Config {
	return Config{
		Listen:         ":8080",
		WorkerPoolSize: 0, // 0: httpapi.NewServer uses runtime.GOMAXPROCS(0)
		LogLevel:       "info",
		Database:       DatabaseConfig{Type: string(driver.TypeMemory)},
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
