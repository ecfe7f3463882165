// Package config отвечает за конфигурацию сервиса интернет-магазина.
package config

import (
	"flag"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры запуска сервиса.
type Config struct {
	RunAddress     string `env:"RUN_ADDRESS"`
	DatabaseURI    string `env:"DATABASE_URI"`
	CatalogAddress string `env:"CATALOG_SYSTEM_ADDRESS"`
	AuthSecret     string `env:"AUTH_SECRET"`
}

// Parse разбирает конфигурацию из флагов командной строки и переменных
// окружения. Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "адрес и порт запуска сервиса")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "адрес подключения к базе данных")
	flag.StringVar(&cfg.CatalogAddress, "c", "", "адрес системы каталога товаров")
	flag.StringVar(&cfg.AuthSecret, "s", "storefront-secret", "секрет подписи cookie аутентификации")
	flag.Parse()

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
