package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string `yaml:"env" env-default:"local"`
	Telegram struct {
		ApiKey  string `yaml:"api_key" env-default:""`
		AdminId int64  `yaml:"admin_id" env-default:"0"`
		BotName string `yaml:"bot_name" env-default:"CrewChatBot"`
		Enabled bool   `yaml:"enabled" env-default:"false"`
	} `yaml:"telegram"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:"admin"`
		Password string `yaml:"password" env-default:"pass"`
		Database string `yaml:"database" env-default:""`
	} `yaml:"mongo"`
	Chat struct {
		WindowSize     int      `yaml:"window_size" env-default:"30"`
		PageSize       int      `yaml:"page_size" env-default:"20"`
		HistoryCap     int      `yaml:"history_cap" env-default:"0"`
		CompanyName    string   `yaml:"company_name" env-default:""`
		HiddenAccounts []string `yaml:"hidden_accounts" env-default:""`
		FileSecret     string   `yaml:"file_secret" env-default:""`
		FileTTLMinutes int      `yaml:"file_ttl_minutes" env-default:"15"`
	} `yaml:"chat"`
	Presence struct {
		TTLSeconds int `yaml:"ttl_seconds" env-default:"60"`
	} `yaml:"presence"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env-default:"9100"`
		ApiKey string `yaml:"key" env-default:""`
	} `yaml:"listen"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
