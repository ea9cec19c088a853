package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

type Application struct {
	Host     string   `koanf:"host"`
	Port     int      `koanf:"port"`
	Frontend Frontend `koanf:"frontend"`
	Storage  Storage  `koanf:"storage"`
	Database Database `koanf:"db"`
	Planner  Planner  `koanf:"planner"`
	Google   Google   `koanf:"google"`
	Log      Log      `koanf:"log"`
}

type Frontend struct {
	Origins []string `koanf:"origins"`
}

type Storage struct {
	Driver string `koanf:"driver"`
	Path   string `koanf:"path"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

type Planner struct {
	// DefaultBudget is a decimal number of leave days, e.g. "32" or "25.5".
	DefaultBudget  string `koanf:"defaultbudget"`
	SchoolHolidays bool   `koanf:"schoolholidays"`
}

type Google struct {
	ClientId       string        `koanf:"clientid"`
	ClientSecret   string        `koanf:"clientsecret"`
	SyncSchedule   string        `koanf:"syncschedule"`
	RequestTimeout time.Duration `koanf:"requesttimeout"`
}

func (g Google) Enabled() bool {
	return g.ClientId != "" && g.ClientSecret != ""
}

type Log struct {
	Level string `koanf:"level"`
}

func Defaults() Application {
	return Application{
		Host: "http://localhost:8181",
		Port: 8181,
		Frontend: Frontend{
			Origins: []string{"http://localhost:5173"},
		},
		Storage: Storage{
			Driver: StorageSQLite,
			Path:   "verlof.db",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "verlof",
			Pass:   "",
			Name:   "verlof",
			Schema: "verlof",
		},
		Planner: Planner{
			DefaultBudget:  "32",
			SchoolHolidays: true,
		},
		Google: Google{
			SyncSchedule:   "@every 15m",
			RequestTimeout: 15 * time.Second,
		},
	}
}

// Load reads configuration from defaults, the YAML file at path and VERLOF_* environment
// variables, in that order. A .env file in the working directory is loaded into the
// environment first when present.
func Load(path string) (Application, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("could not load .env file: %v", err)
	}

	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "VERLOF_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "VERLOF_")), "_", ".")
			if k == "frontend.origins" {
				return k, strings.Split(v, ",")
			}
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
