package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

type Config struct {
	TargetsFile string        `mapstructure:"targets_file"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Concurrency int           `mapstructure:"concurrency" validate:"min=1,max=256"`

	State StateConfig `mapstructure:"state"`
	Log   LogConfig   `mapstructure:"log"`
	Mail  MailConfig  `mapstructure:"mail"`
	Slack SlackConfig `mapstructure:"slack"`
	Guard GuardConfig `mapstructure:"guard"`
	Web   WebConfig   `mapstructure:"web"`
	ICMP  ICMPConfig  `mapstructure:"icmp"`
	Retry RetryConfig `mapstructure:"retry"`
	Alert AlertConfig `mapstructure:"alert"`
	Watch WatchConfig `mapstructure:"watch"`
	Serve ServeConfig `mapstructure:"serve"`
}

type StateConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=file bolt postgres memory"`
	Path   string `mapstructure:"path" validate:"required_if=Driver file,required_if=Driver bolt"`
	DSN    string `mapstructure:"dsn" validate:"required_if=Driver postgres"`
	Name   string `mapstructure:"name"` // postgres row; several instances may share one database
}

type LogConfig struct {
	Dir          string `mapstructure:"dir" validate:"required"`
	Level        string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	ResponseTime bool   `mapstructure:"response_time"`
	Console      bool   `mapstructure:"console"`
}

// EffectiveLevel is warn unless response times were asked for or a level is set.
func (l LogConfig) EffectiveLevel() string {
	switch {
	case l.Level != "":
		return l.Level
	case l.ResponseTime:
		return "info"
	default:
		return "warn"
	}
}

type MailConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	UseAuth  bool     `mapstructure:"use_auth"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port" validate:"min=0,max=65535"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to" validate:"dive,email"`
}

type SlackConfig struct {
	Webhook string `mapstructure:"webhook" validate:"omitempty,url"`
}

type GuardConfig struct {
	Endpoints []string `mapstructure:"endpoints"`
}

type WebConfig struct {
	AcceptedCodes []int `mapstructure:"accepted_codes" validate:"min=1,dive,min=100,max=599"`
}

type ICMPConfig struct {
	Privileged bool `mapstructure:"privileged"`
}

type RetryConfig struct {
	Attempts int           `mapstructure:"attempts" validate:"min=1,max=10"`
	Backoff  time.Duration `mapstructure:"backoff" validate:"min=0"`
}

type AlertConfig struct {
	OnReasonChange bool `mapstructure:"on_reason_change"`
}

type WatchConfig struct {
	Schedule string `mapstructure:"schedule" validate:"required,cronspec"`
}

type ServeConfig struct {
	Addr       string   `mapstructure:"addr" validate:"required,hostname_port"`
	APIKeys    []string `mapstructure:"api_keys"`
	AdminKeys  []string `mapstructure:"admin_keys"`
	CheckRPM   int      `mapstructure:"check_rpm" validate:"min=0"`
	CheckBurst int      `mapstructure:"check_burst" validate:"min=0"`
	TrustProxy bool     `mapstructure:"trust_proxy"`
}

const EnvPrefix = "SITEWATCH"

// SetDefaults registers every key so env overrides are picked up on Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("targets_file", "")
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("concurrency", 4)

	v.SetDefault("state.driver", "file")
	v.SetDefault("state.path", "data.json")
	v.SetDefault("state.dsn", "")
	v.SetDefault("state.name", "")

	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "")
	v.SetDefault("log.response_time", false)
	v.SetDefault("log.console", false)

	v.SetDefault("mail.use_auth", false)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 0)
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.to", []string{})

	v.SetDefault("slack.webhook", "")
	v.SetDefault("guard.endpoints", []string{"http://www.google.com", "http://www.yahoo.com"})
	v.SetDefault("web.accepted_codes", []int{200, 302, 403})
	v.SetDefault("icmp.privileged", false)
	v.SetDefault("retry.attempts", 1)
	v.SetDefault("retry.backoff", 300*time.Millisecond)
	v.SetDefault("alert.on_reason_change", false)
	v.SetDefault("watch.schedule", "@every 5m")
	v.SetDefault("serve.addr", "127.0.0.1:8080")
	v.SetDefault("serve.api_keys", []string{})
	v.SetDefault("serve.admin_keys", []string{})
	v.SetDefault("serve.check_rpm", 6)
	v.SetDefault("serve.check_burst", 2)
	v.SetDefault("serve.trust_proxy", false)
}

// New returns a viper instance reading SITEWATCH_* env vars and files from fs.
func New(fs afero.Fs) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads the optional config file (file, or sitewatch.yaml in . then
// $HOME/.sitewatch), unmarshals and validates.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("sitewatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.sitewatch")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &nf) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	// mail.enabled has no default: unset means "on when there are recipients"
	if v.IsSet("mail.enabled") {
		cfg.Mail.Enabled = v.GetBool("mail.enabled")
	} else {
		cfg.Mail.Enabled = len(cfg.Mail.To) > 0
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule accepts standard cron lines and descriptors such as "@every 5m".
func ParseSchedule(spec string) (cron.Schedule, error) {
	return cronParser.Parse(spec)
}

func Validate(cfg Config) error {
	validate := validator.New()
	_ = validate.RegisterValidation("cronspec", func(fl validator.FieldLevel) bool {
		_, err := ParseSchedule(fl.Field().String())
		return err == nil
	})
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
