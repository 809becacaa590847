package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	AdminKey       string        `mapstructure:"ADMIN_KEY"`
	NotifyURL      string        `mapstructure:"NOTIFY_URL"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`

	DrawWorkers    int           `mapstructure:"DRAW_WORKERS"`
	SolverMaxNodes int           `mapstructure:"SOLVER_MAX_NODES"`
	BallotLinkTTL  time.Duration `mapstructure:"BALLOT_LINK_TTL"`

	WeightTeamBalance   float64 `mapstructure:"WEIGHT_TEAM_BALANCE"`
	WeightSpeakerSpread float64 `mapstructure:"WEIGHT_SPEAKER_SPREAD"`
	WeightJudgeLoad     float64 `mapstructure:"WEIGHT_JUDGE_LOAD"`
	WeightRoomCount     float64 `mapstructure:"WEIGHT_ROOM_COUNT"`
	WeightPartnerBonus  float64 `mapstructure:"WEIGHT_PARTNER_BONUS"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DRAW_WORKERS", 2)
	v.SetDefault("SOLVER_MAX_NODES", 500000)
	v.SetDefault("BALLOT_LINK_TTL", "5h")
	v.SetDefault("WEIGHT_TEAM_BALANCE", 1.0)
	v.SetDefault("WEIGHT_SPEAKER_SPREAD", 1.0)
	v.SetDefault("WEIGHT_JUDGE_LOAD", 1.0)
	v.SetDefault("WEIGHT_ROOM_COUNT", 5.0)
	v.SetDefault("WEIGHT_PARTNER_BONUS", 20.0)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
