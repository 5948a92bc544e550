package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type AppConfig struct {
	API      *APIConfig      `mapstructure:"api"`
	Gin      *GinConfig      `mapstructure:"gin"`
	Postgres *PostgresConfig `mapstructure:"postgres"`
	Chain    *ChainConfig    `mapstructure:"chain"`
	Raffle   *RaffleConfig   `mapstructure:"raffle"`
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	BaseURL            string   `mapstructure:"base_url"`
	Port               string   `mapstructure:"port"`
	JWTSigningKey      string   `mapstructure:"jwt_signing_key"`
	OperatorAPIKey     string   `mapstructure:"operator_api_key"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"db_name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// ChainConfig configures the EVM payment gateway. TreasuryPrivateKey signs
// outgoing prize payouts and is expected to come from the environment, not
// the checked-in yaml.
type ChainConfig struct {
	RPCURL                string `mapstructure:"rpc_url"`
	ChainID               int64  `mapstructure:"chain_id"`
	TreasuryAddress       string `mapstructure:"treasury_address"`
	TreasuryPrivateKey    string `mapstructure:"treasury_private_key"`
	ConfirmTimeoutSeconds int    `mapstructure:"confirm_timeout_seconds"`
}

type RaffleConfig struct {
	RoundDurationHours        int          `mapstructure:"round_duration_hours"`
	RakeBasisPoints           int          `mapstructure:"rake_basis_points"`
	PendingEntryWindowMinutes int          `mapstructure:"pending_entry_window_minutes"`
	Raffles                   []RaffleSpec `mapstructure:"raffles"`
}

// RaffleSpec is one configured raffle. Amounts are wei; a zero ticket price
// marks a free raffle.
type RaffleSpec struct {
	ID             string `mapstructure:"id"`
	Title          string `mapstructure:"title"`
	TicketPriceWei int64  `mapstructure:"ticket_price_wei"`
	PrizeWei       int64  `mapstructure:"prize_wei"`
	Capacity       int    `mapstructure:"capacity"`
}

func Load(path string) (*AppConfig, error) {
	conf := viper.New()
	conf.SetConfigFile(path)

	conf.SetEnvPrefix("RAFFLE")
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	conf.AutomaticEnv()

	if err := conf.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("conf.ReadInConfig -> %w", err)
	}

	var appConfig AppConfig
	if err := conf.Unmarshal(&appConfig); err != nil {
		return nil, fmt.Errorf("conf.Unmarshal -> %w", err)
	}

	return &appConfig, nil
}
