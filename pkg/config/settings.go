package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"lpcontrol/pkg/solana/clmm"
)

// Settings holds everything the binaries read from the environment, flags or config.yaml.
type Settings struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBTimeZone string

	RabbitMQHost     string
	RabbitMQPort     string
	RabbitMQUser     string
	RabbitMQPassword string
	CommandQueue     string

	SolanaRPC     string
	SolanaWSS     string
	SolanaRPCList []string
	RPCRPS        int

	Port           string
	AllowedOrigins []string
	APIRPS         float64
	APIBurst       int

	ClmmProgramID    solana.PublicKey
	ProxyProgramID   solana.PublicKey
	AmmConfig        solana.PublicKey
	ComputeUnitLimit uint32
	SkipPreflight    bool
	Commitment       rpc.CommitmentType
	ConfirmTimeout   time.Duration

	KeystoreDir      string
	KeystorePassword string

	SweepSchedule  string
	MigrationsPath string
	LogLevel       string
}

// flag name -> settings key
var flagKeys = map[string]string{
	"rpc":               "default_solana_rpc",
	"wss":               "default_solana_wss",
	"clmm-program":      "clmm_program_id",
	"proxy-program":     "proxy_program_id",
	"amm-config":        "amm_config",
	"compute-units":     "compute_unit_limit",
	"skip-preflight":    "skip_preflight",
	"commitment":        "commitment",
	"keystore":          "keystore_dir",
	"keystore-password": "keystore_password",
	"log-level":         "log_level",
}

// Load merges config file, environment variables and flags. Keys match the environment
// variable names in lower case, so DB_HOST is read as db_host.
func Load(cfgFile string, flags *pflag.FlagSet) (Settings, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("db_port", "5432")
	v.SetDefault("db_timezone", "UTC")
	v.SetDefault("rabbitmq_port", "5672")
	v.SetDefault("command_queue", "clmm_position_commands")
	v.SetDefault("default_solana_rpc", rpc.DevNet_RPC)
	v.SetDefault("default_solana_wss", rpc.DevNet_WS)
	v.SetDefault("rpc_rps", 10)
	v.SetDefault("port", "8080")
	v.SetDefault("api_rps", 20.0)
	v.SetDefault("api_burst", 40)
	v.SetDefault("clmm_program_id", clmm.DevnetClmmProgramID.String())
	v.SetDefault("proxy_program_id", clmm.ProxyProgramID.String())
	v.SetDefault("amm_config", clmm.DevnetAmmConfig.String())
	v.SetDefault("compute_unit_limit", clmm.DefaultComputeUnits)
	v.SetDefault("skip_preflight", true)
	v.SetDefault("commitment", string(rpc.CommitmentConfirmed))
	v.SetDefault("confirm_timeout", 90*time.Second)
	v.SetDefault("keystore_dir", "configs/keystore")
	v.SetDefault("sweep_schedule", "*/30 * * * * *")
	v.SetDefault("migrations_path", "migrations")
	v.SetDefault("log_level", "info")

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Settings{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Settings{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	s := Settings{
		DBHost:           v.GetString("db_host"),
		DBUser:           v.GetString("db_user"),
		DBPassword:       v.GetString("db_password"),
		DBName:           v.GetString("db_name"),
		DBPort:           v.GetString("db_port"),
		DBTimeZone:       v.GetString("db_timezone"),
		RabbitMQHost:     v.GetString("rabbitmq_host"),
		RabbitMQPort:     v.GetString("rabbitmq_port"),
		RabbitMQUser:     v.GetString("rabbitmq_user"),
		RabbitMQPassword: v.GetString("rabbitmq_password"),
		CommandQueue:     v.GetString("command_queue"),
		SolanaRPC:        v.GetString("default_solana_rpc"),
		SolanaWSS:        v.GetString("default_solana_wss"),
		SolanaRPCList:    splitList(v.GetString("solana_rpc_list")),
		RPCRPS:           v.GetInt("rpc_rps"),
		Port:             v.GetString("port"),
		AllowedOrigins:   splitList(v.GetString("allowed_origins")),
		APIRPS:           v.GetFloat64("api_rps"),
		APIBurst:         v.GetInt("api_burst"),
		ComputeUnitLimit: v.GetUint32("compute_unit_limit"),
		SkipPreflight:    v.GetBool("skip_preflight"),
		Commitment:       rpc.CommitmentType(strings.ToLower(v.GetString("commitment"))),
		ConfirmTimeout:   v.GetDuration("confirm_timeout"),
		KeystoreDir:      v.GetString("keystore_dir"),
		KeystorePassword: v.GetString("keystore_password"),
		SweepSchedule:    v.GetString("sweep_schedule"),
		MigrationsPath:   v.GetString("migrations_path"),
		LogLevel:         v.GetString("log_level"),
	}

	var err error
	if s.ClmmProgramID, err = parseKey(v, "clmm_program_id"); err != nil {
		return Settings{}, err
	}
	if s.ProxyProgramID, err = parseKey(v, "proxy_program_id"); err != nil {
		return Settings{}, err
	}
	if s.AmmConfig, err = parseKey(v, "amm_config"); err != nil {
		return Settings{}, err
	}

	switch s.Commitment {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return Settings{}, fmt.Errorf("unsupported commitment %q", s.Commitment)
	}
	if s.ComputeUnitLimit == 0 {
		return Settings{}, fmt.Errorf("compute_unit_limit must be positive")
	}
	return s, nil
}

// RPCEndpoints lists the configured endpoints, the default one first.
func (s Settings) RPCEndpoints() []string {
	out := []string{s.SolanaRPC}
	for _, e := range s.SolanaRPCList {
		if e != s.SolanaRPC {
			out = append(out, e)
		}
	}
	return out
}

// DSN is the postgres connection string.
func (s Settings) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		s.DBHost, s.DBUser, s.DBPassword, s.DBName, s.DBPort, s.DBTimeZone)
}

// AMQPURL is the RabbitMQ connection string.
func (s Settings) AMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", s.RabbitMQUser, s.RabbitMQPassword, s.RabbitMQHost, s.RabbitMQPort)
}

func parseKey(v *viper.Viper, key string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return pk, nil
}

func splitList(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
