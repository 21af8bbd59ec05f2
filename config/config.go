package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Quota    QuotaConfig    `mapstructure:"quota"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Frontend FrontendConfig `mapstructure:"frontend"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// AuthConfig 身份认证配置。JWTSecret 与外部身份服务共享（HS256），
// 后端只做校验，不签发登录 token。
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	PriceIDPro    string `mapstructure:"price_id_pro"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// WorkflowConfig 外部工作流引擎配置。三个 trigger URL 各对应一类生成任务，
// CallbackSecret 用于回调鉴权，CallbackBaseURL 用于拼接回调地址。
type WorkflowConfig struct {
	InfluencerTriggerURL string `mapstructure:"influencer_trigger_url"`
	ImageTriggerURL      string `mapstructure:"image_trigger_url"`
	ChatTriggerURL       string `mapstructure:"chat_trigger_url"`
	CallbackSecret       string `mapstructure:"callback_secret"`
	CallbackBaseURL      string `mapstructure:"callback_base_url"`
	TimeoutSeconds       int    `mapstructure:"timeout_seconds"`
}

type StorageConfig struct {
	Backend       string    `mapstructure:"backend"` // local 或 oss
	MediaDir      string    `mapstructure:"media_dir"`
	PublicBaseURL string    `mapstructure:"public_base_url"`
	OSS           OSSConfig `mapstructure:"oss"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type QuotaConfig struct {
	FreeImageGrant   int `mapstructure:"free_image_grant"`
	ProMonthlyImages int `mapstructure:"pro_monthly_images"`
	ChatDailyLimit   int `mapstructure:"chat_daily_limit"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type FrontendConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type CleanupConfig struct {
	ShellExpireHours int `mapstructure:"shell_expire_hours"`
}

func Load(configPath string) (*Config, error) {
	// 优先读取 config.local.yaml（包含真实密钥，不提交到 git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// 环境变量覆盖
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5002)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("quota.free_image_grant", 3)
	viper.SetDefault("quota.pro_monthly_images", 20)
	viper.SetDefault("quota.chat_daily_limit", 20)
	viper.SetDefault("workflow.timeout_seconds", 10)
	viper.SetDefault("storage.backend", "local")
	viper.SetDefault("storage.media_dir", "data/media")
	viper.SetDefault("storage.public_base_url", "/media")
	viper.SetDefault("cleanup.shell_expire_hours", 24)
}
