package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

type jsonRateRule struct {
	Limit          int            `json:"limit"`
	Window         timex.Duration `json:"window"`
	SkipSuccessful *bool          `json:"skip_successful"`
}

type jsonOAuthProvider struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURL  string `json:"redirect_url"`
}

// JsonConfig is the on-disk shape of the config file. Durations are written
// as strings ("15m", "168h"). Absent or zero fields keep the current value.
type JsonConfig struct {
	EndpointAddrGRPC string `json:"endpoint_addr_grpc"`
	EndpointAddrHTTP string `json:"endpoint_addr_http"`

	StoreDriver   string `json:"store_driver"`
	DatabaseDSN   string `json:"database_dsn"`
	MongoURI      string `json:"mongo_uri"`
	MongoDatabase string `json:"mongo_database"`

	AccessTokenSecret  string         `json:"access_token_secret"`
	RefreshTokenSecret string         `json:"refresh_token_secret"`
	AccessTokenTTL     timex.Duration `json:"access_token_ttl"`
	RefreshTokenTTL    timex.Duration `json:"refresh_token_ttl"`
	TempTokenTTL       timex.Duration `json:"temp_token_ttl"`
	OTPTTL             timex.Duration `json:"otp_ttl"`

	BcryptCost       int            `json:"bcrypt_cost"`
	MaxLoginAttempts int            `json:"max_login_attempts"`
	LockDuration     timex.Duration `json:"lock_duration"`
	AppName          string         `json:"app_name"`

	SMTP struct {
		Host      string         `json:"host"`
		Port      int            `json:"port"`
		Username  string         `json:"username"`
		Password  string         `json:"password"`
		From      string         `json:"from"`
		TLSPolicy string         `json:"tls_policy"`
		Timeout   timex.Duration `json:"timeout"`
	} `json:"smtp"`

	RedisAddr      string `json:"redis_addr"`
	TrustedProxies int    `json:"trusted_proxies"`
	RateLimits     struct {
		Auth          jsonRateRule `json:"auth"`
		PasswordReset jsonRateRule `json:"password_reset"`
		Verification  jsonRateRule `json:"verification"`
		General       jsonRateRule `json:"general"`
	} `json:"rate_limits"`

	Google jsonOAuthProvider `json:"google"`
	GitHub jsonOAuthProvider `json:"github"`

	TokenPurgeInterval timex.Duration `json:"token_purge_interval"`
	LogLevel           string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config, if any, over config.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return err
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)

	setString(&config.StoreDriver, c.StoreDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)

	setString(&config.AccessTokenSecret, c.AccessTokenSecret)
	setString(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	setDuration(&config.AccessTokenTTL, c.AccessTokenTTL)
	setDuration(&config.RefreshTokenTTL, c.RefreshTokenTTL)
	setDuration(&config.TempTokenTTL, c.TempTokenTTL)
	setDuration(&config.OTPTTL, c.OTPTTL)

	setInt(&config.BcryptCost, c.BcryptCost)
	setInt(&config.MaxLoginAttempts, c.MaxLoginAttempts)
	setDuration(&config.LockDuration, c.LockDuration)
	setString(&config.AppName, c.AppName)

	setString(&config.SMTP.Host, c.SMTP.Host)
	setInt(&config.SMTP.Port, c.SMTP.Port)
	setString(&config.SMTP.Username, c.SMTP.Username)
	setString(&config.SMTP.Password, c.SMTP.Password)
	setString(&config.SMTP.From, c.SMTP.From)
	setString(&config.SMTP.TLSPolicy, c.SMTP.TLSPolicy)
	setDuration(&config.SMTP.Timeout, c.SMTP.Timeout)

	setString(&config.RedisAddr, c.RedisAddr)
	setInt(&config.TrustedProxies, c.TrustedProxies)
	setRule(&config.RateLimits.Auth, c.RateLimits.Auth)
	setRule(&config.RateLimits.PasswordReset, c.RateLimits.PasswordReset)
	setRule(&config.RateLimits.Verification, c.RateLimits.Verification)
	setRule(&config.RateLimits.General, c.RateLimits.General)

	setProvider(&config.Google, c.Google)
	setProvider(&config.GitHub, c.GitHub)

	setDuration(&config.TokenPurgeInterval, c.TokenPurgeInterval)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}

func setRule(dst *RateRule, v jsonRateRule) {
	setInt(&dst.Limit, v.Limit)
	setDuration(&dst.Window, v.Window)
	if v.SkipSuccessful != nil {
		dst.SkipSuccessful = *v.SkipSuccessful
	}
}

func setProvider(dst *OAuthProvider, v jsonOAuthProvider) {
	setString(&dst.ClientID, v.ClientID)
	setString(&dst.ClientSecret, v.ClientSecret)
	setString(&dst.RedirectURL, v.RedirectURL)
}
