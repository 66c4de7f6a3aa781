package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

var knownFlags = []string{
	"-a", "-m", "-store", "-d", "-mongo", "-ak", "-rk", "-t", "-r", "-redis", "-proxies", "-log",
}

// parseFlags overlays command-line flags:
//
//	-a string      gRPC bind address (":50051")
//	-m string      ops HTTP bind address for /health and /metrics (":8081")
//	-store string  credential store: postgres, mongo or memory
//	-d string      PostgreSQL DSN
//	-mongo string  MongoDB URI
//	-ak string     access token secret
//	-rk string     refresh token secret
//	-t int         access token validity, minutes
//	-r int         refresh token validity, minutes
//	-redis string  Redis address for shared rate limiting ("" = in-process)
//	-proxies int   trusted proxies appending to x-forwarded-for (0 = none)
//	-log string    log level
//
// Unknown flags are ignored so other components can share os.Args.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("gophauth", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address")
	fs.StringVar(&config.EndpointAddrHTTP, "m", config.EndpointAddrHTTP, "ops HTTP address")
	fs.StringVar(&config.StoreDriver, "store", config.StoreDriver, "credential store driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MongoURI, "mongo", config.MongoURI, "MongoDB URI")
	fs.StringVar(&config.AccessTokenSecret, "ak", config.AccessTokenSecret, "access token secret")
	fs.StringVar(&config.RefreshTokenSecret, "rk", config.RefreshTokenSecret, "refresh token secret")

	accessMinutes := fs.Int("t", int(config.AccessTokenTTL.Minutes()), "access token validity (in minutes)")
	refreshMinutes := fs.Int("r", int(config.RefreshTokenTTL.Minutes()), "refresh token validity (in minutes)")

	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	fs.IntVar(&config.TrustedProxies, "proxies", config.TrustedProxies, "trusted proxy hops")
	fs.StringVar(&config.LogLevel, "log", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	// Minute flags only apply when given, so sub-minute values from other
	// layers survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenTTL = time.Duration(*accessMinutes) * time.Minute
		case "r":
			config.RefreshTokenTTL = time.Duration(*refreshMinutes) * time.Minute
		}
	})
	return nil
}
