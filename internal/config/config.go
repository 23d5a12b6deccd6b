package config // package config loads application configuration from environment variables

import (
	"log" // log is used to report configuration errors and halt execution
	"os"  // os provides access to environment variables
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers, secrets and URLs.
type Config struct {
	Env             string // application environment (e.g. "dev", "prod")
	Port            string // HTTP port to listen on
	DBUser          string // database username
	DBPass          string // database password (optional)
	DBHost          string // database host address
	DBPort          string // database port number
	DBName          string // database name
	JWTSecret       string // secret used to verify JWTs from the identity provider
	StripeSecretKey string // secret API key for the payment provider
	Currency        string // ISO currency code for checkout line items
	FrontendBaseURL string // origin of the web client for checkout redirects
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),              // environment (dev/test/prod)
		Port:            must("APP_PORT"),             // port to bind the HTTP server
		DBUser:          must("DB_USER"),              // database user
		DBPass:          os.Getenv("DB_PASS"),         // database password (empty allowed)
		DBHost:          must("DB_HOST"),              // database host
		DBPort:          must("DB_PORT"),              // database port
		DBName:          must("DB_NAME"),              // database name
		JWTSecret:       must("JWT_SECRET"),           // secret used for verifying JWTs
		StripeSecretKey: must("STRIPE_SECRET_KEY"),    // payment provider API key
		Currency:        getenv("CURRENCY", "inr"),    // currency for provider line items
		FrontendBaseURL: getenv("FRONTEND_BASE_URL", "http://localhost:5173"), // client origin for redirects
	}
}

// SuccessURL is where the payment provider sends the customer after a
// completed payment.  The provider substitutes its session id into the
// placeholder so the client can call the verify endpoint.
func (c Config) SuccessURL() string {
	return c.FrontendBaseURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}"
}

// CancelURL is where the customer lands after abandoning the payment.
func (c Config) CancelURL() string {
	return c.FrontendBaseURL + "/buy-ticket"
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
